package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tsdiag/pcrdelta/configure"
)

func TestStatusHandlerServesSnapshot(t *testing.T) {
	configure.Stats.SetSnapshot("pcrdelta/status", `{"records":7,"resets":1}`)
	defer configure.Stats.DeleteSnapshot("pcrdelta/status")

	s := NewServer()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stat/status", nil)
	s.handleStatus(w, r)

	if w.Code != 200 {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Status int `json:"status"`
		Data   struct {
			Records int `json:"records"`
			Resets  int `json:"resets"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != 200 || resp.Data.Records != 7 || resp.Data.Resets != 1 {
		t.Fatalf("response %s", w.Body.String())
	}
}

func TestStatusHandlerWithoutSnapshot(t *testing.T) {
	configure.Stats.DeleteSnapshot("pcrdelta/status")

	s := NewServer()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stat/status", nil)
	s.handleStatus(w, r)

	if w.Code != 404 {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	configure.Config.Set("jwt.secret", "testsecret")
	defer configure.Config.Set("jwt.secret", "")

	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stat/status", nil)
	handler.ServeHTTP(w, r)

	if w.Code != 403 {
		t.Fatalf("status %d, want 403", w.Code)
	}
}

func TestJWTMiddlewareDisabledWithoutSecret(t *testing.T) {
	configure.Config.Set("jwt.secret", "")

	handler := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(204)
	}))
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/stat/status", nil)
	handler.ServeHTTP(w, r)

	if w.Code != 204 {
		t.Fatalf("status %d, want 204", w.Code)
	}
}
