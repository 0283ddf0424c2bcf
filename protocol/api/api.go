package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/tsdiag/pcrdelta/compare"
	"github.com/tsdiag/pcrdelta/configure"

	jwtmiddleware "github.com/auth0/go-jwt-middleware"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

// Server is the optional HTTP status interface. It only serves snapshots
// out of the stats store; the CSV sink stays the single record sink.
type Server struct{}

func NewServer() *Server {
	return &Server{}
}

type Response struct {
	w      http.ResponseWriter
	Status int         `json:"status"`
	Data   interface{} `json:"data"`
}

func (r *Response) SendJson() (int, error) {
	resp, _ := json.Marshal(r)
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(r.Status)
	return r.w.Write(resp)
}

// JWTMiddleware protects the routes with a bearer token when jwt.secret is
// configured.
func JWTMiddleware(next http.Handler) http.Handler {
	isJWT := len(configure.Config.GetString("jwt.secret")) > 0
	if !isJWT {
		return next
	}

	log.Info("Using JWT middleware")
	var algorithm jwt.SigningMethod
	if len(configure.Config.GetString("jwt.algorithm")) > 0 {
		algorithm = jwt.GetSigningMethod(configure.Config.GetString("jwt.algorithm"))
	}
	if algorithm == nil {
		algorithm = jwt.SigningMethodHS256
	}

	jwtMiddleware := jwtmiddleware.New(jwtmiddleware.Options{
		Extractor: jwtmiddleware.FromFirst(jwtmiddleware.FromAuthHeader, jwtmiddleware.FromParameter("jwt")),
		ValidationKeyGetter: func(token *jwt.Token) (interface{}, error) {
			return []byte(configure.Config.GetString("jwt.secret")), nil
		},
		SigningMethod: algorithm,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err string) {
			res := &Response{
				w:      w,
				Status: 403,
				Data:   err,
			}
			res.SendJson()
		},
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtMiddleware.HandlerWithNext(w, r, next.ServeHTTP)
	})
}

func (s *Server) Serve(l net.Listener) error {
	router := mux.NewRouter()
	router.HandleFunc("/stat/status", s.handleStatus).Methods("GET")

	n := negroni.New(negroni.NewRecovery())
	n.UseHandler(JWTMiddleware(router))

	if err := http.Serve(l, n); err != nil {
		return err
	}
	return nil
}

// handleStatus returns the latest session snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := &Response{
		w:      w,
		Status: 200,
	}
	defer res.SendJson()

	snapshot, err := configure.Stats.GetSnapshot(compare.StatusKey)
	if err != nil {
		res.Status = 404
		res.Data = "no status snapshot yet"
		return
	}
	res.Data = json.RawMessage(snapshot)
}
