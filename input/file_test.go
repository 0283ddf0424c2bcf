package input

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsdiag/pcrdelta/container/ts"
)

func writeTSFile(t *testing.T, dir string, prefix []byte, pcrs []uint64) string {
	t.Helper()
	var data []byte
	data = append(data, prefix...)
	for _, pcr := range pcrs {
		var p ts.Packet
		p.SetPCR(pcr)
		data = append(data, p[:]...)
	}
	path := filepath.Join(dir, "test.ts")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceReadsPackets(t *testing.T) {
	dir, err := ioutil.TempDir("", "pcrdelta")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := writeTSFile(t, dir, nil, []uint64{1000, 2000, 3000})

	src := NewFileSource(path)
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pkts := make([]ts.Packet, 8)
	metadata := make([]ts.Metadata, 8)
	n, err := src.Receive(pkts, metadata)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("received %d packets, want 3", n)
	}
	for i, want := range []uint64{1000, 2000, 3000} {
		if got := pkts[i].PCR(); got != want {
			t.Fatalf("packet %d: PCR %d, want %d", i, got, want)
		}
		if metadata[i].HasTimestamp {
			t.Fatalf("packet %d: file sources provide no timestamps", i)
		}
	}

	// End of input.
	n, err = src.Receive(pkts, metadata)
	if err != nil || n != 0 {
		t.Fatalf("expected clean end of input, got n=%d err=%v", n, err)
	}
}

func TestFileSourceResyncsOnGarbage(t *testing.T) {
	dir, err := ioutil.TempDir("", "pcrdelta")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := writeTSFile(t, dir, []byte{0x00, 0x11, 0x22}, []uint64{1000})

	src := NewFileSource(path)
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pkts := make([]ts.Packet, 4)
	metadata := make([]ts.Metadata, 4)
	n, err := src.Receive(pkts, metadata)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("received %d packets, want 1", n)
	}
	if got := pkts[0].PCR(); got != 1000 {
		t.Fatalf("PCR %d, want 1000", got)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource("/does/not/exist.ts")
	if err := src.Open(); err == nil {
		t.Fatal("expected open error")
	}
}

func TestFileSourceNotCyclic(t *testing.T) {
	if NewFileSource("x.ts").Cyclic() {
		t.Fatal("file source must not report cyclic")
	}
}

func TestNewSelectsSource(t *testing.T) {
	if _, ok := New("udp://127.0.0.1:1234").(*UDPSource); !ok {
		t.Fatal("udp:// spec must build a UDP source")
	}
	if _, ok := New("capture.ts").(*FileSource); !ok {
		t.Fatal("plain path must build a file source")
	}
}
