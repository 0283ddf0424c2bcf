package input

import (
	"bufio"
	"io"
	"os"
	"sync/atomic"

	"github.com/tsdiag/pcrdelta/container/ts"

	log "github.com/sirupsen/logrus"
)

const fileReadBufSize = 64 * 1024

// FileSource reads raw 188-byte TS packets from a file, or from standard
// input when the path is "-". It resynchronises on sync byte loss by
// scanning forward to the next 0x47.
type FileSource struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	closed int32
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return s.path
}

func (s *FileSource) Cyclic() bool {
	return false
}

func (s *FileSource) Open() error {
	if s.path == "-" {
		s.file = os.Stdin
	} else {
		f, err := os.Open(s.path)
		if err != nil {
			return err
		}
		s.file = f
	}
	s.reader = bufio.NewReaderSize(s.file, fileReadBufSize)
	atomic.StoreInt32(&s.closed, 0)
	return nil
}

func (s *FileSource) Close() error {
	if s.file == nil || !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if s.file != os.Stdin {
		return s.file.Close()
	}
	return nil
}

func (s *FileSource) Receive(pkts []ts.Packet, metadata []ts.Metadata) (int, error) {
	n := 0
	for n < len(pkts) {
		if err := s.readPacket(&pkts[n]); err != nil {
			if err == io.EOF || atomic.LoadInt32(&s.closed) == 1 {
				return n, nil
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// readPacket reads one packet, scanning to the next sync byte first when
// the stream has lost alignment.
func (s *FileSource) readPacket(pkt *ts.Packet) error {
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == ts.SyncByte {
			break
		}
		log.Debugf("file source %s: skipping byte 0x%02x looking for sync", s.path, b)
	}
	pkt[0] = ts.SyncByte
	if _, err := io.ReadFull(s.reader, pkt[1:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			// Truncated trailing packet, treat as end of input.
			return io.EOF
		}
		return err
	}
	return nil
}
