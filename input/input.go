package input

import (
	"strings"

	"github.com/tsdiag/pcrdelta/av"
)

// New builds a source from a command line input spec. "udp://host:port"
// selects the UDP listener, anything else is a file path ("-" for stdin).
func New(spec string) av.Source {
	if strings.HasPrefix(spec, "udp://") {
		return NewUDPSource(spec)
	}
	return NewFileSource(spec)
}
