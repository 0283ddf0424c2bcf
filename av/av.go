package av

import (
	"fmt"

	"github.com/tsdiag/pcrdelta/container/ts"
)

// Source is one TS input feed. Implementations live in the input package;
// the comparison engine only sees this contract.
//
// Receive fills up to len(pkts) packets and their metadata slots and
// returns how many were produced. A count of zero means end of input for
// the current session. Sources that can provide capture timestamps set
// them on the metadata; sources that cannot leave the slots cleared and
// the input executor stamps the batch from its own monotonic clock.
type Source interface {
	// Open starts an input session. Called once per session.
	Open() error
	Receive(pkts []ts.Packet, metadata []ts.Metadata) (int, error)
	Close() error
	// Cyclic reports whether the source supports starting another
	// session after end of input (e.g. a looping file).
	Cyclic() bool
	Name() string
}

// Info identifies one input feed inside logs and status snapshots.
type Info struct {
	Index int
	URL   string
}

func (info Info) String() string {
	return fmt.Sprintf("<input: %d, URL: %s>", info.Index, info.URL)
}
