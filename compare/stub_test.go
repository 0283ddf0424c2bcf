package compare

import (
	"sync/atomic"

	"github.com/tsdiag/pcrdelta/container/ts"
)

type stubPacket struct {
	pcr   uint64
	hasTS bool
	ts    uint64
}

// stubSource scripts an input feed for tests. It delivers its packets in
// receive-window sized chunks, then reports end of input, or blocks until
// closed when blockForever is set.
type stubSource struct {
	name         string
	packets      []stubPacket
	pos          int
	openErr      error
	blockForever bool
	closedCh     chan struct{}
	closed       int32
}

func newStubSource(packets []stubPacket, openErr error) *stubSource {
	return &stubSource{
		name:     "stub",
		packets:  packets,
		openErr:  openErr,
		closedCh: make(chan struct{}),
	}
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) Cyclic() bool {
	return false
}

func (s *stubSource) Open() error {
	return s.openErr
}

func (s *stubSource) Close() error {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.closedCh)
	}
	return nil
}

func (s *stubSource) Receive(pkts []ts.Packet, metadata []ts.Metadata) (int, error) {
	if s.pos >= len(s.packets) {
		if s.blockForever {
			<-s.closedCh
		}
		return 0, nil
	}
	n := 0
	for n < len(pkts) && s.pos < len(s.packets) {
		sp := s.packets[s.pos]
		var p ts.Packet
		if sp.pcr != ts.InvalidPCR {
			p.SetPCR(sp.pcr)
		}
		pkts[n] = p
		if sp.hasTS {
			metadata[n].SetInputTimestamp(sp.ts)
		}
		s.pos++
		n++
	}
	return n, nil
}

// plainPackets builds n packets that carry no PCR.
func plainPackets(n int) []stubPacket {
	packets := make([]stubPacket, n)
	for i := range packets {
		packets[i] = stubPacket{pcr: ts.InvalidPCR}
	}
	return packets
}

// timedPCRs builds one PCR-bearing packet per value with explicit input
// timestamps.
func timedPCRs(pcrs, timestamps []uint64) []stubPacket {
	packets := make([]stubPacket, len(pcrs))
	for i := range pcrs {
		packets[i] = stubPacket{pcr: pcrs[i], hasTS: true, ts: timestamps[i]}
	}
	return packets
}
