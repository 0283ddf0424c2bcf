package input

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"

	"github.com/tsdiag/pcrdelta/container/ts"
	"github.com/tsdiag/pcrdelta/utils/pool"

	log "github.com/sirupsen/logrus"
)

// A TS-over-UDP datagram carries at most 7 packets.
const maxDatagramPackets = 7

// UDPSource listens on a UDP address and splits each datagram into
// 188-byte TS packets. Undersized tails are dropped with a warning.
// End of input only occurs when the source is closed.
type UDPSource struct {
	addr   string
	conn   *net.UDPConn
	pool   *pool.Pool
	closed int32
}

func NewUDPSource(addr string) *UDPSource {
	return &UDPSource{
		addr: strings.TrimPrefix(addr, "udp://"),
		pool: pool.NewPool(),
	}
}

func (s *UDPSource) Name() string {
	return "udp://" + s.addr
}

func (s *UDPSource) Cyclic() bool {
	return false
}

func (s *UDPSource) Open() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("udp source %s: %v", s.addr, err)
	}
	var conn *net.UDPConn
	if udpAddr.IP != nil && udpAddr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp", nil, udpAddr)
	} else {
		conn, err = net.ListenUDP("udp", udpAddr)
	}
	if err != nil {
		return fmt.Errorf("udp source %s: %v", s.addr, err)
	}
	s.conn = conn
	atomic.StoreInt32(&s.closed, 0)
	log.Info("UDP source listen On ", s.addr)
	return nil
}

func (s *UDPSource) Close() error {
	if s.conn == nil {
		return nil
	}
	atomic.StoreInt32(&s.closed, 1)
	return s.conn.Close()
}

func (s *UDPSource) Receive(pkts []ts.Packet, metadata []ts.Metadata) (int, error) {
	n := 0
	for n == 0 {
		buf := s.pool.Get(maxDatagramPackets * ts.PacketLen)
		size, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if atomic.LoadInt32(&s.closed) == 1 {
				// Closed by terminate, report clean end of input.
				return 0, nil
			}
			return 0, err
		}
		if size%ts.PacketLen != 0 {
			log.Warningf("udp source %s: datagram size %d not a multiple of %d, dropping tail", s.addr, size, ts.PacketLen)
		}
		for off := 0; off+ts.PacketLen <= size && n < len(pkts); off += ts.PacketLen {
			copy(pkts[n][:], buf[off:off+ts.PacketLen])
			n++
		}
	}
	return n, nil
}
