package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/ipv4"

	"vsss-drive/utils"
)

// frameStore holds the most recent datagram. The sequence only advances
// when the payload differs from the previous one, so a sender repeating
// the same frame does not look fresh.
type frameStore struct {
	mu   sync.RWMutex
	last []byte
	hash uint64
	seq  uint64
}

// Update stores payload and reports whether it was new.
func (s *frameStore) Update(payload []byte) bool {
	h := xxhash.Sum64(payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq > 0 && h == s.hash {
		return false
	}
	s.last = append(s.last[:0], payload...)
	s.hash = h
	s.seq++
	return true
}

// Snapshot returns a copy of the latest payload and its sequence number;
// ok is false until the first datagram arrives.
func (s *frameStore) Snapshot() (payload []byte, seq uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seq == 0 {
		return nil, 0, false
	}
	return append([]byte(nil), s.last...), s.seq, true
}

// Listener receives datagrams from a multicast group (or a plain unicast
// address) and keeps the latest one.
type Listener struct {
	name    string
	conn    *net.UDPConn
	bufSize int
	log     *utils.Logger
	store   frameStore
}

// Listen binds to cfg.Addr. Multicast group addresses are joined on
// cfg.Iface, or the system default interface when empty.
func Listen(name string, cfg utils.EndpointConfig, log *utils.Logger) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp4", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve %q: %w", name, cfg.Addr, err)
	}

	var conn *net.UDPConn
	if addr.IP.IsMulticast() {
		conn, err = listenMulticast(addr, cfg.Iface)
	} else {
		conn, err = net.ListenUDP("udp4", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: listen %s: %w", name, cfg.Addr, err)
	}

	bufSize := cfg.ReadBuffer
	if bufSize <= 0 {
		bufSize = 2048
	}
	return &Listener{name: name, conn: conn, bufSize: bufSize, log: log}, nil
}

func listenMulticast(group *net.UDPAddr, ifname string) (*net.UDPConn, error) {
	var ifi *net.Interface
	if ifname != "" {
		var err error
		if ifi, err = net.InterfaceByName(ifname); err != nil {
			return nil, err
		}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: group.Port})
	if err != nil {
		return nil, err
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(ifi, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join group %s: %w", group.IP, err)
	}
	// Simulator and client often share a host.
	_ = pc.SetMulticastLoopback(true)
	return conn, nil
}

// LocalAddr is the bound address.
func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Run reads datagrams until ctx is done, then closes the socket.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.conn.Close()
	}()

	l.log.Debug("%s listener started on %s", l.name, l.conn.LocalAddr())
	defer l.log.Debug("%s listener stopped", l.name)

	buf := make([]byte, l.bufSize)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.log.Error("%s read: %v", l.name, err)
			continue
		}
		if l.store.Update(buf[:n]) {
			l.log.Trace("%s frame len=%d", l.name, n)
		}
	}
}

// Latest implements frameSource.
func (l *Listener) Latest() ([]byte, uint64, bool) {
	return l.store.Snapshot()
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

// frameSource is anything holding a latest raw frame.
type frameSource interface {
	Latest() (payload []byte, seq uint64, ok bool)
}
