package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"vsss-drive/field"
)

// Placement teleports one robot, in the simulator's raw frame (metres,
// radians, field centre origin). The tags are the replacer wire layout.
type Placement struct {
	Index int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// PlacementPacket is the datagram layout of the replacer.
type PlacementPacket struct {
	Yellow bool        `json:"yellow"`
	Robots []Placement `json:"robots"`
}

// UDPReplacer batches placements and sends them as one frame.
type UDPReplacer struct {
	conn    *net.UDPConn
	yellow  bool
	pending []Placement
}

func NewUDPReplacer(addr string, team field.TeamColor) (*UDPReplacer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("replacer: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("replacer: dial %s: %w", addr, err)
	}
	return &UDPReplacer{conn: conn, yellow: team == field.Yellow}, nil
}

// Place queues a placement for the next Flush.
func (r *UDPReplacer) Place(index int, x, y, angle float64) {
	r.pending = append(r.pending, Placement{Index: index, X: x, Y: y, Angle: angle})
}

// Flush sends everything queued since the last flush. An empty queue
// sends nothing.
func (r *UDPReplacer) Flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	b, err := json.Marshal(PlacementPacket{Yellow: r.yellow, Robots: r.pending})
	if err != nil {
		return err
	}
	r.pending = r.pending[:0]

	deadline := time.Now().Add(sendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = r.conn.SetWriteDeadline(deadline)
	_, err = r.conn.Write(b)
	return err
}

// PlaceAll queues every placement and flushes them as one frame.
func (r *UDPReplacer) PlaceAll(ctx context.Context, placements []Placement) error {
	for _, p := range placements {
		r.Place(p.Index, p.X, p.Y, p.Angle)
	}
	return r.Flush(ctx)
}

func (r *UDPReplacer) Close() error {
	return r.conn.Close()
}
