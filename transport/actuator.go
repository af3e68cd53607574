package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	control "vsss-drive/closed_loop/drive_control"
	"vsss-drive/field"
	"vsss-drive/utils"
)

// sendTimeout bounds every actuator write so a stuck peer cannot stall
// the next tick.
const sendTimeout = 20 * time.Millisecond

type wireCommand struct {
	ID    int     `json:"id"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// CommandPacket is the datagram layout of the UDP actuator.
type CommandPacket struct {
	Yellow   bool          `json:"yellow"`
	Commands []wireCommand `json:"commands"`
}

// UDPActuator sends wheel commands to the simulator as JSON datagrams.
type UDPActuator struct {
	conn   *net.UDPConn
	yellow bool
}

func NewUDPActuator(addr string, team field.TeamColor) (*UDPActuator, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("actuator: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("actuator: dial %s: %w", addr, err)
	}
	return &UDPActuator{conn: conn, yellow: team == field.Yellow}, nil
}

// SendCommand writes one robot's command.
func (a *UDPActuator) SendCommand(ctx context.Context, cmd control.WheelCommand) error {
	b, err := json.Marshal(CommandPacket{
		Yellow:   a.yellow,
		Commands: []wireCommand{{ID: cmd.Index, Left: cmd.Left, Right: cmd.Right}},
	})
	if err != nil {
		return err
	}
	deadline := time.Now().Add(sendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = a.conn.SetWriteDeadline(deadline)
	_, err = a.conn.Write(b)
	return err
}

func (a *UDPActuator) Close() error {
	return a.conn.Close()
}

// CANActuator drives physical robots whose motor controllers sit on a CAN
// bus, one wheel command frame per robot.
type CANActuator struct {
	cmap   *utils.CANMap
	writer utils.CANWriter
	prefix string
}

// NewCANActuator checks that cmap describes a wheel frame for every robot.
func NewCANActuator(cmap *utils.CANMap, writer utils.CANWriter, prefix string) (*CANActuator, error) {
	if err := cmap.CheckWheelFrames(prefix, field.NumRobots); err != nil {
		return nil, fmt.Errorf("can actuator: %w", err)
	}
	return &CANActuator{cmap: cmap, writer: writer, prefix: prefix}, nil
}

func (a *CANActuator) SendCommand(ctx context.Context, cmd control.WheelCommand) error {
	frame, err := a.cmap.EncodeWheelFrame(a.prefix, cmd.Index, cmd.Left, cmd.Right)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return a.writer.WriteFrame(ctx, frame)
}

// Stats reports bus counters when the writer keeps them.
func (a *CANActuator) Stats() (utils.BusStats, bool) {
	s, ok := a.writer.(interface{ Stats() utils.BusStats })
	if !ok {
		return utils.BusStats{}, false
	}
	return s.Stats(), true
}

func (a *CANActuator) Close() error {
	return a.writer.Close()
}
