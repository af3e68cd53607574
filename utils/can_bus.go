package utils

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANWriter transmits frames on a bus.
type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// BusStats counts transmit outcomes.
type BusStats struct {
	Sent   uint64
	Failed uint64
}

type busCounters struct {
	sent   atomic.Uint64
	failed atomic.Uint64
}

func (c *busCounters) note(err error) error {
	if err != nil {
		c.failed.Add(1)
		return err
	}
	c.sent.Add(1)
	return nil
}

func (c *busCounters) stats() BusStats {
	return BusStats{Sent: c.sent.Load(), Failed: c.failed.Load()}
}

// SocketCANWriter sends on a Linux SocketCAN interface.
type SocketCANWriter struct {
	iface string
	conn  net.Conn
	tx    *socketcan.Transmitter
	busCounters
}

// NewSocketCANWriter opens a raw CAN socket on iface (e.g. "can0", "vcan0").
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{iface: iface, conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	if err := w.note(w.tx.TransmitFrame(ctx, frame)); err != nil {
		return fmt.Errorf("%s: tx 0x%X: %w", w.iface, frame.ID, err)
	}
	return nil
}

func (w *SocketCANWriter) Stats() BusStats { return w.stats() }

func (w *SocketCANWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}

// LogCANWriter is a bus stand-in for benches without SocketCAN. Each
// frame is written to the log at TRACE.
type LogCANWriter struct {
	log *Logger
	busCounters
}

func NewLogCANWriter(log *Logger) *LogCANWriter {
	return &LogCANWriter{log: log}
}

func (w *LogCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	if err := w.note(ctx.Err()); err != nil {
		return err
	}
	w.log.Trace("can tx id=0x%X data=% X", frame.ID, frame.Data[:frame.Length])
	return nil
}

func (w *LogCANWriter) Stats() BusStats { return w.stats() }

func (w *LogCANWriter) Close() error { return nil }

// OpenCANWriter opens iface, or a LogCANWriter when iface is "log".
func OpenCANWriter(ctx context.Context, iface string, log *Logger) (CANWriter, error) {
	if iface == "log" {
		return NewLogCANWriter(log), nil
	}
	return NewSocketCANWriter(ctx, iface)
}
