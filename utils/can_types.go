package utils

import (
	"fmt"
	"sort"
)

type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string // only "little" supported
}

type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string
	CycleMS   int
	Signals   []SignalDef
}

// CANMap indexes the frames of a robot CAN bus by id and by name.
type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Signal names carried by every wheel command frame.
const (
	SignalLeftSpeed  = "left_speed"
	SignalRightSpeed = "right_speed"
)

// WheelFrameName is the frame commanding robot index, e.g. WHEEL_CMD_0.
func WheelFrameName(prefix string, index int) string {
	return fmt.Sprintf("%s%d", prefix, index)
}

// CheckWheelFrames verifies the map carries a wheel frame with both speed
// signals for every index below n.
func (m *CANMap) CheckWheelFrames(prefix string, n int) error {
	for i := 0; i < n; i++ {
		fd, err := m.FrameByName(WheelFrameName(prefix, i))
		if err != nil {
			return err
		}
		for _, want := range []string{SignalLeftSpeed, SignalRightSpeed} {
			if _, ok := fd.Signal(want); !ok {
				return fmt.Errorf("frame %s lacks signal %q", fd.Name, want)
			}
		}
	}
	return nil
}

// Signal looks up a signal by name.
func (fd *FrameDef) Signal(name string) (SignalDef, bool) {
	for _, s := range fd.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalDef{}, false
}
