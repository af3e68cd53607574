package match

import (
	"fmt"

	"vsss-drive/field"
)

// Phase is the match loop state derived from the referee every tick.
type Phase int

const (
	Running Phase = iota
	Stopped       // any interrupt other than GAME_ON and HALT
	Halted
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "RUNNING"
	case Stopped:
		return "STOPPED"
	case Halted:
		return "HALTED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PhaseOf maps a referee status onto a phase. There is no memory: the
// same status always yields the same phase.
func PhaseOf(st field.RefereeStatus) Phase {
	switch {
	case st.GameOn:
		return Running
	case st.IsHalt():
		return Halted
	default:
		return Stopped
	}
}
