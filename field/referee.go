package field

import "fmt"

// InterruptType is the referee command in force. Values match the
// referee wire encoding.
type InterruptType int

const (
	FreeKick InterruptType = iota
	PenaltyKick
	GoalKick
	FreeBall
	Kickoff
	Stop
	GameOn
	Halt
)

func (t InterruptType) String() string {
	switch t {
	case FreeKick:
		return "FREE_KICK"
	case PenaltyKick:
		return "PENALTY_KICK"
	case GoalKick:
		return "GOAL_KICK"
	case FreeBall:
		return "FREE_BALL"
	case Kickoff:
		return "KICKOFF"
	case Stop:
		return "STOP"
	case GameOn:
		return "GAME_ON"
	case Halt:
		return "HALT"
	default:
		return fmt.Sprintf("InterruptType(%d)", int(t))
	}
}

// FoulColor is the team the interrupt was called against.
type FoulColor int

const (
	FoulBlue FoulColor = iota
	FoulYellow
	FoulNone
)

func (c FoulColor) String() string {
	switch c {
	case FoulBlue:
		return "BLUE"
	case FoulYellow:
		return "YELLOW"
	case FoulNone:
		return "NONE"
	default:
		return fmt.Sprintf("FoulColor(%d)", int(c))
	}
}

// Quadrant is the field quadrant a foul happened in.
type Quadrant int

const (
	NoQuadrant Quadrant = iota
	Quadrant1
	Quadrant2
	Quadrant3
	Quadrant4
)

// RefereeStatus is the referee state for one tick. GameOn always equals
// Interrupt == GameOn; build values with NewRefereeStatus.
type RefereeStatus struct {
	GameOn    bool          `json:"game_on"`
	Interrupt InterruptType `json:"interrupt"`
	FoulColor FoulColor     `json:"foul_color"`
	Quadrant  Quadrant      `json:"quadrant"`
}

// NewRefereeStatus derives GameOn from the interrupt type. Unknown colors
// and quadrants collapse to FoulNone and NoQuadrant.
func NewRefereeStatus(interrupt InterruptType, color FoulColor, quadrant Quadrant) RefereeStatus {
	if color < FoulBlue || color > FoulNone {
		color = FoulNone
	}
	if quadrant < NoQuadrant || quadrant > Quadrant4 {
		quadrant = NoQuadrant
	}
	return RefereeStatus{
		GameOn:    interrupt == GameOn,
		Interrupt: interrupt,
		FoulColor: color,
		Quadrant:  quadrant,
	}
}

// StoppedStatus is what the match loop assumes when the referee is silent.
func StoppedStatus() RefereeStatus {
	return NewRefereeStatus(Stop, FoulNone, NoQuadrant)
}

// IsHalt reports whether the referee halted the game.
func (r RefereeStatus) IsHalt() bool {
	return r.Interrupt == Halt
}

// FoulIsOurs reports whether the interrupt was called against team.
func (r RefereeStatus) FoulIsOurs(team TeamColor) bool {
	switch r.FoulColor {
	case FoulBlue:
		return team == Blue
	case FoulYellow:
		return team == Yellow
	default:
		return false
	}
}
