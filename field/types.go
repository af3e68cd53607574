package field

import (
	"errors"
	"fmt"
	"strings"
)

// NumRobots is the number of robots fielded by each team.
const NumRobots = 3

// ErrNoData is returned by collaborators that have never produced a frame.
var ErrNoData = errors.New("no data")

// Pose2D is a position in centimetres from the bottom-left field corner
// plus a heading in radians, canonicalized to (-π, π].
type Pose2D struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Velocity2D is passed through in whatever units vision reports.
type Velocity2D struct {
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// BallState ignores Pose.Heading.
type BallState struct {
	Pose     Pose2D     `json:"pose"`
	Velocity Velocity2D `json:"velocity"`
}

// Side tells our robots apart from the opponent's.
type Side int

const (
	Ours Side = iota
	Theirs
)

func (s Side) String() string {
	if s == Ours {
		return "ours"
	}
	return "theirs"
}

// RobotState is one robot's pose and motion as seen by vision.
type RobotState struct {
	Side            Side       `json:"side"`
	Index           int        `json:"index"`
	Pose            Pose2D     `json:"pose"`
	Velocity        Velocity2D `json:"velocity"`
	AngularVelocity float64    `json:"angular_velocity"`
}

// TeamColor is the color a team plays under.
type TeamColor int

const (
	Blue TeamColor = iota
	Yellow
)

func (c TeamColor) String() string {
	switch c {
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	default:
		return fmt.Sprintf("TeamColor(%d)", int(c))
	}
}

// ParseTeamColor accepts "blue" or "yellow" in any case.
func ParseTeamColor(s string) (TeamColor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blue":
		return Blue, nil
	case "yellow":
		return Yellow, nil
	default:
		return Blue, fmt.Errorf("unknown team color %q", s)
	}
}

// FieldSnapshot is one tick's view of the field. It is passed by value and
// replaced wholesale every tick.
type FieldSnapshot struct {
	Ball    BallState             `json:"ball"`
	Ours    [NumRobots]RobotState `json:"ours"`
	Theirs  [NumRobots]RobotState `json:"theirs"`
	Referee RefereeStatus         `json:"referee"`
}

// Robot returns the state of robot index on the given side. Out of range
// indices yield a zero state carrying the requested identity.
func (s FieldSnapshot) Robot(side Side, index int) RobotState {
	if index < 0 || index >= NumRobots {
		return RobotState{Side: side, Index: index}
	}
	if side == Ours {
		return s.Ours[index]
	}
	return s.Theirs[index]
}

// Objective is the point a robot should seek this tick, in field
// centimetres.
type Objective struct {
	RobotIndex int     `json:"robot_index"`
	TargetX    float64 `json:"target_x"`
	TargetY    float64 `json:"target_y"`
}
