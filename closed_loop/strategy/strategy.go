package strategy

import "vsss-drive/field"

// Assigner picks one objective per controlled robot from a snapshot.
// Implementations must return exactly field.NumRobots objectives, one per
// robot index, and must not fail.
type Assigner interface {
	Assign(snap field.FieldSnapshot) []field.Objective
}

// AssignerFunc adapts a plain function to Assigner.
type AssignerFunc func(snap field.FieldSnapshot) []field.Objective

func (f AssignerFunc) Assign(snap field.FieldSnapshot) []field.Objective {
	return f(snap)
}

// ChaseBall sends every robot to the ball.
type ChaseBall struct{}

// Assign targets the ball's current position for all robots. A snapshot
// without a ball reading carries (0, 0), which is passed on as is.
func (ChaseBall) Assign(snap field.FieldSnapshot) []field.Objective {
	objectives := make([]field.Objective, field.NumRobots)
	for i := range objectives {
		objectives[i] = field.Objective{
			RobotIndex: i,
			TargetX:    snap.Ball.Pose.X,
			TargetY:    snap.Ball.Pose.Y,
		}
	}
	return objectives
}

// Complete repairs an assigner's output so it holds exactly one objective
// per robot index in order. Missing robots are told to hold position at
// their current pose; duplicates keep the first entry.
func Complete(snap field.FieldSnapshot, objectives []field.Objective) []field.Objective {
	out := make([]field.Objective, field.NumRobots)
	seen := make([]bool, field.NumRobots)
	for _, obj := range objectives {
		if obj.RobotIndex < 0 || obj.RobotIndex >= field.NumRobots || seen[obj.RobotIndex] {
			continue
		}
		out[obj.RobotIndex] = obj
		seen[obj.RobotIndex] = true
	}
	for i := range out {
		if !seen[i] {
			pose := snap.Ours[i].Pose
			out[i] = field.Objective{RobotIndex: i, TargetX: pose.X, TargetY: pose.Y}
		}
	}
	return out
}
