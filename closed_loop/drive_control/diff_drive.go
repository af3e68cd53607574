package control

import (
	"math"
	"sort"

	"vsss-drive/field"
)

// DriveOutput is the result of one controller step for one robot.
type DriveOutput struct {
	Command    WheelCommand
	Error      float64 // heading error after the reverse policy
	ErrorSpeed float64 // clamped correction
	P          float64
	D          float64
	Reversed   bool
}

// Drive computes the wheel command steering pose toward obj. lastError is
// the heading error this robot had on the previous tick; the new error to
// carry forward is returned in DriveOutput.Error.
//
// The derivative term is per call, not per second: the match loop runs at
// a fixed cycle and Kd is tuned for it.
func Drive(cfg DriveConfig, pose field.Pose2D, obj field.Objective, lastError float64) DriveOutput {
	heading := field.NormalizeAngle(pose.Heading)
	angleToTarget := math.Atan2(obj.TargetY-pose.Y, obj.TargetX-pose.X)
	if math.IsNaN(angleToTarget) {
		angleToTarget = 0
	}

	reversed := false
	err := field.SignedAngleDiff(heading, angleToTarget)
	if math.Abs(err) > cfg.ReverseThreshold {
		reversed = true
		heading = field.NormalizeAngle(heading + math.Pi)
		err = field.SignedAngleDiff(heading, angleToTarget)
	}

	p := cfg.Kp * err
	d := cfg.Kd * (err - lastError)
	errorSpeed := ClampFloat(p+d, -cfg.BaseSpeed, cfg.BaseSpeed)

	cmd := WheelCommand{Index: obj.RobotIndex}
	switch {
	case reversed && errorSpeed > 0:
		cmd.Left = -cfg.BaseSpeed + errorSpeed
		cmd.Right = -cfg.BaseSpeed
	case reversed:
		cmd.Left = -cfg.BaseSpeed
		cmd.Right = -cfg.BaseSpeed - errorSpeed
	case errorSpeed >= 0:
		cmd.Left = cfg.BaseSpeed
		cmd.Right = cfg.BaseSpeed - errorSpeed
	default:
		cmd.Left = cfg.BaseSpeed + errorSpeed
		cmd.Right = cfg.BaseSpeed
	}

	return DriveOutput{
		Command:    cmd,
		Error:      err,
		ErrorSpeed: errorSpeed,
		P:          p,
		D:          d,
		Reversed:   reversed,
	}
}

// DiffDriveController steers each of our robots toward its objective and
// remembers every robot's last heading error for the derivative term.
type DiffDriveController struct {
	cfg DriveConfig

	// State, keyed by robot index
	lastError map[int]float64
	last      map[int]DriveOutput
}

// NewDiffDriveController creates a controller with no history.
func NewDiffDriveController(cfg DriveConfig) *DiffDriveController {
	return &DiffDriveController{
		cfg:       cfg,
		lastError: make(map[int]float64),
		last:      make(map[int]DriveOutput),
	}
}

// Config returns the gains in use.
func (c *DiffDriveController) Config() DriveConfig {
	return c.cfg
}

// Update runs one step for the robot named by obj.RobotIndex.
func (c *DiffDriveController) Update(pose field.Pose2D, obj field.Objective) WheelCommand {
	out := Drive(c.cfg, pose, obj, c.lastError[obj.RobotIndex])
	c.lastError[obj.RobotIndex] = out.Error
	c.last[obj.RobotIndex] = out
	return out.Command
}

// UpdateAll steps every objective in ascending robot index order, taking
// poses from robots.
func (c *DiffDriveController) UpdateAll(robots [field.NumRobots]field.RobotState, objectives []field.Objective) []WheelCommand {
	ordered := make([]field.Objective, len(objectives))
	copy(ordered, objectives)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RobotIndex < ordered[j].RobotIndex })

	cmds := make([]WheelCommand, 0, len(ordered))
	for _, obj := range ordered {
		var pose field.Pose2D
		if obj.RobotIndex >= 0 && obj.RobotIndex < field.NumRobots {
			pose = robots[obj.RobotIndex].Pose
		}
		cmds = append(cmds, c.Update(pose, obj))
	}
	return cmds
}

// LastError returns the heading error remembered for index, 0 if the
// robot has never been driven.
func (c *DiffDriveController) LastError(index int) float64 {
	return c.lastError[index]
}

// Reset forgets all history. The match loop never calls it; stoppages
// keep the derivative memory.
func (c *DiffDriveController) Reset() {
	c.lastError = make(map[int]float64)
	c.last = make(map[int]DriveOutput)
}

// DriveDiagnostics contains controller internals for monitoring
type DriveDiagnostics struct {
	Index      int
	Error      float64
	ErrorSpeed float64
	P          float64
	D          float64
	Reversed   bool
}

// GetDiagnostics returns the most recent step for index.
func (c *DiffDriveController) GetDiagnostics(index int) DriveDiagnostics {
	out := c.last[index]
	return DriveDiagnostics{
		Index:      index,
		Error:      out.Error,
		ErrorSpeed: out.ErrorSpeed,
		P:          out.P,
		D:          out.D,
		Reversed:   out.Reversed,
	}
}
