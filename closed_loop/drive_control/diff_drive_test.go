package control

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsss-drive/field"
)

const eps = 1e-9

func objective(index int, x, y float64) field.Objective {
	return field.Objective{RobotIndex: index, TargetX: x, TargetY: y}
}

func TestDriveStraightAhead(t *testing.T) {
	cfg := DefaultDriveConfig()
	out := Drive(cfg, field.Pose2D{}, objective(0, 1, 0), 0)

	assert.False(t, out.Reversed)
	assert.Equal(t, 0.0, out.Error)
	assert.Equal(t, WheelCommand{Index: 0, Left: 30, Right: 30}, out.Command)
}

func TestDriveTargetBehindReverses(t *testing.T) {
	cfg := DefaultDriveConfig()
	out := Drive(cfg, field.Pose2D{}, objective(0, -1, 0), 0)

	require.True(t, out.Reversed)
	assert.Equal(t, 0.0, out.Error)
	assert.Less(t, out.Command.Left, 0.0)
	assert.Less(t, out.Command.Right, 0.0)
	assert.LessOrEqual(t, math.Abs(out.Command.Left), cfg.BaseSpeed)
	assert.LessOrEqual(t, math.Abs(out.Command.Right), cfg.BaseSpeed)
}

func TestDriveProportionalDerivative(t *testing.T) {
	cfg := DefaultDriveConfig()
	pose := field.Pose2D{Heading: 0.1}

	out := Drive(cfg, pose, objective(1, 100, 0), 0)
	assert.InDelta(t, 0.1, out.Error, eps)
	assert.InDelta(t, 2.0, out.P, eps)
	assert.InDelta(t, 0.25, out.D, eps)
	assert.InDelta(t, 30.0, out.Command.Left, eps)
	assert.InDelta(t, 27.75, out.Command.Right, eps)

	// Same error again: the derivative term vanishes.
	out = Drive(cfg, pose, objective(1, 100, 0), out.Error)
	assert.InDelta(t, 0.0, out.D, eps)
	assert.InDelta(t, 28.0, out.Command.Right, eps)
}

func TestDriveNegativeErrorSlowsLeftWheel(t *testing.T) {
	cfg := DefaultDriveConfig()
	out := Drive(cfg, field.Pose2D{Heading: -0.1}, objective(0, 100, 0), 0)

	assert.InDelta(t, -2.25, out.ErrorSpeed, eps)
	assert.InDelta(t, 27.75, out.Command.Left, eps)
	assert.InDelta(t, 30.0, out.Command.Right, eps)
}

func TestDriveClampsCorrection(t *testing.T) {
	cfg := DefaultDriveConfig()
	out := Drive(cfg, field.Pose2D{Heading: 1.5}, objective(0, 100, 0), 0)

	require.False(t, out.Reversed)
	assert.Equal(t, cfg.BaseSpeed, out.ErrorSpeed)
	assert.InDelta(t, 30.0, out.Command.Left, eps)
	assert.InDelta(t, 0.0, out.Command.Right, eps)
}

func TestDriveReversedMixing(t *testing.T) {
	cfg := DefaultDriveConfig()

	// Target slightly right of the tail: negative correction.
	out := Drive(cfg, field.Pose2D{Heading: math.Pi - 0.3}, objective(0, 100, 0), 0)
	require.True(t, out.Reversed)
	assert.InDelta(t, -0.3, out.Error, 1e-12)
	assert.InDelta(t, -6.75, out.ErrorSpeed, 1e-9)
	assert.InDelta(t, -30.0, out.Command.Left, eps)
	assert.InDelta(t, -23.25, out.Command.Right, 1e-9)

	// Mirror image: positive correction.
	out = Drive(cfg, field.Pose2D{Heading: -(math.Pi - 0.3)}, objective(0, 100, 0), 0)
	require.True(t, out.Reversed)
	assert.InDelta(t, 0.3, out.Error, 1e-12)
	assert.InDelta(t, -23.25, out.Command.Left, 1e-9)
	assert.InDelta(t, -30.0, out.Command.Right, eps)
}

func TestDriveReverseThresholdEdge(t *testing.T) {
	cfg := DefaultDriveConfig()

	// Just inside the threshold keeps driving forward.
	inside := Drive(cfg, field.Pose2D{Heading: cfg.ReverseThreshold - 1e-3}, objective(0, 100, 0), 0)
	assert.False(t, inside.Reversed)

	outside := Drive(cfg, field.Pose2D{Heading: cfg.ReverseThreshold + 1e-3}, objective(0, 100, 0), 0)
	assert.True(t, outside.Reversed)
}

func TestDriveNormalizesHeading(t *testing.T) {
	cfg := DefaultDriveConfig()
	a := Drive(cfg, field.Pose2D{Heading: 0.1}, objective(0, 100, 0), 0)
	b := Drive(cfg, field.Pose2D{Heading: 0.1 + 4*math.Pi}, objective(0, 100, 0), 0)
	assert.InDelta(t, a.Command.Left, b.Command.Left, 1e-9)
	assert.InDelta(t, a.Command.Right, b.Command.Right, 1e-9)
}

func TestDriveOnTargetIsTotal(t *testing.T) {
	cfg := DefaultDriveConfig()
	out := Drive(cfg, field.Pose2D{X: 50, Y: 50}, objective(0, 50, 50), 0)
	assert.Equal(t, WheelCommand{Index: 0, Left: 30, Right: 30}, out.Command)
}

func TestDriveOutputBounds(t *testing.T) {
	cfg := DefaultDriveConfig()
	rng := rand.New(rand.NewPCG(7, 11))
	last := 0.0
	for i := 0; i < 5000; i++ {
		pose := field.Pose2D{
			X:       rng.Float64() * 170,
			Y:       rng.Float64() * 130,
			Heading: (rng.Float64() - 0.5) * 4 * math.Pi,
		}
		obj := objective(0, rng.Float64()*170, rng.Float64()*130)
		out := Drive(cfg, pose, obj, last)
		last = out.Error

		require.LessOrEqual(t, math.Abs(out.Command.Left), cfg.BaseSpeed)
		require.LessOrEqual(t, math.Abs(out.Command.Right), cfg.BaseSpeed)
		require.LessOrEqual(t, math.Abs(out.Error), cfg.ReverseThreshold)
		if out.Reversed {
			require.LessOrEqual(t, out.Command.Left, 0.0)
			require.LessOrEqual(t, out.Command.Right, 0.0)
		} else {
			require.GreaterOrEqual(t, out.Command.Left, 0.0)
			require.GreaterOrEqual(t, out.Command.Right, 0.0)
		}
	}
}

func TestControllerKeepsErrorPerRobot(t *testing.T) {
	c := NewDiffDriveController(DefaultDriveConfig())
	assert.Equal(t, 0.0, c.LastError(0))

	c.Update(field.Pose2D{Heading: 0.1}, objective(0, 100, 0))
	c.Update(field.Pose2D{Heading: -0.2}, objective(2, 100, 0))

	assert.InDelta(t, 0.1, c.LastError(0), eps)
	assert.Equal(t, 0.0, c.LastError(1))
	assert.InDelta(t, -0.2, c.LastError(2), eps)

	// Second step for robot 0 sees its own history only.
	cmd := c.Update(field.Pose2D{Heading: 0.1}, objective(0, 100, 0))
	assert.InDelta(t, 28.0, cmd.Right, eps)
	assert.InDelta(t, 0.0, c.GetDiagnostics(0).D, eps)
	assert.InDelta(t, 2.0, c.GetDiagnostics(0).P, eps)
}

func TestControllerUpdateAllOrder(t *testing.T) {
	c := NewDiffDriveController(DefaultDriveConfig())
	var robots [field.NumRobots]field.RobotState
	for i := range robots {
		robots[i] = field.RobotState{Side: field.Ours, Index: i, Pose: field.Pose2D{X: float64(i * 10)}}
	}
	objs := []field.Objective{objective(2, 100, 0), objective(0, 100, 0), objective(1, 100, 0)}

	cmds := c.UpdateAll(robots, objs)
	require.Len(t, cmds, 3)
	for i, cmd := range cmds {
		assert.Equal(t, i, cmd.Index)
		assert.Equal(t, 30.0, cmd.Left)
		assert.Equal(t, 30.0, cmd.Right)
	}
	assert.Equal(t, 2, objs[0].RobotIndex, "input slice must not be reordered")
}

func TestControllerReset(t *testing.T) {
	c := NewDiffDriveController(DefaultDriveConfig())
	c.Update(field.Pose2D{Heading: 0.4}, objective(1, 100, 0))
	require.NotZero(t, c.LastError(1))

	c.Reset()
	assert.Zero(t, c.LastError(1))
	assert.Equal(t, DriveDiagnostics{Index: 1}, c.GetDiagnostics(1))
}

func TestDriveConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultDriveConfig().Validate())

	cfg := DefaultDriveConfig()
	cfg.BaseSpeed = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultDriveConfig()
	cfg.ReverseThreshold = 4
	assert.Error(t, cfg.Validate())
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, 1.0, ClampFloat(5, -1, 1))
	assert.Equal(t, -1.0, ClampFloat(-5, -1, 1))
	assert.Equal(t, 0.5, ClampFloat(0.5, -1, 1))
	assert.True(t, StopCommand(2).IsStop())
}
