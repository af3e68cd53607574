package field

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestToFieldCoordinates(t *testing.T) {
	assert.InDelta(t, 85.0, ToFieldX(Some(0)), eps)
	assert.InDelta(t, 65.0, ToFieldY(Some(0)), eps)
	assert.InDelta(t, 0.0, ToFieldX(Some(-0.85)), eps)
	assert.InDelta(t, 170.0, ToFieldX(Some(0.85)), eps)
	assert.InDelta(t, 130.0, ToFieldY(Some(0.65)), eps)
	assert.InDelta(t, 95.0, ToFieldX(Some(0.1)), eps)
}

func TestToFieldAbsentIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ToFieldX(Raw{}))
	assert.Equal(t, 0.0, ToFieldY(Raw{}))
	assert.Equal(t, 0.0, ToHeading(Raw{}))
	assert.Equal(t, 0.0, ToFieldX(Some(math.NaN())))
	assert.Equal(t, 0.0, ToFieldY(Some(math.Inf(1))))
	assert.Equal(t, 0.0, NormalizeAngle(math.NaN()))
	assert.Equal(t, 0.0, SignedAngleDiff(math.NaN(), 1))
}

func TestRawJSON(t *testing.T) {
	var frame struct {
		X Raw `json:"x"`
		Y Raw `json:"y"`
		Z Raw `json:"z"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"x": 0.25, "y": null}`), &frame))

	x, ok := frame.X.Get()
	require.True(t, ok)
	assert.Equal(t, 0.25, x)
	_, ok = frame.Y.Get()
	assert.False(t, ok)
	_, ok = frame.Z.Get()
	assert.False(t, ok)

	b, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0.25,"y":null,"z":null}`, string(b))
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{math.Pi / 2, math.Pi / 2},
		{-math.Pi / 2, -math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{7, 7 - 2*math.Pi},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), eps, "NormalizeAngle(%v)", c.in)
	}
}

func TestNormalizeAngleIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		a := (rng.Float64() - 0.5) * 40 * math.Pi
		n := NormalizeAngle(a)
		require.Greater(t, n, -math.Pi)
		require.LessOrEqual(t, n, math.Pi)
		require.Equal(t, n, NormalizeAngle(n), "angle %v", a)
	}
}

func TestSignedAngleDiffSelfIsZero(t *testing.T) {
	for _, a := range []float64{0, 1, -1, math.Pi, -math.Pi, 2 * math.Pi, 100, -100} {
		assert.Equal(t, 0.0, SignedAngleDiff(a, a), "angle %v", a)
	}
}

func TestSignedAngleDiffBoundary(t *testing.T) {
	assert.InDelta(t, math.Pi, SignedAngleDiff(0, math.Pi), eps)
	assert.InDelta(t, math.Pi, SignedAngleDiff(math.Pi, 0), eps)
	assert.InDelta(t, math.Pi, SignedAngleDiff(-math.Pi/2, math.Pi/2), eps)
	assert.InDelta(t, math.Pi, SignedAngleDiff(math.Pi/2, -math.Pi/2), eps)

	nudge := 1e-6
	assert.InDelta(t, -math.Pi+nudge, SignedAngleDiff(0, math.Pi-nudge), 1e-9)
	assert.InDelta(t, math.Pi-nudge, SignedAngleDiff(0, -math.Pi+nudge), 1e-9)
	assert.InDelta(t, -0.2, SignedAngleDiff(math.Pi-0.1, -math.Pi+0.1), 1e-9)
	assert.InDelta(t, 0.2, SignedAngleDiff(-math.Pi+0.1, math.Pi-0.1), 1e-9)
}

func TestSignedAngleDiffRangeAndCongruence(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 20000; i++ {
		target := (rng.Float64() - 0.5) * 40 * math.Pi
		source := (rng.Float64() - 0.5) * 40 * math.Pi
		d := SignedAngleDiff(target, source)

		require.Greater(t, d, -math.Pi, "target=%v source=%v", target, source)
		require.LessOrEqual(t, d, math.Pi, "target=%v source=%v", target, source)

		// source + d lands on target modulo 2π.
		residual := math.Mod(source+d-target, 2*math.Pi)
		if residual > math.Pi {
			residual -= 2 * math.Pi
		} else if residual < -math.Pi {
			residual += 2 * math.Pi
		}
		require.InDelta(t, 0, residual, 1e-9, "target=%v source=%v", target, source)
	}
}
