package field

import (
	"bytes"
	"encoding/json"
	"math"
)

// Half dimensions of the playing field in metres.
const (
	FieldHalfLength = 1.7 / 2.0
	FieldHalfWidth  = 1.3 / 2.0
)

const twoPi = 2 * math.Pi

// Raw is a numeric reading that may be missing from a vision frame.
// The zero value is absent.
type Raw struct {
	Value float64
	Valid bool
}

// Some wraps a present reading.
func Some(v float64) Raw {
	return Raw{Value: v, Valid: true}
}

// Get returns the reading and whether it is usable. Non-finite values
// count as absent.
func (r Raw) Get() (float64, bool) {
	if !r.Valid || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return 0, false
	}
	return r.Value, true
}

// UnmarshalJSON treats null as absent.
func (r *Raw) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = Raw{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Some(v)
	return nil
}

// MarshalJSON writes absent readings as null.
func (r Raw) MarshalJSON() ([]byte, error) {
	v, ok := r.Get()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// ToFieldX converts a centered x in metres to centimetres from the left
// goal line. Absent readings convert to 0.
func ToFieldX(raw Raw) float64 {
	v, ok := raw.Get()
	if !ok {
		return 0
	}
	return (FieldHalfLength + v) * 100
}

// ToFieldY converts a centered y in metres to centimetres from the bottom
// touch line. Absent readings convert to 0.
func ToFieldY(raw Raw) float64 {
	v, ok := raw.Get()
	if !ok {
		return 0
	}
	return (FieldHalfWidth + v) * 100
}

// ToHeading normalizes a raw orientation; absent readings yield 0.
func ToHeading(raw Raw) float64 {
	v, ok := raw.Get()
	if !ok {
		return 0
	}
	return NormalizeAngle(v)
}

// NormalizeAngle folds a into (-π, π]. Non-finite input yields 0.
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	angle := math.Mod(a, twoPi)
	if angle <= -math.Pi {
		return angle + twoPi
	}
	if angle > math.Pi {
		return angle - twoPi
	}
	return angle
}

// SignedAngleDiff returns the value in (-π, π] congruent to target-source
// modulo 2π. It is the heading error used by the drive controller.
func SignedAngleDiff(target, source float64) float64 {
	if math.IsNaN(target) || math.IsInf(target, 0) || math.IsNaN(source) || math.IsInf(source, 0) {
		return 0
	}
	a := wrapPositive(target) - wrapPositive(source)
	if a > math.Pi {
		a -= twoPi
	} else if a <= -math.Pi {
		a += twoPi
	}
	return a
}

// wrapPositive reduces a into [0, 2π).
func wrapPositive(a float64) float64 {
	m := math.Mod(a, twoPi)
	if m < 0 {
		m += twoPi
	}
	if m >= twoPi {
		m -= twoPi
	}
	return m
}
