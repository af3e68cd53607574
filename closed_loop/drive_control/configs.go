package control

import (
	"fmt"
	"math"
)

// DriveConfig holds the heading controller gains.
type DriveConfig struct {
	Kp        float64 `json:"kp" yaml:"kp"`
	Kd        float64 `json:"kd" yaml:"kd"`
	BaseSpeed float64 `json:"base_speed" yaml:"base_speed"`

	// ReverseThreshold is the heading error (radians) beyond which the
	// robot drives tail first.
	ReverseThreshold float64 `json:"reverse_threshold" yaml:"reverse_threshold"`
}

// DefaultDriveConfig returns the tuning used on the competition robots.
func DefaultDriveConfig() DriveConfig {
	return DriveConfig{
		Kp:               20,
		Kd:               2.5,
		BaseSpeed:        30,
		ReverseThreshold: math.Pi/2.0 + math.Pi/20.0,
	}
}

// Validate rejects configurations the mixer cannot work with.
func (c DriveConfig) Validate() error {
	if c.BaseSpeed <= 0 {
		return fmt.Errorf("invalid base_speed: %f", c.BaseSpeed)
	}
	if c.ReverseThreshold <= 0 || c.ReverseThreshold > math.Pi {
		return fmt.Errorf("invalid reverse_threshold: %f", c.ReverseThreshold)
	}
	return nil
}
