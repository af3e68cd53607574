package control

// WheelCommand is a left/right wheel speed pair for one robot.
type WheelCommand struct {
	Index int     `json:"index"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// StopCommand zeroes both wheels of robot index.
func StopCommand(index int) WheelCommand {
	return WheelCommand{Index: index}
}

// IsStop reports whether both wheels are at rest.
func (c WheelCommand) IsStop() bool {
	return c.Left == 0 && c.Right == 0
}

// ClampFloat clamps value between min and max
func ClampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
