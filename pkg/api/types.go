package api

import (
	"math"

	"github.com/open-teleop/teleop-bridge/domain/teleop"
)

// --- Data Structures for WebSocket Messages ---

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TwistMsg represents a command velocity message, matching geometry_msgs/Twist.
type TwistMsg struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// Axes converts a Twist (x forward, y left, z counter-clockwise) into
// gamepad-style axes, clamped to [-1, 1].
func (t TwistMsg) Axes() teleop.Axes {
	return teleop.Axes{
		X:   clampUnit(-t.Linear.Y),
		Y:   clampUnit(t.Linear.X),
		Yaw: clampUnit(-t.Angular.Z),
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
