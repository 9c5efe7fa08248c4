package tracking

import "math"

// Yaw returns the rotation about the vertical axis in radians, in the
// Y-up frame the tracking system reports. An identity rotation is 0.
func (q Quaternion) Yaw() float64 {
	if q.IsIdentity {
		return 0
	}
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)
	return math.Atan2(2*(w*y+x*z), 1-2*(x*x+y*y))
}

// WrapAngle maps an angle onto [-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// HeadingError is the shortest signed rotation from current to target.
func HeadingError(target, current float64) float64 {
	return WrapAngle(target - current)
}
