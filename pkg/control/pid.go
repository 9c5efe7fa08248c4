// Package control holds the feedback controller used for heading hold.
package control

import (
	"math"
	"time"
)

// PID is a proportional-integral-derivative controller with a symmetric
// output clamp. While the output is saturated the integral only
// accumulates when the error would pull the output back inside the limit.
// A PID is not safe for concurrent use.
type PID struct {
	Kp, Ki, Kd float64
	// OutputLimit bounds |output|. Zero disables the clamp.
	OutputLimit float64

	integral float64
	prevErr  float64
	primed   bool
}

// NewPID returns a controller with the given gains and output limit.
func NewPID(kp, ki, kd, outputLimit float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, OutputLimit: math.Abs(outputLimit)}
}

// Update advances the controller by dt with the current error and returns
// the clamped control output. The first call after Reset has no derivative
// term.
func (p *PID) Update(err float64, dt time.Duration) float64 {
	dts := dt.Seconds()
	if dts < 0 {
		dts = 0
	}

	var derivative float64
	if p.primed && dts > 0 {
		derivative = (err - p.prevErr) / dts
	}
	p.prevErr = err
	p.primed = true

	candidate := p.integral + err*dts
	raw := p.Kp*err + p.Ki*candidate + p.Kd*derivative
	out := p.clamp(raw)

	if out == raw || math.Signbit(err) != math.Signbit(raw) {
		p.integral = candidate
	}
	return out
}

// Reset clears the integral and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.primed = false
}

// Integral exposes the accumulated integral term.
func (p *PID) Integral() float64 {
	return p.integral
}

func (p *PID) clamp(v float64) float64 {
	if p.OutputLimit <= 0 {
		return v
	}
	return math.Max(-p.OutputLimit, math.Min(p.OutputLimit, v))
}
