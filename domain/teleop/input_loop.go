package teleop

import (
	"context"
	"math"
	"time"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

const (
	// DefaultDeadzone is the stick deflection below which an axis is idle.
	DefaultDeadzone = 0.2
	// DefaultLoopPeriod is the command cadence.
	DefaultLoopPeriod = 30 * time.Millisecond
	// DefaultErrorLogInterval limits how often send failures are logged.
	DefaultErrorLogInterval = 5 * time.Second
)

// CommandSender is the part of the bridge the input loop drives.
type CommandSender interface {
	Send(x, y, yaw float32) error
}

// LoopConfig configures an InputLoop. Zero fields take the defaults.
type LoopConfig struct {
	Deadzone         float64
	Period           time.Duration
	ErrorLogInterval time.Duration
}

// InputLoop samples the operator axes at a fixed cadence and sends one
// command per tick. While every axis is inside the deadzone it sends the
// stop command, so the robot halts when the operator lets go.
type InputLoop struct {
	sender  CommandSender
	source  AxisSource
	heading *HeadingHold
	logger  customlog.Logger

	deadzone    float64
	period      time.Duration
	errInterval time.Duration
	now         func() time.Time

	lastErrLog time.Time
	suppressed int
	sent       uint64
	failed     uint64
}

// NewInputLoop creates a loop. heading may be nil.
func NewInputLoop(sender CommandSender, source AxisSource, heading *HeadingHold, cfg LoopConfig, logger customlog.Logger) *InputLoop {
	l := &InputLoop{
		sender:      sender,
		source:      source,
		heading:     heading,
		logger:      logger,
		deadzone:    cfg.Deadzone,
		period:      cfg.Period,
		errInterval: cfg.ErrorLogInterval,
		now:         time.Now,
	}
	if l.deadzone <= 0 {
		l.deadzone = DefaultDeadzone
	}
	if l.period <= 0 {
		l.period = DefaultLoopPeriod
	}
	if l.errInterval <= 0 {
		l.errInterval = DefaultErrorLogInterval
	}
	return l
}

// Run ticks until ctx is cancelled. It never returns early on send errors.
func (l *InputLoop) Run(ctx context.Context) {
	l.logger.Infof("Input loop started (period %v, deadzone %.2f)", l.period, l.deadzone)

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	last := l.now()
	for {
		select {
		case <-ctx.Done():
			l.logger.Infof("Input loop stopped after %d commands (%d failed)", l.sent, l.failed)
			return
		case <-ticker.C:
			now := l.now()
			l.step(now.Sub(last))
			last = now
		}
	}
}

// step computes and sends one command.
func (l *InputLoop) step(dt time.Duration) {
	x, y, yaw := l.command(l.source.Axes(), dt)

	if err := l.sender.Send(x, y, yaw); err != nil {
		l.failed++
		l.reportSendError(err)
		return
	}
	l.sent++
}

// command maps the axes to (x, -y, -yaw), or to the stop command when no
// axis leaves the deadzone. An active heading hold replaces the yaw.
func (l *InputLoop) command(axes Axes, dt time.Duration) (x, y, yaw float32) {
	if math.Abs(axes.X) > l.deadzone || math.Abs(axes.Y) > l.deadzone || math.Abs(axes.Yaw) > l.deadzone {
		x, y, yaw = float32(axes.X), float32(-axes.Y), float32(-axes.Yaw)
	}
	if l.heading != nil {
		if correction, ok := l.heading.Correction(dt); ok {
			yaw = correction
		}
	}
	return x, y, yaw
}

func (l *InputLoop) reportSendError(err error) {
	now := l.now()
	if !l.lastErrLog.IsZero() && now.Sub(l.lastErrLog) < l.errInterval {
		l.suppressed++
		return
	}

	if l.suppressed > 0 {
		l.logger.Errorf("Error sending command: %v (%d more since last report)", err, l.suppressed)
	} else {
		l.logger.Errorf("Error sending command: %v", err)
	}
	l.lastErrLog = now
	l.suppressed = 0
}
