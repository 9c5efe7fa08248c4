package teleop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/teleop-bridge/domain/tracking"
	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	"github.com/open-teleop/teleop-bridge/pkg/control"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

type sentCommand struct{ X, Y, Yaw float32 }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentCommand
	err  error
}

func (f *fakeSender) Send(x, y, yaw float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCommand{x, y, yaw})
	return nil
}

func (f *fakeSender) Sent() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCommand(nil), f.sent...)
}

type fixedAxes Axes

func (a fixedAxes) Axes() Axes { return Axes(a) }

func TestCommandAppliesDeadzoneAndAxisConvention(t *testing.T) {
	l := NewInputLoop(&fakeSender{}, fixedAxes{}, nil, LoopConfig{}, customlog.NewNopLogger())

	tests := []struct {
		name string
		axes Axes
		want sentCommand
	}{
		{"idle", Axes{}, sentCommand{}},
		{"inside deadzone", Axes{X: 0.1, Y: -0.2, Yaw: 0.15}, sentCommand{}},
		{"forward", Axes{Y: 0.8}, sentCommand{Y: -0.8}},
		{"strafe carries small axes along", Axes{X: 0.5, Y: 0.1, Yaw: 0.05}, sentCommand{X: 0.5, Y: -0.1, Yaw: -0.05}},
		{"turn", Axes{Yaw: -0.3}, sentCommand{Yaw: 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, yaw := l.command(tt.axes, DefaultLoopPeriod)
			assert.InDelta(t, tt.want.X, x, 1e-6)
			assert.InDelta(t, tt.want.Y, y, 1e-6)
			assert.InDelta(t, tt.want.Yaw, yaw, 1e-6)
		})
	}
}

func TestLoopDefaults(t *testing.T) {
	l := NewInputLoop(&fakeSender{}, fixedAxes{}, nil, LoopConfig{}, customlog.NewNopLogger())
	assert.Equal(t, DefaultDeadzone, l.deadzone)
	assert.Equal(t, DefaultLoopPeriod, l.period)
	assert.Equal(t, DefaultErrorLogInterval, l.errInterval)
}

func TestRunSendsEveryTickUntilCancelled(t *testing.T) {
	sender := &fakeSender{}
	l := NewInputLoop(sender, fixedAxes{X: 0.9}, nil, LoopConfig{Period: 5 * time.Millisecond}, customlog.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.Sent()) >= 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	for _, c := range sender.Sent() {
		assert.Equal(t, sentCommand{X: 0.9}, c)
	}
	assert.Equal(t, uint64(len(sender.Sent())), l.sent)
}

func TestSendErrorsAreRateLimitedAndLoopContinues(t *testing.T) {
	var buf bytes.Buffer
	sender := &fakeSender{err: bridge.ErrBridgeClosed}
	l := NewInputLoop(sender, fixedAxes{}, nil, LoopConfig{}, customlog.NewWriterLogger("info", &buf))

	clock := time.Unix(100, 0)
	l.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		l.step(DefaultLoopPeriod)
		clock = clock.Add(DefaultLoopPeriod)
	}
	// 100 ticks of 30ms span 3s: one report.
	assert.Equal(t, 1, strings.Count(buf.String(), "Error sending command"))
	assert.Equal(t, uint64(100), l.failed)

	clock = clock.Add(DefaultErrorLogInterval)
	l.step(DefaultLoopPeriod)
	assert.Equal(t, 2, strings.Count(buf.String(), "Error sending command"))
	assert.Contains(t, buf.String(), "99 more since last report")

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()
	l.step(DefaultLoopPeriod)
	assert.Len(t, sender.Sent(), 1)
}

func TestHeadingHoldReplacesYaw(t *testing.T) {
	poses := tracking.NewPoseService()
	poses.UpdatePose(tracking.Pose{DeviceIndex: 1, DeviceClass: "Tracker"})

	hold := NewHeadingHold(poses, tracking.ClassTracker, control.NewPID(1, 0, 0, 1))
	hold.Set(true, 0.5)

	l := NewInputLoop(&fakeSender{}, fixedAxes{}, hold, LoopConfig{}, customlog.NewNopLogger())

	// Idle sticks still hold heading.
	x, y, yaw := l.command(Axes{}, DefaultLoopPeriod)
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.InDelta(t, 0.5, yaw, 1e-6)

	// Stick yaw is overridden while translation passes through.
	x, _, yaw = l.command(Axes{X: 0.6, Yaw: 0.9}, DefaultLoopPeriod)
	assert.InDelta(t, 0.6, x, 1e-6)
	assert.InDelta(t, 0.5, yaw, 1e-6)

	hold.Set(false, 0)
	_, _, yaw = l.command(Axes{Yaw: 0.9}, DefaultLoopPeriod)
	assert.InDelta(t, -0.9, yaw, 1e-6)
}

func TestLoopKeepsRunningAfterBridgeFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("stream write failed")}
	l := NewInputLoop(sender, fixedAxes{Y: 1}, nil, LoopConfig{Period: 2 * time.Millisecond}, customlog.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	l.Run(ctx)

	assert.Greater(t, l.failed, uint64(1))
	assert.Zero(t, l.sent)
}
