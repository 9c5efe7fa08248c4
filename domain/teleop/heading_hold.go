package teleop

import (
	"sync"
	"time"

	"github.com/open-teleop/teleop-bridge/domain/tracking"
	"github.com/open-teleop/teleop-bridge/pkg/control"
)

// DefaultPoseMaxAge is how old a pose may be before heading hold ignores it.
const DefaultPoseMaxAge = time.Second

// PoseLookup finds the freshest pose of a device class.
type PoseLookup interface {
	Latest(class tracking.DeviceClass) (tracking.TrackedPose, bool)
}

// HeadingState is the externally visible heading-hold configuration.
type HeadingState struct {
	Enabled    bool     `json:"enabled"`
	TargetYaw  float64  `json:"target_yaw"`
	Device     string   `json:"device_class"`
	CurrentYaw *float64 `json:"current_yaw,omitempty"`
}

// HeadingHold turns the yaw of a tracked device into a yaw command that
// steers it back to a target heading.
type HeadingHold struct {
	mu      sync.Mutex
	pid     *control.PID
	poses   PoseLookup
	class   tracking.DeviceClass
	enabled bool
	target  float64
	maxAge  time.Duration
	now     func() time.Time
}

// NewHeadingHold creates a disabled heading hold tracking the given class.
func NewHeadingHold(poses PoseLookup, class tracking.DeviceClass, pid *control.PID) *HeadingHold {
	return &HeadingHold{
		pid:    pid,
		poses:  poses,
		class:  class,
		maxAge: DefaultPoseMaxAge,
		now:    time.Now,
	}
}

// Set enables or disables the hold and sets the target yaw in radians.
// Any change restarts the controller.
func (h *HeadingHold) Set(enabled bool, targetYaw float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enabled = enabled
	h.target = tracking.WrapAngle(targetYaw)
	h.pid.Reset()
}

// State returns the current configuration and, when available, the
// tracked device's yaw.
func (h *HeadingHold) State() HeadingState {
	h.mu.Lock()
	defer h.mu.Unlock()

	state := HeadingState{
		Enabled:   h.enabled,
		TargetYaw: h.target,
		Device:    h.class.String(),
	}
	if pose, ok := h.freshPose(); ok {
		yaw := pose.Yaw
		state.CurrentYaw = &yaw
	}
	return state
}

// Correction returns the yaw command for this tick. ok is false when the
// hold is disabled or no fresh pose of the tracked class exists.
func (h *HeadingHold) Correction(dt time.Duration) (yaw float32, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.enabled {
		return 0, false
	}
	pose, ok := h.freshPose()
	if !ok {
		h.pid.Reset()
		return 0, false
	}

	err := tracking.HeadingError(h.target, pose.Yaw)
	return float32(h.pid.Update(err, dt)), true
}

func (h *HeadingHold) freshPose() (tracking.TrackedPose, bool) {
	pose, ok := h.poses.Latest(h.class)
	if !ok {
		return tracking.TrackedPose{}, false
	}
	if h.maxAge > 0 && h.now().Sub(pose.UpdatedAt) > h.maxAge {
		return tracking.TrackedPose{}, false
	}
	return pose, true
}
