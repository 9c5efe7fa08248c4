package tracking

import (
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TrackedPose is a pose together with the time it was received.
type TrackedPose struct {
	Pose
	ClassName string    `json:"class"`
	Yaw       float64   `json:"yaw"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PoseService keeps the latest pose of every tracked device
type PoseService struct {
	mu    sync.RWMutex
	poses map[int32]TrackedPose
	now   func() time.Time
}

// NewPoseService creates an empty pose store
func NewPoseService() *PoseService {
	return &PoseService{
		poses: make(map[int32]TrackedPose),
		now:   time.Now,
	}
}

// UpdatePose replaces the stored pose for the device index
func (s *PoseService) UpdatePose(pose Pose) {
	tracked := TrackedPose{
		Pose:      pose,
		ClassName: pose.Class().String(),
		Yaw:       pose.Rotation.Yaw(),
		UpdatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.poses[pose.DeviceIndex] = tracked
}

// GetPoses returns every stored pose ordered by device index
func (s *PoseService) GetPoses() []TrackedPose {
	s.mu.RLock()
	defer s.mu.RUnlock()

	poses := make([]TrackedPose, 0, len(s.poses))
	for _, p := range s.poses {
		poses = append(poses, p)
	}
	sort.Slice(poses, func(i, j int) bool { return poses[i].DeviceIndex < poses[j].DeviceIndex })
	return poses
}

// Latest returns the most recently updated pose of the given class.
func (s *PoseService) Latest(class DeviceClass) (TrackedPose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  TrackedPose
		found bool
	)
	for _, p := range s.poses {
		if p.Class() != class {
			continue
		}
		if !found || p.UpdatedAt.After(best.UpdatedAt) ||
			(p.UpdatedAt.Equal(best.UpdatedAt) && p.DeviceIndex < best.DeviceIndex) {
			best, found = p, true
		}
	}
	return best, found
}

// GetPosesHandler handles API requests for the tracked poses
func (s *PoseService) GetPosesHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"poses":  s.GetPoses(),
	})
}
