package teleop

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// Axes are normalized stick deflections, each in [-1, 1]. Y is forward
// positive and Yaw is clockwise positive, as a gamepad reports them.
type Axes struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

// AxisSource supplies the latest operator axes to the input loop.
type AxisSource interface {
	Axes() Axes
}

// StatsSource reports the command stream state.
type StatsSource interface {
	Stats() bridge.Stats
}

// HeadingRequest is the body of a heading-hold update.
type HeadingRequest struct {
	Enabled   bool    `json:"enabled"`
	TargetYaw float64 `json:"target_yaw"`
}

// TeleopService holds the operator's manual axes and exposes them over HTTP
type TeleopService struct {
	mu        sync.RWMutex
	axes      Axes
	updatedAt time.Time
	updates   uint64

	stats   StatsSource
	heading *HeadingHold
	logger  customlog.Logger
}

// NewTeleopService creates a new teleop service instance. heading may be
// nil when heading hold is not available.
func NewTeleopService(stats StatsSource, heading *HeadingHold, logger customlog.Logger) *TeleopService {
	return &TeleopService{
		stats:   stats,
		heading: heading,
		logger:  logger,
	}
}

// Axes returns the current manual axes
func (s *TeleopService) Axes() Axes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.axes
}

// SetAxes validates and stores new manual axes
func (s *TeleopService) SetAxes(axes Axes) error {
	if err := ValidateAxes(axes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.axes = axes
	s.updatedAt = time.Now()
	s.updates++
	return nil
}

// Heading returns the heading-hold controller, possibly nil.
func (s *TeleopService) Heading() *HeadingHold {
	return s.heading
}

// ValidateAxes checks that every axis is a finite value in [-1, 1]
func ValidateAxes(axes Axes) error {
	for _, a := range []struct {
		name string
		v    float64
	}{{"x", axes.X}, {"y", axes.Y}, {"yaw", axes.Yaw}} {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) || a.v < -1 || a.v > 1 {
			return fmt.Errorf("axis %s out of range [-1, 1]: %v", a.name, a.v)
		}
	}
	return nil
}

// CommandHandler processes incoming manual axis commands
func (s *TeleopService) CommandHandler(c *fiber.Ctx) error {
	var axes Axes
	if err := c.BodyParser(&axes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.SetAxes(axes); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "command received",
		"command": axes,
	})
}

// StopHandler zeroes the manual axes
func (s *TeleopService) StopHandler(c *fiber.Ctx) error {
	_ = s.SetAxes(Axes{})
	s.logger.Infof("Manual stop requested")

	return c.JSON(fiber.Map{
		"status":  "stopped",
		"command": Axes{},
	})
}

// StatusHandler reports the stream state, the manual axes and heading hold
func (s *TeleopService) StatusHandler(c *fiber.Ctx) error {
	s.mu.RLock()
	axes, updatedAt, updates := s.axes, s.updatedAt, s.updates
	s.mu.RUnlock()

	resp := fiber.Map{
		"status": "success",
		"axes":   axes,
		"input": fiber.Map{
			"updates":    updates,
			"updated_at": updatedAt,
		},
	}
	if s.stats != nil {
		resp["bridge"] = s.stats.Stats()
	}
	if s.heading != nil {
		resp["heading"] = s.heading.State()
	}
	return c.JSON(resp)
}

// HeadingHandler enables or disables heading hold
func (s *TeleopService) HeadingHandler(c *fiber.Ctx) error {
	if s.heading == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "heading hold is not available",
		})
	}

	var req HeadingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if math.IsNaN(req.TargetYaw) || math.IsInf(req.TargetYaw, 0) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "target_yaw must be finite",
		})
	}

	s.heading.Set(req.Enabled, req.TargetYaw)
	s.logger.Infof("Heading hold enabled=%t target=%.3f rad", req.Enabled, req.TargetYaw)

	return c.JSON(fiber.Map{
		"status":  "success",
		"heading": s.heading.State(),
	})
}
