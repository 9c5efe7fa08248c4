package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// Config represents the teleop bridge configuration
type Config struct {
	Robot   RobotConfig   `yaml:"robot" json:"robot"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	ZeroMQ  ZeroMQConfig  `yaml:"zeromq" json:"zeromq"`
	Input   InputConfig   `yaml:"input" json:"input"`
	Heading HeadingConfig `yaml:"heading" json:"heading"`
}

// RobotConfig holds the command stream settings
type RobotConfig struct {
	Address          string `yaml:"address" json:"address"`
	QueuePolicy      string `yaml:"queue_policy" json:"queue_policy"`
	SendTimeoutMs    int    `yaml:"send_timeout_ms" json:"send_timeout_ms"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" json:"connect_timeout_ms"`
	JoinTimeoutMs    int    `yaml:"join_timeout_ms" json:"join_timeout_ms"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// ZeroMQConfig holds the pose feed and telemetry endpoints.
// An empty address disables that socket.
type ZeroMQConfig struct {
	PoseAddress      string `yaml:"pose_address" json:"pose_address"`
	PoseTopic        string `yaml:"pose_topic" json:"pose_topic"`
	TelemetryAddress string `yaml:"telemetry_address" json:"telemetry_address"`
}

// InputConfig holds the input loop settings
type InputConfig struct {
	Deadzone           float64 `yaml:"deadzone" json:"deadzone"`
	LoopPeriodMs       int     `yaml:"loop_period_ms" json:"loop_period_ms"`
	TrackedDeviceClass string  `yaml:"tracked_device_class" json:"tracked_device_class"`
}

// HeadingConfig holds the heading-hold PID gains
type HeadingConfig struct {
	Kp          float64 `yaml:"kp" json:"kp"`
	Ki          float64 `yaml:"ki" json:"ki"`
	Kd          float64 `yaml:"kd" json:"kd"`
	OutputLimit float64 `yaml:"output_limit" json:"output_limit"`
}

// DefaultConfig returns the configuration used for any field the file omits.
func DefaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			Address:          "http://localhost:5001",
			QueuePolicy:      bridge.PolicyBlock.String(),
			ConnectTimeoutMs: int(bridge.DefaultConnectTimeout / time.Millisecond),
			JoinTimeoutMs:    int(bridge.DefaultJoinTimeout / time.Millisecond),
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{HTTPPort: 8080},
		ZeroMQ:  ZeroMQConfig{PoseTopic: "tracking/pose"},
		Input: InputConfig{
			Deadzone:           0.2,
			LoopPeriodMs:       30,
			TrackedDeviceClass: "Tracker",
		},
		Heading: HeadingConfig{Kp: 1.0, Kd: 0.1, OutputLimit: 1.0},
	}
}

// LoadConfig loads configuration from the specified file path
// and applies environment variable overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return config, nil
}

// ApplyEnv overrides fields from ROBOT_ADDRESS, PORT and LOG_LEVEL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ROBOT_ADDRESS"); ok && v != "" {
		c.Robot.Address = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.HTTPPort = port
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the fields the bridge cannot run without.
func (c *Config) Validate() error {
	if c.Robot.Address == "" {
		return fmt.Errorf("missing required field: robot.address")
	}
	if _, err := bridge.ParseQueuePolicy(c.Robot.QueuePolicy); err != nil {
		return fmt.Errorf("robot.queue_policy: %w", err)
	}
	if c.Robot.SendTimeoutMs < 0 || c.Robot.ConnectTimeoutMs < 0 || c.Robot.JoinTimeoutMs < 0 {
		return fmt.Errorf("robot timeouts must not be negative")
	}
	if c.Input.Deadzone < 0 || c.Input.Deadzone >= 1 {
		return fmt.Errorf("input.deadzone must be in [0, 1), got %v", c.Input.Deadzone)
	}
	if c.Input.LoopPeriodMs <= 0 {
		return fmt.Errorf("input.loop_period_ms must be positive, got %d", c.Input.LoopPeriodMs)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Heading.OutputLimit < 0 {
		return fmt.Errorf("heading.output_limit must not be negative")
	}
	return nil
}

// LoopPeriod returns the input loop cadence.
func (c *Config) LoopPeriod() time.Duration {
	return time.Duration(c.Input.LoopPeriodMs) * time.Millisecond
}

// BridgeOptions maps the robot section onto bridge options.
func (c *Config) BridgeOptions(logger customlog.Logger) ([]bridge.Option, error) {
	policy, err := bridge.ParseQueuePolicy(c.Robot.QueuePolicy)
	if err != nil {
		return nil, err
	}
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	return []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithQueuePolicy(policy),
		bridge.WithSendTimeout(ms(c.Robot.SendTimeoutMs)),
		bridge.WithConnectTimeout(ms(c.Robot.ConnectTimeoutMs)),
		bridge.WithJoinTimeout(ms(c.Robot.JoinTimeoutMs)),
	}, nil
}
