package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFilename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ROBOT_ADDRESS", "PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	configContent := `
robot:
  address: "http://10.0.0.7:5001"
  queue_policy: "drop-oldest"
  send_timeout_ms: 250
  join_timeout_ms: 2000

logging:
  level: "debug"

server:
  http_port: 9090

zeromq:
  pose_address: "tcp://localhost:5560"
  telemetry_address: "tcp://*:5561"

input:
  deadzone: 0.15
  tracked_device_class: "HMD"

heading:
  kp: 2.5
  ki: 0.1
`
	configPath := writeConfig(t, t.TempDir(), configContent)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Robot.Address != "http://10.0.0.7:5001" {
		t.Errorf("Expected robot address 'http://10.0.0.7:5001', got '%s'", config.Robot.Address)
	}
	if config.Robot.QueuePolicy != "drop-oldest" {
		t.Errorf("Expected queue policy 'drop-oldest', got '%s'", config.Robot.QueuePolicy)
	}
	if config.Robot.SendTimeoutMs != 250 {
		t.Errorf("Expected send timeout 250, got %d", config.Robot.SendTimeoutMs)
	}
	// Omitted fields keep their defaults.
	if config.Robot.ConnectTimeoutMs != 5000 {
		t.Errorf("Expected default connect timeout 5000, got %d", config.Robot.ConnectTimeoutMs)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", config.Logging.Level)
	}
	if config.Server.HTTPPort != 9090 {
		t.Errorf("Expected HTTP port 9090, got %d", config.Server.HTTPPort)
	}
	if config.ZeroMQ.PoseTopic != "tracking/pose" {
		t.Errorf("Expected default pose topic 'tracking/pose', got '%s'", config.ZeroMQ.PoseTopic)
	}
	if config.ZeroMQ.TelemetryAddress != "tcp://*:5561" {
		t.Errorf("Expected telemetry address 'tcp://*:5561', got '%s'", config.ZeroMQ.TelemetryAddress)
	}
	if config.Input.Deadzone != 0.15 {
		t.Errorf("Expected deadzone 0.15, got %v", config.Input.Deadzone)
	}
	if config.Input.LoopPeriodMs != 30 {
		t.Errorf("Expected default loop period 30, got %d", config.Input.LoopPeriodMs)
	}
	if config.LoopPeriod() != 30*time.Millisecond {
		t.Errorf("Expected loop period 30ms, got %v", config.LoopPeriod())
	}
	if config.Input.TrackedDeviceClass != "HMD" {
		t.Errorf("Expected tracked class 'HMD', got '%s'", config.Input.TrackedDeviceClass)
	}
	if config.Heading.Kp != 2.5 || config.Heading.Ki != 0.1 {
		t.Errorf("Expected heading gains kp=2.5 ki=0.1, got kp=%v ki=%v", config.Heading.Kp, config.Heading.Ki)
	}
	if config.Heading.OutputLimit != 1.0 {
		t.Errorf("Expected default output limit 1.0, got %v", config.Heading.OutputLimit)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ROBOT_ADDRESS", "https://robot.example:443")
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")

	configPath := writeConfig(t, t.TempDir(), "robot:\n  address: \"http://localhost:5001\"\n")

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Robot.Address != "https://robot.example:443" {
		t.Errorf("Expected ROBOT_ADDRESS override, got '%s'", config.Robot.Address)
	}
	if config.Server.HTTPPort != 7000 {
		t.Errorf("Expected PORT override 7000, got %d", config.Server.HTTPPort)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected LOG_LEVEL override 'warn', got '%s'", config.Logging.Level)
	}
}

func TestLoadConfigInvalidPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	configPath := writeConfig(t, t.TempDir(), "robot:\n  address: \"localhost:5001\"\n")
	if _, err := LoadConfig(configPath); err == nil || !strings.Contains(err.Error(), "invalid PORT") {
		t.Errorf("Expected invalid PORT error, got %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "robot: [unterminated", "error parsing config file"},
		{"empty address", "robot:\n  address: \"\"\n", "robot.address"},
		{"unknown policy", "robot:\n  queue_policy: \"newest-wins\"\n", "robot.queue_policy"},
		{"deadzone too large", "input:\n  deadzone: 1.0\n", "input.deadzone"},
		{"negative deadzone", "input:\n  deadzone: -0.1\n", "input.deadzone"},
		{"zero loop period", "input:\n  loop_period_ms: 0\n", "input.loop_period_ms"},
		{"negative timeout", "robot:\n  join_timeout_ms: -1\n", "timeouts"},
		{"port out of range", "server:\n  http_port: 70000\n", "server.http_port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(configPath)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	clearEnv(t)

	t.Run("missing file uses defaults", func(t *testing.T) {
		config, err := LoadFromDir(t.TempDir())
		if err != nil {
			t.Fatalf("Expected defaults, got error: %v", err)
		}
		if config.Robot.Address != DefaultConfig().Robot.Address {
			t.Errorf("Expected default address, got '%s'", config.Robot.Address)
		}
	})

	t.Run("reads bridge_config.yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "server:\n  http_port: 8181\n")
		config, err := LoadFromDir(dir)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Server.HTTPPort != 8181 {
			t.Errorf("Expected HTTP port 8181, got %d", config.Server.HTTPPort)
		}
	})

	t.Run("invalid file is reported with its path", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "input:\n  loop_period_ms: -5\n")
		_, err := LoadFromDir(dir)
		if err == nil || !strings.Contains(err.Error(), ConfigFilename) {
			t.Errorf("Expected error naming %s, got %v", ConfigFilename, err)
		}
	})
}

func TestResolveDir(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")
	if got := ResolveDir(""); got != "config" {
		t.Errorf("Expected 'config', got '%s'", got)
	}
	t.Setenv(ConfigDirEnv, "/etc/teleop")
	if got := ResolveDir(""); got != "/etc/teleop" {
		t.Errorf("Expected env dir, got '%s'", got)
	}
	if got := ResolveDir("./local"); got != "./local" {
		t.Errorf("Expected explicit dir, got '%s'", got)
	}
}

func TestBridgeOptions(t *testing.T) {
	config := DefaultConfig()
	config.Robot.QueuePolicy = "drop-oldest"

	opts, err := config.BridgeOptions(customlog.NewNopLogger())
	if err != nil {
		t.Fatalf("BridgeOptions failed: %v", err)
	}
	if len(opts) != 5 {
		t.Errorf("Expected 5 bridge options, got %d", len(opts))
	}

	config.Robot.QueuePolicy = "bogus"
	if _, err := config.BridgeOptions(customlog.NewNopLogger()); err == nil {
		t.Error("Expected error for unknown queue policy")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if config.Robot.QueuePolicy != bridge.PolicyBlock.String() {
		t.Errorf("Expected default policy %s, got %s", bridge.PolicyBlock, config.Robot.QueuePolicy)
	}
}
