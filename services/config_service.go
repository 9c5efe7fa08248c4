package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/open-teleop/teleop-bridge/pkg/config"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

// ConfigService exposes the running configuration and persists edits to the
// configuration file. Persisted edits take effect on the next start.
type ConfigService interface {
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	PendingRestart() bool
}

// ValidationError marks a rejected configuration update.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid configuration: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type configService struct {
	path    string
	logger  customlog.Logger
	current *config.Config
	pending bool
	mu      sync.RWMutex
}

// NewConfigService wraps the configuration the process started with.
// An empty path makes updates fail.
func NewConfigService(path string, current *config.Config, logger customlog.Logger) (ConfigService, error) {
	if current == nil {
		return nil, fmt.Errorf("current configuration cannot be nil")
	}
	return &configService{
		path:    path,
		logger:  logger,
		current: current,
	}, nil
}

// GetCurrentConfig returns the configuration in effect. Callers must not
// modify it.
func (s *configService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetCurrentConfigYAML renders the effective configuration, environment
// overrides included.
func (s *configService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := yaml.Marshal(s.current)
	if err != nil {
		return nil, fmt.Errorf("error encoding configuration: %w", err)
	}
	return data, nil
}

// UpdateConfig validates the YAML and writes it to the configuration file.
// The running process keeps its current configuration.
func (s *configService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("no configuration file to update")
	}

	newCfg := config.DefaultConfig()
	if err := yaml.Unmarshal(newConfigYAML, newCfg); err != nil {
		return &ValidationError{Err: fmt.Errorf("invalid YAML format: %w", err)}
	}
	if err := newCfg.Validate(); err != nil {
		return &ValidationError{Err: err}
	}

	// Write to a sibling file and rename so a crash never leaves a torn file
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bridge_config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(newConfigYAML); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temporary config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("error replacing config file '%s': %w", s.path, err)
	}

	s.pending = true
	s.logger.Infof("Configuration written to %s; restart to apply", s.path)
	return nil
}

// PendingRestart reports whether the file differs from the running config.
func (s *configService) PendingRestart() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}
