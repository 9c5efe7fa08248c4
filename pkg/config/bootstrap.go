package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFilename is the file looked up inside a configuration directory.
const ConfigFilename = "bridge_config.yaml"

// ConfigDirEnv names the environment variable holding the configuration
// directory.
const ConfigDirEnv = "TELEOP_CONFIG_DIR"

// LoadFromDir loads configDir/bridge_config.yaml. A missing file yields the
// defaults with environment overrides applied.
func LoadFromDir(configDir string) (*Config, error) {
	path := filepath.Join(configDir, ConfigFilename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config '%s': %w", path, err)
	}
	return cfg, nil
}

// ResolveDir returns dir, or $TELEOP_CONFIG_DIR, or "config".
func ResolveDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv(ConfigDirEnv); env != "" {
		return env
	}
	return "config"
}
