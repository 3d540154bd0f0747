package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigVersion is written to every session file.
const ConfigVersion = "1"

// Config is the CLI session stored in <home>/config.json by `mkc login`.
type Config struct {
	Version   string `json:"version"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"` // RFC3339
}

// LoadConfig reads config.json from the home directory. A missing file is
// an empty session, not an error.
func LoadConfig(home string) (*Config, error) {
	path := filepath.Join(home, "config.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{Version: ConfigVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to the home directory. The file holds a
// session token and is only readable by its owner.
func SaveConfig(home string, cfg *Config) error {
	if err := os.MkdirAll(home, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}

	if cfg.Version == "" {
		cfg.Version = ConfigVersion
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(home, "config.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ClearSession forgets the logged in user.
func ClearSession(home string) error {
	return SaveConfig(home, &Config{Version: ConfigVersion})
}
