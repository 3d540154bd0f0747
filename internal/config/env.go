// Package config loads mkc settings: environment variables (optionally from
// a .env file), the CLI session file and the YAML policy file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// EnvConfig holds the settings read from the environment.
type EnvConfig struct {
	Home        string        `env:"MKC_HOME"`
	DBPath      string        `env:"MKC_DB_PATH"`
	TokenSecret string        `env:"MKC_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"MKC_TOKEN_TTL"    envDefault:"12h"`
	LogLevel    string        `env:"MKC_LOG_LEVEL"    envDefault:"warn"`
	PolicyFile  string        `env:"MKC_POLICY_FILE"`
}

// LoadEnv reads dir/.env when present, then parses the environment.
// Variables already set take precedence over the file. Home defaults to
// ~/.mkc and the database to <home>/mkc.db.
func LoadEnv(dir string) (*EnvConfig, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Home = filepath.Join(userHome, ".mkc")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.Home, "mkc.db")
	}
	return &cfg, nil
}

// ResolveTokenSecret returns the configured token secret. Without one, a
// random secret is generated once and kept in <home>/token.secret.
func (c *EnvConfig) ResolveTokenSecret() (string, error) {
	if c.TokenSecret != "" {
		return c.TokenSecret, nil
	}

	path := filepath.Join(c.Home, "token.secret")
	data, err := os.ReadFile(path)
	if err == nil {
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return secret, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read token secret: %w", err)
	}

	if err := os.MkdirAll(c.Home, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", c.Home, err)
	}
	secret := uuid.NewString() + uuid.NewString()
	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write token secret: %w", err)
	}
	return secret, nil
}
