// Package config loads bwcreds settings from defaults, a YAML file, an
// optional .env file, the environment and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/lovincyrus/bwcreds/internal/bw"
)

// Cache backends.
const (
	BackendEnv   = "env"
	BackendStore = "store"
	BackendChain = "chain"
)

// Config is the effective bwcreds configuration.
type Config struct {
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	MasterPassword string        `mapstructure:"master_password"`
	BWCommand      string        `mapstructure:"bw_command"`
	CacheBackend   string        `mapstructure:"cache_backend"`
	CacheKey       string        `mapstructure:"cache_key"`
	StateDir       string        `mapstructure:"state_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	StatusTimeout  time.Duration `mapstructure:"status_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		CacheBackend:   BackendChain,
		CacheKey:       bw.DefaultCacheKey,
		StateDir:       defaultStateDir(),
		LogLevel:       "info",
		MaxAttempts:    bw.DefaultMaxAttempts,
		ProbeTimeout:   10 * time.Second,
		CommandTimeout: bw.DefaultCommandTimeout,
		StatusTimeout:  bw.DefaultStatusTimeout,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bwcreds"
	}
	return filepath.Join(home, ".bwcreds")
}

// Credentials returns the secrets handed to the bitwarden client.
func (c Config) Credentials() bw.Credentials {
	return bw.Credentials{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		MasterPassword: c.MasterPassword,
	}
}

// Command splits bw_command into argv. It returns nil when unset so the
// client locates the tool itself.
func (c Config) Command() ([]string, error) {
	if strings.TrimSpace(c.BWCommand) == "" {
		return nil, nil
	}
	argv, err := shellwords.Parse(c.BWCommand)
	if err != nil {
		return nil, fmt.Errorf("parse bw_command: %w", err)
	}
	return argv, nil
}

// StorePath is the sqlite file holding the encrypted cache and access log.
func (c Config) StorePath() string {
	return filepath.Join(c.StateDir, "state.db")
}
