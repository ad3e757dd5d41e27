package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks a loaded configuration.
func Validate(cfg Config) error {
	var errs []error
	if cfg.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts))
	}
	switch cfg.CacheBackend {
	case BackendEnv, BackendStore, BackendChain:
	default:
		errs = append(errs, fmt.Errorf("cache_backend must be one of env, store, chain, got %q", cfg.CacheBackend))
	}
	if strings.TrimSpace(cfg.CacheKey) == "" {
		errs = append(errs, errors.New("cache_key must not be empty"))
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe_timeout must be positive"))
	}
	if cfg.CommandTimeout <= 0 {
		errs = append(errs, errors.New("command_timeout must be positive"))
	}
	if cfg.StatusTimeout <= 0 {
		errs = append(errs, errors.New("status_timeout must be positive"))
	}
	if cfg.CacheBackend != BackendEnv && strings.TrimSpace(cfg.StateDir) == "" {
		errs = append(errs, errors.New("state_dir is required for the store cache"))
	}
	if _, err := cfg.Command(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
