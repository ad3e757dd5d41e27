package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath overrides <state_dir>/config.yaml. It must exist when set.
	ConfigPath string
	// EnvFile is a dotenv file consulted below the real environment.
	// Defaults to .env in the working directory; a missing file is ignored.
	EnvFile string
	// FlagOverrides are highest-priority values from CLI flags.
	FlagOverrides map[string]any
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindDuration
)

type envBinding struct {
	Env  string
	Key  string
	Kind valueKind
}

var envBindings = []envBinding{
	{"BW_CLIENTID", "client_id", kindString},
	{"BW_CLIENTSECRET", "client_secret", kindString},
	{"BW_PASSWORD", "master_password", kindString},
	{"BWCREDS_BW_COMMAND", "bw_command", kindString},
	{"BWCREDS_CACHE_BACKEND", "cache_backend", kindString},
	{"BWCREDS_CACHE_KEY", "cache_key", kindString},
	{"BWCREDS_STATE_DIR", "state_dir", kindString},
	{"BWCREDS_LOG_LEVEL", "log_level", kindString},
	{"BWCREDS_MAX_ATTEMPTS", "max_attempts", kindInt},
	{"BWCREDS_PROBE_TIMEOUT", "probe_timeout", kindDuration},
	{"BWCREDS_COMMAND_TIMEOUT", "command_timeout", kindDuration},
	{"BWCREDS_STATUS_TIMEOUT", "status_timeout", kindDuration},
}

// Load returns the effective configuration after applying precedence:
// defaults < config file < .env < environment < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(name string) (string, bool) {
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val, true
		}
		val, ok := dotenv[name]
		return val, ok && val != ""
	}

	path := opts.ConfigPath
	if path == "" {
		stateDir := v.GetString("state_dir")
		if dir, ok := lookup("BWCREDS_STATE_DIR"); ok {
			stateDir = dir
		}
		if dir, ok := opts.FlagOverrides["state_dir"].(string); ok && dir != "" {
			stateDir = dir
		}
		path = filepath.Join(stateDir, "config.yaml")
	}
	if err := mergeConfigFile(v, path, opts.ConfigPath != ""); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(v, lookup); err != nil {
		return Config{}, err
	}
	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("client_id", def.ClientID)
	v.SetDefault("client_secret", def.ClientSecret)
	v.SetDefault("master_password", def.MasterPassword)
	v.SetDefault("bw_command", def.BWCommand)
	v.SetDefault("cache_backend", def.CacheBackend)
	v.SetDefault("cache_key", def.CacheKey)
	v.SetDefault("state_dir", def.StateDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("max_attempts", def.MaxAttempts)
	v.SetDefault("probe_timeout", def.ProbeTimeout)
	v.SetDefault("command_timeout", def.CommandTimeout)
	v.SetDefault("status_timeout", def.StatusTimeout)
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

// mergeConfigFile merges the YAML config file. A missing file is only an
// error when the path was given explicitly.
func mergeConfigFile(v *viper.Viper, path string, required bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(v *viper.Viper, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		raw, ok := lookup(b.Env)
		if !ok {
			continue
		}
		switch b.Kind {
		case kindInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("env %s: %w", b.Env, err)
			}
			v.Set(b.Key, n)
		case kindDuration:
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("env %s: %w", b.Env, err)
			}
			v.Set(b.Key, d)
		default:
			v.Set(b.Key, raw)
		}
	}
	return nil
}
