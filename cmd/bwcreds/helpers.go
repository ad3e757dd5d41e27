package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/lovincyrus/bwcreds/internal/bw"
	"github.com/lovincyrus/bwcreds/internal/cache"
	"github.com/lovincyrus/bwcreds/internal/config"
	"github.com/lovincyrus/bwcreds/internal/logging"
	"github.com/lovincyrus/bwcreds/internal/store"
)

// app bundles what a command needs. close releases the state database.
type app struct {
	cfg    config.Config
	logger *log.Logger
	client *bw.Client
	db     *store.DB
	closer func()
}

func (a *app) close() {
	if a.closer != nil {
		a.closer()
	}
}

func loadConfig() (config.Config, error) {
	overrides := map[string]any{}
	if logLevel != "" {
		overrides["log_level"] = logLevel
	}
	if cacheFlag != "" {
		overrides["cache_backend"] = cacheFlag
	}
	if bwFlag != "" {
		overrides["bw_command"] = bwFlag
	}
	return config.Load(config.LoadOptions{
		ConfigPath:    configPath,
		EnvFile:       envFile,
		FlagOverrides: overrides,
	})
}

// setup loads config and wires the cache and client. needPassword prompts
// for a missing master password when stdin is a terminal.
func setup(needPassword bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Prefix: "bwcreds"})

	if needPassword && cfg.MasterPassword == "" && term.IsTerminal(int(syscall.Stdin)) {
		pw, err := promptPassword("Bitwarden master password: ")
		if err != nil {
			return nil, fmt.Errorf("reading master password: %w", err)
		}
		cfg.MasterPassword = pw
	}

	a := &app{cfg: cfg, logger: logger}
	sessionCache, err := a.openCache()
	if err != nil {
		a.close()
		return nil, err
	}

	command, err := cfg.Command()
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = bw.New(bw.Options{
		Locate:         bw.LocateOptions{Explicit: command, ProbeTimeout: cfg.ProbeTimeout},
		Credentials:    cfg.Credentials(),
		Cache:          sessionCache,
		CacheKey:       cfg.CacheKey,
		Logger:         logger,
		MaxAttempts:    cfg.MaxAttempts,
		CommandTimeout: cfg.CommandTimeout,
		StatusTimeout:  cfg.StatusTimeout,
	})
	return a, nil
}

// openCache builds the configured session cache. The chain backend falls
// back to the environment alone when no master password is available to
// seal the store.
func (a *app) openCache() (cache.Cache, error) {
	env := cache.NewEnv(cache.DefaultPersister(), a.logger)
	if a.cfg.CacheBackend == config.BackendEnv {
		return env, nil
	}
	if a.cfg.MasterPassword == "" {
		if a.cfg.CacheBackend == config.BackendStore {
			return nil, fmt.Errorf("%w: the store cache is sealed with the master password", bw.ErrMissingCredentials)
		}
		a.logger.Warn("no master password, caching session in the environment only")
		return env, nil
	}

	if err := os.MkdirAll(a.cfg.StateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	db, err := store.Open(a.cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	sealed, err := cache.NewStore(db, a.cfg.MasterPassword, a.logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	a.closer = func() {
		sealed.Close()
		db.Close()
	}
	if a.cfg.CacheBackend == config.BackendStore {
		return sealed, nil
	}
	return cache.NewChain(a.logger, env, sealed), nil
}

// dropStoredSession deletes the sealed session row. Deleting needs no key,
// so the state database is opened even when the cache itself could not be
// unsealed for lack of a master password.
func (a *app) dropStoredSession() error {
	if a.cfg.CacheBackend == config.BackendEnv {
		return nil
	}
	if a.db == nil {
		if _, err := os.Stat(a.cfg.StorePath()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("checking state database: %w", err)
		}
		db, err := store.Open(a.cfg.StorePath())
		if err != nil {
			return fmt.Errorf("opening state database: %w", err)
		}
		a.db = db
		a.closer = func() { db.Close() }
	}
	n, err := a.db.DeleteEntry(a.cfg.CacheKey)
	if err != nil {
		return fmt.Errorf("deleting stored session: %w", err)
	}
	if n > 0 {
		a.logger.Debug("deleted stored session", "key", a.cfg.CacheKey)
	}
	return nil
}

// auditKeep bounds the access log.
const auditKeep = 500

// recordAccess appends to the access log when the state database is open.
func (a *app) recordAccess(item, action, outcome string) {
	if a.db == nil {
		return
	}
	if err := a.db.LogAccess(store.AuditEntry{Item: item, Action: action, Outcome: outcome}); err != nil {
		a.logger.Warn("writing access log failed", "err", err)
		return
	}
	if n, err := a.db.PruneAuditLog(auditKeep); err != nil {
		a.logger.Warn("pruning access log failed", "err", err)
	} else if n > 0 {
		a.logger.Debug("pruned access log", "removed", n)
	}
}

// outcomeOf names a retrieval result for the access log.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bw.ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, bw.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, bw.ErrAuthFailed), errors.Is(err, bw.ErrRetriesExhausted):
		return "auth_failed"
	case errors.Is(err, bw.ErrAmbiguous):
		return "ambiguous"
	case errors.Is(err, bw.ErrMalformedResponse):
		return "malformed"
	case bw.IsKind(err, bw.KindNotFound):
		return "not_found"
	case bw.IsKind(err, bw.KindTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
