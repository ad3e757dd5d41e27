package cache

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lovincyrus/bwcreds/internal/logging"
)

// Persister carries an environment variable across process runs.
type Persister interface {
	// Load returns ErrMiss when the platform store has no value or cannot be read back.
	Load(key string) (string, error)
	Save(key, value string) error
	Remove(key string) error
}

// Env caches values in the process environment and mirrors them to a
// Persister. The process value is authoritative; persistence errors are
// logged and never returned.
type Env struct {
	persist Persister
	logger  *log.Logger
}

// NewEnv creates an environment cache. A nil persister keeps values in the
// current process only.
func NewEnv(p Persister, logger *log.Logger) *Env {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Env{persist: p, logger: logger}
}

func (e *Env) Get(key string) (string, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		e.logger.Debug("found cached session token in environment", "key", key)
		return v, nil
	}
	if e.persist == nil {
		return "", ErrMiss
	}
	v, err := e.persist.Load(key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			e.logger.Warn("reading persisted environment failed", "key", key, "err", err)
		}
		return "", ErrMiss
	}
	if v == "" {
		return "", ErrMiss
	}
	os.Setenv(key, v)
	return v, nil
}

func (e *Env) Put(key, value string) error {
	if value == "" {
		e.logger.Warn("ignoring attempt to cache an empty token", "key", key)
		return nil
	}
	if err := os.Setenv(key, value); err != nil {
		return err
	}
	if e.persist == nil {
		return nil
	}
	if err := e.persist.Save(key, value); err != nil {
		e.logger.Warn("could not persist token for future runs, kept in this process only", "key", key, "err", err)
		return nil
	}
	e.logger.Info("session token cached and persisted", "key", key)
	return nil
}

func (e *Env) Delete(key string) error {
	os.Unsetenv(key)
	if e.persist == nil {
		return nil
	}
	if err := e.persist.Remove(key); err != nil {
		e.logger.Warn("could not remove persisted token", "key", key, "err", err)
	}
	return nil
}
