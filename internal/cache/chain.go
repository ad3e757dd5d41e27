package cache

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lovincyrus/bwcreds/internal/logging"
)

// Chain reads from the first cache that has a value and writes to all of
// them. Write failures are logged, never returned.
type Chain struct {
	caches []Cache
	logger *log.Logger
}

// NewChain creates a cache that delegates to the given caches in order.
func NewChain(logger *log.Logger, caches ...Cache) *Chain {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Chain{caches: caches, logger: logger}
}

func (c *Chain) Get(key string) (string, error) {
	for i, layer := range c.caches {
		v, err := layer.Get(key)
		if err == nil && v != "" {
			return v, nil
		}
		if err != nil && !errors.Is(err, ErrMiss) {
			c.logger.Warn("cache layer read failed", "layer", i, "key", key, "err", err)
		}
	}
	return "", ErrMiss
}

func (c *Chain) Put(key, value string) error {
	for i, layer := range c.caches {
		if err := layer.Put(key, value); err != nil {
			c.logger.Warn("cache layer write failed", "layer", i, "key", key, "err", err)
		}
	}
	return nil
}

func (c *Chain) Delete(key string) error {
	for i, layer := range c.caches {
		if err := layer.Delete(key); err != nil {
			c.logger.Warn("cache layer delete failed", "layer", i, "key", key, "err", err)
		}
	}
	return nil
}
