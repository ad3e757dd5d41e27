package bw

import (
	"context"
	"errors"
	"fmt"
)

// ItemWithRetry is Item with session renewal on authentication errors.
func (c *Client) ItemWithRetry(ctx context.Context, ref, token string) (*Item, error) {
	var item *Item
	err := c.withRetry(ctx, "item", token, false, func(tok string) error {
		var err error
		item, err = c.Item(ctx, ref, tok)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// TOTPWithRetry is TOTP with session renewal on authentication errors.
// Before re-authenticating it reuses a different cached token that still
// validates, which the item path does not do.
func (c *Client) TOTPWithRetry(ctx context.Context, ref, token string) (string, error) {
	var code string
	err := c.withRetry(ctx, "totp", token, true, func(tok string) error {
		var err error
		code, err = c.TOTP(ctx, ref, tok)
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// withRetry calls fn at most c.maxAttempts times. Authentication errors renew
// the session and retry; any other tool error gets one plain re-call if the
// budget allows. Timeouts and errors that are not tool errors are returned
// at once.
func (c *Client) withRetry(ctx context.Context, what, token string, preferCached bool, fn func(token string) error) error {
	for attempt := 1; ; attempt++ {
		c.logger.Info("fetching", "what", what, "attempt", attempt, "of", c.maxAttempts)
		err := fn(token)
		if err == nil {
			return nil
		}

		var te *ToolError
		if !errors.As(err, &te) {
			return err
		}
		if te.Kind == KindTimeout {
			c.logger.Error("tool timed out", "what", what, "err", err)
			return err
		}
		last := attempt >= c.maxAttempts

		if te.Kind != KindAuth {
			if last {
				return err
			}
			c.logger.Warn("error not related to session expiry, calling once more", "what", what, "err", err)
			return fn(token)
		}

		if last {
			c.logger.Error("all retry attempts exhausted", "what", what)
			return fmt.Errorf("%w: %s: %w", ErrRetriesExhausted, what, err)
		}
		c.logger.Warn("session rejected, renewing", "what", what, "attempt", attempt, "err", err)

		if preferCached {
			if cached := c.CachedToken(); cached != "" && cached != token && c.Validate(ctx, cached) {
				c.logger.Info("using recently refreshed session token from cache", "what", what)
				token = cached
				continue
			}
		}

		fresh, err := c.Session(ctx, true)
		if err != nil {
			return fmt.Errorf("renewing session for %s: %w", what, err)
		}
		token = fresh
	}
}
