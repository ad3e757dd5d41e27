package bw

import (
	"context"
	"fmt"

	"github.com/lovincyrus/bwcreds/internal/logging"
)

// Result holds the credentials of a retrieved item. TOTP is empty when the
// item has no one-time code or it could not be fetched.
type Result struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTP     string `json:"totp"`
}

// ExtractLogin pulls username and password out of an item. An item without
// a login object yields empty values.
func ExtractLogin(item *Item) (username, password string, ok bool) {
	if item == nil || item.Login == nil {
		return "", "", false
	}
	return item.Login.Username, item.Login.Password, true
}

// Retrieve fetches username, password and one-time code for ref, reusing a
// cached session when it still validates. The session is left open for the
// next run.
func (c *Client) Retrieve(ctx context.Context, ref string) (*Result, error) {
	c.logger.Info("retrieving credentials", "item", ref)

	if err := c.EnsureTool(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("using API credentials", "client_id", c.creds.ClientID, "client_secret", logging.Mask(c.creds.ClientSecret))

	token, err := c.Session(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	_ = c.Sync(ctx, token)

	item, err := c.ItemWithRetry(ctx, ref, token)
	if err != nil {
		return nil, fmt.Errorf("retrieving %q: %w", ref, err)
	}

	// The item retry may have renewed the session.
	if cached := c.CachedToken(); cached != "" {
		token = cached
	}
	code, err := c.TOTPWithRetry(ctx, ref, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retrieving one-time code for %q: %w", ref, err)
		}
		c.logger.Warn("could not retrieve one-time code, continuing without it", "item", ref, "err", err)
		code = ""
	}

	username, password, ok := ExtractLogin(item)
	if !ok {
		c.logger.Warn("item has no login data", "item", ref)
	}
	return &Result{Username: username, Password: password, TOTP: code}, nil
}

// TokenStatus describes the cached session for display.
func (c *Client) TokenStatus(ctx context.Context) string {
	token := c.CachedToken()
	switch {
	case token == "":
		return "Not Cached"
	case c.Validate(ctx, token):
		return "Cached and Valid"
	default:
		return "Cached but Invalid"
	}
}
