package bw

import (
	"context"
	"fmt"
	"strings"
)

// State is a step of session acquisition.
type State int

const (
	StateNoToken State = iota
	StateLoggingIn
	StateLoggedInLocked
	StateUnlocking
	StateSessionReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedInLocked:
		return "logged_in_locked"
	case StateUnlocking:
		return "unlocking"
	case StateSessionReady:
		return "session_ready"
	default:
		return "failed"
	}
}

// Validate reports whether token currently unlocks the vault. It only reads
// tool state, so repeated calls agree until the server expires the session.
func (c *Client) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	st, err := c.status(ctx, token)
	if err != nil {
		c.logger.Debug("session status check failed", "err", err)
		return false
	}
	if st.Status == "unlocked" {
		c.logger.Debug("session token valid, vault unlocked")
		return true
	}
	if st.Status == "" {
		return false
	}

	// The CLI sometimes reports "locked" for a token that still works.
	c.logger.Debug("vault not reported unlocked, probing with a search", "status", st.Status)
	if _, err := c.run(ctx, c.statusTimeout, nil, "", "list", "items", "--search", "test", "--session", token); err != nil {
		c.logger.Debug("secondary session probe failed", "err", err)
		return false
	}
	return true
}

// Session returns a usable session token. Unless force is set, a cached
// token that still validates is returned without logging in.
func (c *Client) Session(ctx context.Context, force bool) (string, error) {
	if !force {
		if token := c.CachedToken(); token != "" {
			if c.Validate(ctx, token) {
				c.logger.Info("using cached session token")
				return token, nil
			}
			c.logger.Info("cached session token expired or invalid, obtaining a new one")
		} else {
			c.logger.Info("no cached session token, creating a new one")
		}
	} else {
		c.logger.Info("forcing a new session token")
	}
	c.clearCache()

	token, err := c.authenticate(ctx)
	if err != nil {
		c.transition(StateFailed, "err", err)
		return "", err
	}
	c.transition(StateSessionReady)
	c.storeToken(token)
	return token, nil
}

func (c *Client) transition(s State, keyvals ...any) {
	c.logger.Debug("session state", append([]any{"state", s}, keyvals...)...)
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	if c.creds.ClientID == "" || c.creds.ClientSecret == "" {
		return "", fmt.Errorf("%w: client id and secret are required to log in", ErrMissingCredentials)
	}

	c.transition(StateLoggingIn)
	if _, err := c.run(ctx, c.statusTimeout, nil, "", "logout"); err == nil {
		c.logger.Debug("logged out of existing session")
	}

	apiEnv := []string{envClientID + "=" + c.creds.ClientID, envClientSecret + "=" + c.creds.ClientSecret}
	if _, err := c.run(ctx, c.commandTimeout, apiEnv, "", "login", "--apikey"); err != nil {
		c.logger.Warn("API key login failed, trying raw login", "err", err)
		if _, err := c.run(ctx, c.commandTimeout, apiEnv, "", "login", "--apikey", "--raw"); err != nil {
			return "", fmt.Errorf("%w: login: %w", ErrAuthFailed, err)
		}
	}
	c.logger.Info("API key login successful")

	c.transition(StateLoggedInLocked)
	if st, err := c.status(ctx, ""); err == nil && st.Status == "unlocked" && st.SessionKey != "" {
		c.logger.Info("vault already unlocked")
		return st.SessionKey, nil
	}

	if c.creds.MasterPassword == "" {
		return "", fmt.Errorf("%w: master password is required to unlock", ErrMissingCredentials)
	}

	c.transition(StateUnlocking)
	pwEnv := append(apiEnv, envPassword+"="+c.creds.MasterPassword)
	out, err := c.run(ctx, c.commandTimeout, pwEnv, "", "unlock", "--passwordenv", envPassword, "--raw")
	if err != nil {
		c.logger.Warn("unlock via environment failed, trying stdin", "err", err)
		out, err = c.run(ctx, c.commandTimeout, nil, c.creds.MasterPassword+"\n", "unlock", "--raw")
		if err != nil {
			return "", fmt.Errorf("%w: unlock: %w", ErrAuthFailed, err)
		}
	}

	token := strings.TrimSpace(out)
	if token == "" {
		return "", fmt.Errorf("%w: unlock returned no session token", ErrAuthFailed)
	}
	c.logger.Info("session token obtained")
	return token, nil
}
