// Package bw drives the Bitwarden command-line tool to fetch a login item's
// username, password and one-time code, keeping an authenticated session
// token in a cache and renewing it when the tool reports it expired.
package bw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lovincyrus/bwcreds/internal/cache"
	"github.com/lovincyrus/bwcreds/internal/logging"
)

const (
	DefaultCacheKey       = "BW_SESSION_TOKEN"
	DefaultMaxAttempts    = 2
	DefaultCommandTimeout = 30 * time.Second
	DefaultStatusTimeout  = 10 * time.Second

	envClientID     = "BW_CLIENTID"
	envClientSecret = "BW_CLIENTSECRET"
	envPassword     = "BW_PASSWORD"
)

// Credentials are the machine and human secrets used to open a session.
// They reach the tool only through the child process environment or stdin.
type Credentials struct {
	ClientID       string
	ClientSecret   string
	MasterPassword string
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Runner         Runner
	Command        []string
	Locate         LocateOptions
	Credentials    Credentials
	Cache          cache.Cache
	CacheKey       string
	Logger         *log.Logger
	MaxAttempts    int
	CommandTimeout time.Duration
	StatusTimeout  time.Duration
}

// Client wraps the bitwarden CLI. It is not safe for concurrent use.
type Client struct {
	runner         Runner
	command        []string
	locate         LocateOptions
	creds          Credentials
	cache          cache.Cache
	cacheKey       string
	logger         *log.Logger
	maxAttempts    int
	commandTimeout time.Duration
	statusTimeout  time.Duration
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		runner:         opts.Runner,
		command:        opts.Command,
		locate:         opts.Locate,
		creds:          opts.Credentials,
		cache:          opts.Cache,
		cacheKey:       opts.CacheKey,
		logger:         opts.Logger,
		maxAttempts:    opts.MaxAttempts,
		commandTimeout: opts.CommandTimeout,
		statusTimeout:  opts.StatusTimeout,
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.cache == nil {
		c.cache = cache.NewMemory()
	}
	if c.cacheKey == "" {
		c.cacheKey = DefaultCacheKey
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.locate.Logger == nil {
		c.locate.Logger = c.logger
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.commandTimeout <= 0 {
		c.commandTimeout = DefaultCommandTimeout
	}
	if c.statusTimeout <= 0 {
		c.statusTimeout = DefaultStatusTimeout
	}
	return c
}

// EnsureTool locates the CLI unless a command is already known.
func (c *Client) EnsureTool(ctx context.Context) error {
	if len(c.command) > 0 {
		return nil
	}
	command, err := Locate(ctx, c.runner, c.locate)
	if err != nil {
		return err
	}
	c.command = command
	return nil
}

func (c *Client) run(ctx context.Context, timeout time.Duration, env []string, stdin string, args ...string) (string, error) {
	return c.runner.Run(ctx, Invocation{
		Command: c.command,
		Args:    args,
		Env:     env,
		Stdin:   stdin,
		Timeout: timeout,
	})
}

// statusResponse is the JSON emitted by `bw status`.
type statusResponse struct {
	Status     string `json:"status"`
	SessionKey string `json:"sessionKey"`
	UserEmail  string `json:"userEmail"`
}

func (c *Client) status(ctx context.Context, token string) (*statusResponse, error) {
	args := []string{"status"}
	if token != "" {
		args = append(args, "--session", token)
	}
	out, err := c.run(ctx, c.statusTimeout, nil, "", args...)
	if err != nil {
		return nil, err
	}
	var st statusResponse
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrMalformedResponse, err)
	}
	return &st, nil
}

// Sync pulls the latest vault data. Callers treat failure as non-fatal:
// lookups then run against the tool's local copy.
func (c *Client) Sync(ctx context.Context, token string) error {
	if _, err := c.run(ctx, c.commandTimeout, nil, "", "sync", "--session", token); err != nil {
		c.logger.Warn("vault sync failed, continuing with local data", "err", err)
		return err
	}
	c.logger.Info("vault synced")
	return nil
}

// Logout ends the tool's login and clears the cached token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.run(ctx, c.statusTimeout, nil, "", "logout")
	c.clearCache()
	if err != nil {
		c.logger.Warn("logout reported an error", "err", err)
		return err
	}
	c.logger.Info("logged out")
	return nil
}

// CachedToken returns the cached session token, or "" on a miss.
func (c *Client) CachedToken() string {
	token, err := c.cache.Get(c.cacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("reading session cache failed", "key", c.cacheKey, "err", err)
		}
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *Client) storeToken(token string) {
	if err := c.cache.Put(c.cacheKey, token); err != nil {
		c.logger.Warn("caching session token failed", "key", c.cacheKey, "err", err)
	}
}

func (c *Client) clearCache() {
	if err := c.cache.Delete(c.cacheKey); err != nil {
		c.logger.Warn("clearing session cache failed", "key", c.cacheKey, "err", err)
	}
}
