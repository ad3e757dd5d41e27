package bw

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovincyrus/bwcreds/internal/cache"
)

func TestExtractLogin(t *testing.T) {
	u, p, ok := ExtractLogin(&Item{Login: &Login{Username: "a", Password: "b"}})
	assert.True(t, ok)
	assert.Equal(t, "a", u)
	assert.Equal(t, "b", p)

	u, p, ok = ExtractLogin(&Item{})
	assert.False(t, ok)
	assert.Empty(t, u)
	assert.Empty(t, p)

	_, _, ok = ExtractLogin(nil)
	assert.False(t, ok)
}

func TestRetrieve(t *testing.T) {
	f := newFakeVault()
	f.items[testEmail] = loginJSON
	f.totps[testEmail] = "987654\n"
	mem := cache.NewMemory()
	c := newTestClient(t, f, mem)

	res, err := c.Retrieve(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Equal(t, &Result{Username: "admin", Password: "s3cret", TOTP: "987654"}, res)
	assert.Equal(t, 1, f.count("sync --session fresh-token"))

	cached, err := mem.Get(DefaultCacheKey)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", cached, "session stays cached for the next run")
}

func TestRetrieve_ReusesCachedSession(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Username)
	assert.Zero(t, f.count("login"))
}

func TestRetrieve_AmbiguousEmail(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.fail("get item "+testEmail+" --session cached", toolErr("get item", ambiguousMsg))
	f.fail("get totp "+testEmail+" --session cached", toolErr("get totp", ambiguousMsg))
	f.items[firstID] = loginJSON
	f.totps[firstID] = "000111"
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Username)
	assert.Equal(t, "000111", res.TOTP)
}

func TestRetrieve_NoTOTP(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["plain"] = `{"login":{"username":"u","password":"p"}}`
	f.fail("get totp plain --session cached", toolErr("get totp", "No TOTP available for this item."))
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, &Result{Username: "u", Password: "p"}, res)
}

func TestRetrieve_ItemWithoutLogin(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["note"] = `{"name":"note"}`
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "note")
	require.NoError(t, err)
	assert.Empty(t, res.Username)
	assert.Empty(t, res.Password)
}

func TestRetrieve_SyncFailureIsNotFatal(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	f.fail("sync --session cached", toolErr("sync", "network down"))
	c := newTestClient(t, f, cacheWith("cached"))

	_, err := c.Retrieve(context.Background(), "qa")
	assert.NoError(t, err)
}

func TestRetrieve_ExpiredMidRun(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	f.totps["qa"] = "424242"
	f.fail("get item qa --session cached", toolErr("get item", "Session expired"))
	mem := cacheWith("cached")
	c := newTestClient(t, f, mem)

	res, err := c.Retrieve(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, "424242", res.TOTP)
	assert.Equal(t, []string{"get", "totp", "qa", "--session", "fresh-token"}, f.last("get totp").Args)
}

func TestRetrieve_TOTPAmbiguousWithoutIDsKeepsLogin(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	f.fail("get totp qa --session cached", toolErr("get totp qa", "More than one result was found."))
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, &Result{Username: "admin", Password: "s3cret"}, res)
}

func TestRetrieve_TOTPRetriesExhaustedKeepsLogin(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	expired := toolErr("get totp qa", "Session expired")
	f.fail("get totp qa --session cached", expired)
	f.fail("get totp qa --session fresh-token", expired)
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Username)
	assert.Equal(t, "s3cret", res.Password)
	assert.Empty(t, res.TOTP)
	assert.Equal(t, 2, f.count("get totp"))
}

func TestRetrieve_TOTPRenewalFailureKeepsLogin(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	f.fail("get totp qa --session cached", toolErr("get totp qa", "Unauthorized"))
	f.fail("login --apikey", toolErr("login", "bad"))
	f.fail("login --apikey --raw", toolErr("login", "bad"))
	c := newTestClient(t, f, cacheWith("cached"))

	res, err := c.Retrieve(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Username)
	assert.Empty(t, res.TOTP)
}

func TestRetrieve_CanceledDuringTOTP(t *testing.T) {
	f := newFakeVault()
	f.valid["cached"] = true
	f.items["qa"] = loginJSON
	ctx, cancel := context.WithCancel(context.Background())
	runner := runnerFunc(func(c context.Context, inv Invocation) (string, error) {
		if inv.Args[0] == "get" && inv.Args[1] == "totp" {
			cancel()
			return "", fmt.Errorf("running bw: %w", context.Canceled)
		}
		return f.Run(c, inv)
	})
	c := newTestClient(t, runner, cacheWith("cached"))

	_, err := c.Retrieve(ctx, "qa")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrieve_ToolNotFound(t *testing.T) {
	f := newFakeVault()
	c := New(Options{
		Runner:      f,
		Credentials: testCreds,
		Locate: LocateOptions{
			LookPath: noPath,
			Exists:   func(string) bool { return false },
		},
	})

	_, err := c.Retrieve(context.Background(), "qa")
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Empty(t, f.calls)
}

func TestRetrieve_AuthFailure(t *testing.T) {
	f := newFakeVault()
	f.fail("login --apikey", toolErr("login", "bad"))
	f.fail("login --apikey --raw", toolErr("login", "bad"))
	c := newTestClient(t, f, nil)

	_, err := c.Retrieve(context.Background(), "qa")
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Zero(t, f.count("get"))
}

func TestTokenStatus(t *testing.T) {
	f := newFakeVault()
	f.valid["good"] = true
	ctx := context.Background()

	assert.Equal(t, "Not Cached", newTestClient(t, f, nil).TokenStatus(ctx))
	assert.Equal(t, "Cached and Valid", newTestClient(t, f, cacheWith("good")).TokenStatus(ctx))
	assert.Equal(t, "Cached but Invalid", newTestClient(t, f, cacheWith("bad")).TokenStatus(ctx))
}

func TestLogout(t *testing.T) {
	f := newFakeVault()
	mem := cacheWith("tok")
	c := newTestClient(t, f, mem)

	require.NoError(t, c.Logout(context.Background()))
	_, err := mem.Get(DefaultCacheKey)
	assert.ErrorIs(t, err, cache.ErrMiss)
	assert.Equal(t, 1, f.count("logout"))
}

func cacheWith(token string) *cache.Memory {
	m := cache.NewMemory()
	m.Put(DefaultCacheKey, token)
	return m
}
