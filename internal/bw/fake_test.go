package bw

import (
	"context"
	"strings"
	"testing"

	"github.com/lovincyrus/bwcreds/internal/cache"
)

const (
	testEmail    = "admin@rtqa1securly.com"
	firstID      = "11111111-1111-1111-1111-111111111111"
	secondID     = "22222222-2222-2222-2222-222222222222"
	ambiguousMsg = "More than one result was found. Please specify one of the following IDs:\n" + firstID + "\n" + secondID
)

var testCreds = Credentials{ClientID: "user.abc", ClientSecret: "secret-1234", MasterPassword: "hunter2"}

func toolErr(args, stderr string) *ToolError {
	return &ToolError{Args: strings.Fields(args), ExitCode: 1, Stderr: stderr, Kind: Classify(stderr)}
}

// fakeVault simulates the bitwarden CLI: tokens in valid unlock the vault,
// unlock hands out unlockToken, and scripted errors are returned first.
type fakeVault struct {
	calls       []Invocation
	valid       map[string]bool
	unlockToken string
	items       map[string]string
	totps       map[string]string
	errs        map[string][]error
	statusJSON  string
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		valid:       map[string]bool{},
		unlockToken: "fresh-token",
		items:       map[string]string{},
		totps:       map[string]string{},
		errs:        map[string][]error{},
	}
}

func (f *fakeVault) fail(args string, errs ...error) {
	f.errs[args] = append(f.errs[args], errs...)
}

func (f *fakeVault) Run(_ context.Context, inv Invocation) (string, error) {
	f.calls = append(f.calls, inv)
	key := strings.Join(inv.Args, " ")
	if queued := f.errs[key]; len(queued) > 0 {
		f.errs[key] = queued[1:]
		return "", queued[0]
	}

	args := inv.Args
	session := ""
	for i := range args {
		if args[i] == "--session" && i+1 < len(args) {
			session = args[i+1]
		}
	}

	switch {
	case key == "--version":
		return "2024.6.0\n", nil
	case key == "logout", strings.HasPrefix(key, "login "):
		return "", nil
	case key == "status":
		if f.statusJSON != "" {
			return f.statusJSON, nil
		}
		return `{"status":"locked"}`, nil
	case args[0] == "status":
		if f.valid[session] {
			return `{"status":"unlocked"}`, nil
		}
		return `{"status":"locked"}`, nil
	case args[0] == "list":
		if f.valid[session] {
			return "[]", nil
		}
		return "", toolErr(key, "Session key is invalid.")
	case args[0] == "unlock":
		f.valid[f.unlockToken] = true
		return f.unlockToken + "\n", nil
	case args[0] == "sync":
		return "Syncing complete.", nil
	case args[0] == "get":
		if !f.valid[session] {
			return "", toolErr(key, "You are not logged in. Unauthorized.")
		}
		table := f.items
		if args[1] == "totp" {
			table = f.totps
		}
		if out, ok := table[args[2]]; ok {
			return out, nil
		}
		if _, ok := f.items[args[2]]; ok && args[1] == "totp" {
			return "", toolErr(key, "No TOTP available for this login.")
		}
		return "", toolErr(key, "Not found.")
	}
	return "", toolErr(key, "unknown command")
}

func (f *fakeVault) count(prefix string) int {
	n := 0
	for _, inv := range f.calls {
		if strings.HasPrefix(strings.Join(inv.Args, " "), prefix) {
			n++
		}
	}
	return n
}

func (f *fakeVault) last(prefix string) Invocation {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.Join(f.calls[i].Args, " "), prefix) {
			return f.calls[i]
		}
	}
	return Invocation{}
}

func newTestClient(t *testing.T, f Runner, c cache.Cache) *Client {
	t.Helper()
	if c == nil {
		c = cache.NewMemory()
	}
	return New(Options{
		Runner:      f,
		Command:     []string{"bw"},
		Credentials: testCreds,
		Cache:       c,
	})
}
