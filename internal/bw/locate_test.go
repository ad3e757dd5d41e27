package bw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeRunner answers --version only for commands in ok.
type probeRunner struct {
	ok     map[string]bool
	probed []string
}

func (p *probeRunner) Run(_ context.Context, inv Invocation) (string, error) {
	cmd := strings.Join(inv.Command, " ")
	p.probed = append(p.probed, cmd)
	if p.ok[cmd] {
		return "2024.6.0\n", nil
	}
	return "", &ToolError{Args: inv.Args, ExitCode: 1}
}

func noPath(string) (string, error) { return "", errors.New("not in PATH") }

func existsAll(string) bool { return true }

func TestLocate_PrefersPath(t *testing.T) {
	r := &probeRunner{ok: map[string]bool{"/opt/bin/bw": true, "/usr/bin/bw": true}}
	cmd, err := Locate(context.Background(), r, LocateOptions{
		LookPath:   func(string) (string, error) { return "/opt/bin/bw", nil },
		Exists:     existsAll,
		Candidates: []string{"/usr/bin/bw"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/bin/bw"}, cmd)
	assert.Equal(t, []string{"/opt/bin/bw"}, r.probed)
}

func TestLocate_UnverifiedPathFallsBackToCandidates(t *testing.T) {
	r := &probeRunner{ok: map[string]bool{"/snap/bin/bw": true}}
	cmd, err := Locate(context.Background(), r, LocateOptions{
		LookPath:   func(string) (string, error) { return "/broken/bw", nil },
		Exists:     func(p string) bool { return p != "/usr/local/bin/bw" },
		Candidates: []string{"/usr/local/bin/bw", "/usr/bin/bw", "/snap/bin/bw"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/snap/bin/bw"}, cmd)
	assert.Equal(t, []string{"/broken/bw", "/usr/bin/bw", "/snap/bin/bw"}, r.probed, "missing files are not probed")
}

func TestLocate_NotFound(t *testing.T) {
	r := &probeRunner{ok: map[string]bool{}}
	_, err := Locate(context.Background(), r, LocateOptions{
		LookPath:   noPath,
		Exists:     existsAll,
		Candidates: []string{"/usr/bin/bw"},
	})
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "npm install -g @bitwarden/cli")
}

func TestLocate_Explicit(t *testing.T) {
	r := &probeRunner{ok: map[string]bool{"npx -y @bitwarden/cli": true}}
	cmd, err := Locate(context.Background(), r, LocateOptions{
		Explicit: []string{"npx", "-y", "@bitwarden/cli"},
		LookPath: func(string) (string, error) { t.Fatal("PATH must not be searched"); return "", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"npx", "-y", "@bitwarden/cli"}, cmd)
}

func TestLocate_ExplicitBroken(t *testing.T) {
	r := &probeRunner{ok: map[string]bool{}}
	_, err := Locate(context.Background(), r, LocateOptions{Explicit: []string{"/nope/bw"}})
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestLocate_ProbeUsesTimeout(t *testing.T) {
	var got Invocation
	r := runnerFunc(func(_ context.Context, inv Invocation) (string, error) {
		got = inv
		return "1.0", nil
	})
	_, err := Locate(context.Background(), r, LocateOptions{
		LookPath: func(string) (string, error) { return "/bin/bw", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, defaultProbeTimeout, got.Timeout)
	assert.Equal(t, []string{"--version"}, got.Args)
}

func TestDefaultCandidates(t *testing.T) {
	assert.NotEmpty(t, DefaultCandidates())
}

type runnerFunc func(context.Context, Invocation) (string, error)

func (f runnerFunc) Run(ctx context.Context, inv Invocation) (string, error) { return f(ctx, inv) }
