package bw

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lovincyrus/bwcreds/internal/logging"
)

const defaultProbeTimeout = 10 * time.Second

// LocateOptions controls how the CLI is found. Zero values use the real
// filesystem and PATH.
type LocateOptions struct {
	// Explicit is a configured command line; when set it is the only candidate.
	Explicit []string
	// Candidates are well-known install paths probed after PATH.
	Candidates   []string
	ProbeTimeout time.Duration
	LookPath     func(file string) (string, error)
	Exists       func(path string) bool
	Logger       *log.Logger
}

// Locate returns the argv prefix of a working bitwarden CLI. A candidate
// works when it answers a version query within the probe timeout.
func Locate(ctx context.Context, r Runner, opts LocateOptions) ([]string, error) {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Exists == nil {
		opts.Exists = fileExists
	}
	if opts.Candidates == nil {
		opts.Candidates = DefaultCandidates()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	probe := func(command []string) bool {
		out, err := r.Run(ctx, Invocation{Command: command, Args: []string{"--version"}, Timeout: opts.ProbeTimeout})
		if err != nil {
			logger.Debug("candidate did not answer version query", "command", strings.Join(command, " "), "err", err)
			return false
		}
		logger.Info("found bitwarden CLI", "command", strings.Join(command, " "), "version", strings.TrimSpace(out))
		return true
	}

	if len(opts.Explicit) > 0 {
		if probe(opts.Explicit) {
			return opts.Explicit, nil
		}
		return nil, fmt.Errorf("%w: configured command %q does not respond", ErrToolNotFound, strings.Join(opts.Explicit, " "))
	}

	if path, err := opts.LookPath("bw"); err == nil {
		if probe([]string{path}) {
			return []string{path}, nil
		}
		logger.Warn("found bw in PATH but could not verify it", "path", path)
	}

	for _, path := range opts.Candidates {
		if path == "" || !opts.Exists(path) {
			continue
		}
		if probe([]string{path}) {
			return []string{path}, nil
		}
	}

	return nil, fmt.Errorf("%w\n%s", ErrToolNotFound, InstallHint())
}

// DefaultCandidates lists well-known install locations for this platform.
func DefaultCandidates() []string {
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		var paths []string
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			paths = append(paths, filepath.Join(profile, "AppData", "Roaming", "npm", "bw.cmd"))
		}
		paths = append(paths,
			`C:\Program Files\Bitwarden CLI\bw.exe`,
			`C:\Program Files (x86)\Bitwarden CLI\bw.exe`,
		)
		if home != "" {
			paths = append(paths,
				filepath.Join(home, "AppData", "Local", "Microsoft", "WindowsApps", "bw.exe"),
				filepath.Join(home, "AppData", "Roaming", "npm", "bw.cmd"),
			)
		}
		return paths
	}

	paths := []string{"/usr/local/bin/bw", "/usr/bin/bw"}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".local", "bin", "bw"))
	}
	return append(paths, "/snap/bin/bw")
}

// InstallHint returns platform specific installation instructions.
func InstallHint() string {
	lines := []string{
		"Please install Bitwarden CLI:",
		"  - npm install -g @bitwarden/cli",
		"  - Or download from: https://bitwarden.com/download/",
	}
	if runtime.GOOS == "windows" {
		lines = append(lines, "  - Or use: winget install Bitwarden.CLI")
	} else {
		lines = append(lines, "  - Or use a package manager (brew install bitwarden-cli, snap install bw, ...)")
	}
	return strings.Join(lines, "\n")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
