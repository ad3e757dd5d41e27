package bw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long output pipes are drained after a timeout kill.
const waitDelay = 2 * time.Second

// Invocation describes one call of the bitwarden CLI.
type Invocation struct {
	// Command is the tool argv prefix, e.g. ["/usr/local/bin/bw"] or ["npx", "@bitwarden/cli"].
	Command []string
	Args    []string
	// Env holds extra KEY=VALUE pairs added to the child's environment only.
	Env     []string
	Stdin   string
	Timeout time.Duration
}

// Argv returns the full argument vector.
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Command)+len(inv.Args))
	argv = append(argv, inv.Command...)
	return append(argv, inv.Args...)
}

// Runner executes invocations. A non-zero exit or a timeout is reported as
// a *ToolError; other errors mean the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (string, error)
}

// ExecRunner runs the tool as a child process.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) (string, error) {
	argv := inv.Argv()
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = waitDelay
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &ToolError{Args: inv.Args, ExitCode: -1, Stderr: stderr.String(), Kind: KindTimeout}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ToolError{
				Args:     inv.Args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
				Kind:     Classify(stderr.String()),
			}
		}
		return "", fmt.Errorf("running %s: %w", argv[0], err)
	}
	return stdout.String(), nil
}
