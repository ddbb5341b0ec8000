// Package dedao wraps the external dedao-dl command-line downloader.
//
// All authentication, network access, and content conversion happens inside
// dedao-dl; this package only builds argument lists, runs the binary as a
// subprocess, and surfaces its output. Tools depend on the Runner interface
// so tests can substitute a fake without spawning processes.
package dedao

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// BinaryName is the external downloader executable looked up on PATH.
const BinaryName = "dedao-dl"

// InstallHint tells the user how to get dedao-dl when it's missing.
const InstallHint = "go install github.com/yann0917/dedao-dl@latest"

// Runner executes dedao-dl commands.
type Runner interface {
	// Run executes dedao-dl with the given arguments and returns captured
	// stdout. A non-zero exit returns a *CommandError carrying stderr.
	Run(ctx context.Context, args ...string) (string, error)

	// RunInteractive executes dedao-dl with its output attached to the
	// server's stderr. Used for QR-code login, where the tool renders a
	// QR code that must reach the user's terminal. Output goes to stderr
	// because stdout carries the MCP stdio transport.
	RunInteractive(ctx context.Context, args ...string) error

	// Installed reports whether the dedao-dl binary is available.
	Installed() bool

	// LoggedIn reports whether dedao-dl has a valid Dedao session.
	LoggedIn(ctx context.Context) bool
}

// CommandError is returned when dedao-dl exits non-zero. It preserves the
// tool's own stderr so callers can pass the diagnostic through verbatim.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("dedao-dl %s: %s", strings.Join(e.Args, " "), msg)
}

// CLIRunner runs the real dedao-dl binary.
type CLIRunner struct {
	// Binary is the executable to invoke. Defaults to BinaryName; tests
	// point it at a stub script.
	Binary string

	// WorkDir is the subprocess working directory. dedao-dl keeps its
	// cookie store and output directory relative to it, so every command
	// must run from the same place.
	WorkDir string
}

// NewCLIRunner creates a runner for dedao-dl rooted at workDir.
func NewCLIRunner(workDir string) *CLIRunner {
	return &CLIRunner{Binary: BinaryName, WorkDir: workDir}
}

// Run executes the command and captures stdout and stderr separately.
func (r *CLIRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", &CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		// Binary missing, not executable, context cancelled, etc.
		return "", fmt.Errorf("running %s: %w", r.Binary, err)
	}

	return stdout.String(), nil
}

// RunInteractive executes the command with both output streams attached to
// the server's stderr so terminal output (the login QR code) is visible
// without corrupting the MCP protocol stream on stdout.
func (r *CLIRunner) RunInteractive(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.WorkDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &CommandError{Args: args, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("running %s: %w", r.Binary, err)
	}
	return nil
}

// Installed probes for the binary with --help. LookPath alone isn't enough:
// a present but broken install should also read as unavailable.
func (r *CLIRunner) Installed() bool {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return false
	}
	_, err := r.Run(context.Background(), "--help")
	return err == nil
}

// LoggedIn probes the session with `dedao-dl who`, which exits non-zero
// when there is no valid cookie.
func (r *CLIRunner) LoggedIn(ctx context.Context) bool {
	_, err := r.Run(ctx, "who")
	return err == nil
}
