// Package cmdutil runs external commands with bounded lifetimes and captured
// output. Both storage backends shell out through this package, so every
// invocation and every failure is logged here, at the process boundary.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

// DefaultTimeout bounds command execution when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// waitDelay is how long Wait may linger after the context is cancelled
// before outstanding pipe reads are abandoned.
const waitDelay = 5 * time.Second

// Result captures the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Options control how a command is run.
type Options struct {
	// RequireSuccess converts a non-zero exit code into an error wrapping
	// interfaces.ErrProcessFailure. When false, a non-zero exit is reported
	// through Result.ExitCode instead.
	RequireSuccess bool

	// Timeout bounds the command's lifetime. Zero means DefaultTimeout. On
	// expiry the child process is killed and the call fails with
	// interfaces.ErrProcessTimeout.
	Timeout time.Duration
}

// Run executes args[0] with the remaining arguments and captures exit code,
// stdout and stderr. The child process never outlives the timeout: the
// command context kills it on expiry.
func Run(ctx context.Context, log *slog.Logger, opts Options, args ...string) (Result, error) {
	if len(args) == 0 {
		return Result{}, fmt.Errorf("%w: no command given", interfaces.ErrProcessFailure)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log.Debug("Running command", "args", args)
	err := cmd.Run()

	result := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		log.Error("Command timed out", "args", args, "timeout", timeout)
		return result, fmt.Errorf("%w: %v after %s", interfaces.ErrProcessTimeout, args, timeout)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		if opts.RequireSuccess {
			log.Error("Command failed",
				"args", args,
				"exitCode", result.ExitCode,
				"stderr", result.Stderr)
			return result, fmt.Errorf("%w: %v exited with code %d: %s",
				interfaces.ErrProcessFailure, args, result.ExitCode, result.Stderr)
		}
		return result, nil
	default:
		// The command never ran (e.g. binary not found).
		log.Error("Command could not be executed", "args", args, "err", err)
		return result, fmt.Errorf("%w: %v: %v", interfaces.ErrProcessFailure, args, err)
	}
}
