package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/neoprene-dev/neoprene/internal/errors"
)

// localShell returns the shell used to interpret local command lines.
func localShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// ExecuteLocal runs a command locally, streaming output to the provided writers.
// Returns the exit code and any execution error.
// This provides the same interface as SSH execution for consistent handling.
func ExecuteLocal(ctx context.Context, cmd string, workDir string, stdout, stderr io.Writer) (exitCode int, err error) {
	// Use shell to interpret the command (handles pipes, redirects, etc.)
	command := exec.CommandContext(ctx, localShell(), "-c", cmd)

	if workDir != "" {
		command.Dir = workDir
	}

	command.Stdout = stdout
	command.Stderr = stderr

	return waitResult(ctx, cmd, command.Run())
}

// ExecuteLocalCapture runs a command locally and captures all output.
// Returns stdout, stderr, exit code, and any execution error.
func ExecuteLocalCapture(ctx context.Context, cmd string, workDir string) (stdout, stderr []byte, exitCode int, err error) {
	var outBuf, errBuf bytes.Buffer
	exitCode, err = ExecuteLocal(ctx, cmd, workDir, &outBuf, &errBuf)
	return outBuf.Bytes(), errBuf.Bytes(), exitCode, err
}

// waitResult maps the outcome of Run to an exit code.
// A non-zero exit is data, not an error. A finished context is reported as
// ErrTimeout or ErrAbort even though the process was killed with a signal.
func waitResult(ctx context.Context, cmd string, runErr error) (int, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return -1, errors.WrapWithCode(ctxErr, errors.ErrTimeout,
				fmt.Sprintf("Local command timed out: %s", cmd),
				"Raise the limit with --timeout or the 'timeout' config key.")
		}
		return -1, errors.WrapWithCode(ctxErr, errors.ErrAbort,
			fmt.Sprintf("Local command cancelled: %s", cmd), "")
	}

	if runErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, errors.WrapWithCode(runErr, errors.ErrExec,
		"Couldn't run the command locally",
		"Make sure the command exists and is executable.")
}
