package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns the output.
// Returns stdout, stderr, exit code, and any error.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return c.ExecContext(context.Background(), cmd)
}

// ExecContext is Exec bounded by ctx. When ctx ends before the command
// finishes, the session is closed and an ErrTimeout error is returned.
func (c *Client) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, -1, contextError(err, cmd)
	}

	session, err := c.newSSHSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	// Run in a goroutine so a hung remote tool can't block past the deadline.
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		// The buffers may still be written by the Run goroutine, so they are dropped.
		_ = session.Close()
		return nil, nil, -1, contextError(ctx.Err(), cmd)
	case runErr = <-done:
	}

	exitCode = 0
	if runErr != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitStatus()
		} else {
			return nil, nil, -1, errors.WrapWithCode(runErr, errors.ErrExec,
				fmt.Sprintf("Failed to execute command: %s", cmd),
				"Check if the command exists on the remote host.")
		}
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}

// contextError maps a finished context to a structured error.
func contextError(err error, cmd string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapWithCode(err, errors.ErrTimeout,
			fmt.Sprintf("Remote command timed out: %s", cmd),
			"The remote tool may be hung. Raise the limit with --timeout or the 'timeout' config key.")
	}
	return errors.WrapWithCode(err, errors.ErrAbort,
		fmt.Sprintf("Remote command cancelled: %s", cmd), "")
}
