// Package remote is the command channel every workflow talks through: shell
// commands on the site host, shell commands on the operator's machine, and
// single-file downloads from the site host.
package remote

import (
	"context"
	"strings"
)

// Result is the outcome of one external command. A non-zero ExitStatus is
// data for the caller to inspect, not an error.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// OK reports whether the command exited 0.
func (r Result) OK() bool {
	return r.ExitStatus == 0
}

// Combined returns stdout followed by stderr, the way a terminal shows them.
func (r Result) Combined() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	}
	return strings.TrimRight(r.Stdout, "\n") + "\n" + r.Stderr
}

// Runner executes commands on the remote host and locally.
// Errors are reserved for channel failures (SSH down, timeout, missing
// binary); a command that runs and fails returns a Result with its status.
type Runner interface {
	// RunRemote runs command on the remote host from workDir.
	// An empty workDir runs from the login directory.
	RunRemote(ctx context.Context, workDir, command string) (Result, error)

	// RunLocal runs command on this machine. When capture is false the
	// command's stdout goes straight to the operator.
	RunLocal(ctx context.Context, command string, capture bool) (Result, error)

	// TransferFile downloads remotePath into localDir and returns the local path.
	TransferFile(ctx context.Context, remotePath, localDir string) (string, error)
}
