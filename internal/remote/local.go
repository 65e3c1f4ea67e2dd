package remote

import (
	"bytes"
	"context"
	"io"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/exec"
	"github.com/neoprene-dev/neoprene/internal/logger"
)

// LocalRunner implements Runner for commands that never leave this machine,
// such as listing local databases. Remote operations fail with ErrSSH.
type LocalRunner struct {
	opts Options
	log  logger.Logger
}

// NewLocalRunner returns a Runner with no SSH connection behind it.
func NewLocalRunner(opts Options) *LocalRunner {
	opts, log := opts.withDefaults()
	return &LocalRunner{opts: opts, log: log}
}

// RunRemote implements Runner.
func (r *LocalRunner) RunRemote(_ context.Context, _, command string) (Result, error) {
	return Result{ExitStatus: -1}, errNoConnection(command)
}

// RunLocal implements Runner.
func (r *LocalRunner) RunLocal(ctx context.Context, command string, capture bool) (Result, error) {
	return runLocal(ctx, r.opts, r.log, command, capture)
}

// TransferFile implements Runner.
func (r *LocalRunner) TransferFile(_ context.Context, remotePath, _ string) (string, error) {
	return "", errNoConnection("rsync " + remotePath)
}

func errNoConnection(command string) error {
	return errors.New(errors.ErrSSH,
		"No remote host is connected for: "+command,
		"This command only works on the local machine.")
}

// runLocal runs command through the local shell, bounded by opts.Timeout.
func runLocal(ctx context.Context, opts Options, log logger.Logger, command string, capture bool) (Result, error) {
	log.Debug("local$ %s", MaskSecrets(command))

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var res Result
	if capture {
		stdout, stderr, code, err := exec.ExecuteLocalCapture(ctx, command, "")
		res = Result{Stdout: string(stdout), Stderr: string(stderr), ExitStatus: code}
		if err != nil {
			return res, err
		}
	} else {
		var stderrBuf bytes.Buffer
		code, err := exec.ExecuteLocal(ctx, command, "", opts.Stdout, io.MultiWriter(opts.Stderr, &stderrBuf))
		res = Result{Stderr: stderrBuf.String(), ExitStatus: code}
		if err != nil {
			return res, err
		}
	}

	if nfErr := exec.HandleExecError("local", command, res.Stderr, res.ExitStatus); nfErr != nil {
		return res, nfErr
	}
	return res, nil
}
