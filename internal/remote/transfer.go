package remote

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/util"
)

// controlSocketDir holds the ControlMaster sockets rsync's ssh shares.
var controlSocketDir = filepath.Join(os.TempDir(), "neoprene-ssh")

// findRsync is swapped in tests.
var findRsync = func() (string, error) {
	p, err := osexec.LookPath("rsync")
	if err != nil {
		return "", errors.New(errors.ErrTransfer,
			"rsync isn't installed locally",
			"Grab it with: brew install rsync (macOS) or apt install rsync (Linux)")
	}
	return p, nil
}

// TransferFile downloads remotePath into localDir with rsync over ssh.
func (r *SSHRunner) TransferFile(ctx context.Context, remotePath, localDir string) (string, error) {
	rsyncPath, err := findRsync()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(controlSocketDir, 0700); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("creating SSH control socket dir %s", controlSocketDir),
			"Check directory permissions and disk space")
	}

	args, err := BuildTransferArgs(r.client.GetHost(), remotePath, localDir, r.opts.SSHConfigFile)
	if err != nil {
		return "", err
	}
	r.log.Debug("rsync %s", util.ShellJoin(args...))

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var stderrBuf bytes.Buffer
	cmd := osexec.CommandContext(ctx, rsyncPath, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", channelError(ctx.Err(), r.client.GetHost(), "rsync "+remotePath)
		}
		return "", handleTransferError(err, r.client.GetHost(), remotePath, stderrBuf.String())
	}

	return filepath.Join(localDir, path.Base(remotePath)), nil
}

// BuildTransferArgs returns rsync's arguments for fetching the single file
// remotePath from alias into localDir, creating localDir.
func BuildTransferArgs(alias, remotePath, localDir, sshConfigFile string) ([]string, error) {
	if alias == "" {
		return nil, errors.New(errors.ErrTransfer,
			"No connection provided",
			"Connect to the remote host first.")
	}
	if !path.IsAbs(remotePath) || strings.HasSuffix(remotePath, "/") {
		return nil, errors.New(errors.ErrTransfer,
			fmt.Sprintf("'%s' isn't an absolute file path", remotePath),
			"Only single files with absolute remote paths can be transferred.")
	}

	localDir = filepath.Clean(localDir)
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't create destination directory %s", localDir),
			"Check file permissions.")
	}

	sshCmd := fmt.Sprintf("ssh -o ControlMaster=auto -o ControlPath=%s/%%h-%%p -o ControlPersist=60 -o BatchMode=yes",
		controlSocketDir)
	if sshConfigFile != "" {
		sshCmd = fmt.Sprintf("%s -F %q", sshCmd, sshConfigFile)
	}

	return []string{
		"-az",
		"--partial",
		"-e", sshCmd,
		fmt.Sprintf("%s:%s", alias, remotePath),
		localDir + "/",
	}, nil
}

// rsyncExits explains the rsync exit statuses a download can end with.
var rsyncExits = map[int][2]string{
	3:  {"rsync couldn't select the remote file", "Check that the remote path exists and is readable."},
	5:  {"rsync couldn't start its protocol", "Check that rsync is installed on the remote host."},
	10: {"rsync lost the socket", "Check network connectivity to the remote host."},
	11: {"rsync couldn't write locally", "Check disk space and permissions in the staging directory."},
	23: {"rsync transferred only part of the file", "The backup may not be readable by the SSH user."},
}

// handleTransferError turns a failed rsync run into an ErrTransfer error.
func handleTransferError(err error, hostName, remotePath, stderrOutput string) error {
	var exitErr *osexec.ExitError
	if !stderrors.As(err, &exitErr) {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			"rsync download failed", "Try the rsync command by hand to see what it reports.")
	}
	if strings.Contains(stderrOutput, "No such file or directory") {
		return errors.New(errors.ErrTransfer,
			fmt.Sprintf("Remote file %s not found", remotePath),
			"Check that the backup still exists on the remote host.")
	}

	code := exitErr.ExitCode()
	if code == 255 {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("SSH connection to '%s' failed", hostName),
			"Check that the host is reachable: ssh "+hostName)
	}
	if known, ok := rsyncExits[code]; ok {
		return errors.WrapWithCode(err, errors.ErrTransfer, known[0], known[1])
	}
	return errors.WrapWithCode(err, errors.ErrTransfer,
		fmt.Sprintf("rsync exited with code %d", code), strings.TrimSpace(stderrOutput))
}
