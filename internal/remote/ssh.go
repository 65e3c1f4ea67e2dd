package remote

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/exec"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/util"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
)

// DefaultTimeout bounds each command when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Minute

// Options configures an SSHRunner.
type Options struct {
	// Shell wraps every remote command, e.g. "bash -l -c" so tools installed
	// through the login profile (drush under composer) are on PATH.
	// Empty runs the command as-is.
	Shell string

	// Timeout bounds each command and transfer. Zero means DefaultTimeout.
	Timeout time.Duration

	// SSHConfigFile is passed to rsync's ssh as -F when set.
	SSHConfigFile string

	// Stdout and Stderr receive uncaptured local output. Default os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	Logger logger.Logger
}

// SSHRunner implements Runner over an established SSH connection.
type SSHRunner struct {
	client sshutil.SSHClient
	opts   Options
	log    logger.Logger
}

// NewSSHRunner wraps client. The client's host alias is reused for transfers.
func NewSSHRunner(client sshutil.SSHClient, opts Options) *SSHRunner {
	opts, log := opts.withDefaults()
	return &SSHRunner{client: client, opts: opts, log: log}
}

func (o Options) withDefaults() (Options, logger.Logger) {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	log := o.Logger
	if log == nil {
		log = logger.NewEnvLogger("[remote]")
	}
	return o, log
}

// Host returns the SSH alias this runner is connected to.
func (r *SSHRunner) Host() string {
	return r.client.GetHost()
}

func (r *SSHRunner) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opts.Timeout)
}

// RunRemote runs command on the remote host from workDir.
func (r *SSHRunner) RunRemote(ctx context.Context, workDir, command string) (Result, error) {
	line := BuildRemoteCommand(r.opts.Shell, workDir, command)
	r.log.Debug("%s$ %s", r.client.GetHost(), MaskSecrets(line))

	ctx, cancel := r.bound(ctx)
	defer cancel()

	stdout, stderr, code, err := r.client.ExecContext(ctx, line)
	if err != nil {
		return Result{ExitStatus: -1}, channelError(err, r.client.GetHost(), command)
	}

	res := Result{Stdout: string(stdout), Stderr: string(stderr), ExitStatus: code}
	r.log.Debug("exit %d", code)

	if nfErr := exec.HandleExecError("remote", command, res.Stderr, code); nfErr != nil {
		return res, nfErr
	}
	return res, nil
}

// RunLocal runs command through the local shell.
func (r *SSHRunner) RunLocal(ctx context.Context, command string, capture bool) (Result, error) {
	return runLocal(ctx, r.opts, r.log, command, capture)
}

// BuildRemoteCommand assembles the line sent over SSH: an optional cd into
// workDir, then command, all wrapped by shell when one is configured.
func BuildRemoteCommand(shell, workDir, command string) string {
	inner := command
	if workDir != "" {
		inner = "cd " + util.ShellPath(workDir) + " && " + command
	}
	if strings.TrimSpace(shell) == "" {
		return inner
	}
	return shell + " " + util.ShellQuote(inner)
}

var passwordArg = regexp.MustCompile(`(--password=)(?:'[^']*'|\\'|[^\s'])+`)

// MaskSecrets hides --password values before a command line is logged.
func MaskSecrets(command string) string {
	return passwordArg.ReplaceAllString(command, "${1}***")
}

// channelError gives transport failures a code. Errors from sshutil already
// carry one; bare context errors come from test doubles.
func channelError(err error, host, command string) error {
	var nErr *errors.Error
	if stderrors.As(err, &nErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapWithCode(err, errors.ErrTimeout,
			fmt.Sprintf("Remote command timed out: %s", command),
			"Raise the limit with --timeout or the 'timeout' config key.")
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.WrapWithCode(err, errors.ErrAbort,
			fmt.Sprintf("Remote command cancelled: %s", command), "")
	}
	return errors.WrapWithCode(err, errors.ErrSSH,
		fmt.Sprintf("Lost the SSH channel to '%s'", host),
		"Check the connection with: ssh "+host)
}
