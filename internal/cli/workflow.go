package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/host"
	"github.com/neoprene-dev/neoprene/internal/lock"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/mysql"
	"github.com/neoprene-dev/neoprene/internal/prompt"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/require"
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
	"golang.org/x/term"
)

// WorkflowOptions configures workflow setup behavior.
type WorkflowOptions struct {
	Host        string // Preferred host name or SSH destination
	TimeoutFlag string // Raw --timeout value; overrides the config when set
	SkipChecks  bool   // Don't look for the tools before running them
}

// WorkflowContext holds state from workflow setup for use during execution.
type WorkflowContext struct {
	Config     *config.Config
	ConfigPath string
	HostName   string
	Host       config.Host
	Conn       *host.Connection
	Runner     remote.Runner
	Prompter   prompt.Prompter
	Out        io.Writer
	Log        logger.Logger
	StartTime  time.Time
	SkipChecks bool
}

// Close releases the SSH connection and the agent connection behind it.
func (w *WorkflowContext) Close() {
	if w.Conn != nil {
		w.Conn.Close() //nolint:errcheck // Close errors after the work is done are non-fatal
	}
	sshutil.CloseAgent()
}

// SiteDir returns the Drupal root to work on: the argument when given,
// otherwise the host's site_dir.
func (w *WorkflowContext) SiteDir(arg string) (string, error) {
	if arg = strings.TrimSpace(arg); arg != "" {
		return config.ExpandRemote(arg), nil
	}
	if w.Host.SiteDir != "" {
		return w.Host.SiteDir, nil
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("No site directory for host '%s'", w.HostName),
		fmt.Sprintf("Pass it as an argument, or set hosts.%s.site_dir in %s.", w.HostName, config.ConfigFileName))
}

// Require fails when any of tools is missing. Results are cached for the
// life of the process.
func (w *WorkflowContext) Require(ctx context.Context, tools ...require.Tool) error {
	if w.SkipChecks {
		return nil
	}
	return require.Preflight(ctx, w.Runner, tools, require.GlobalCache(), w.HostName)
}

// LockSite takes the site lock for siteDir when locking is enabled. The
// returned Lock may be nil; releasing it is always safe.
func (w *WorkflowContext) LockSite(ctx context.Context, siteDir, command string) (*lock.Lock, error) {
	if !w.Config.Lock.Enabled {
		return nil, nil
	}
	w.Log.Debug("waiting for the lock on %s", siteDir)
	return lock.Acquire(ctx, w.Runner, w.Config.Lock, siteDir, command)
}

// release drops l, logging rather than returning a failure.
func (w *WorkflowContext) release(ctx context.Context, l *lock.Lock) {
	if err := l.Release(context.WithoutCancel(ctx)); err != nil {
		w.Log.Warn("couldn't release %s: %v", l.Dir, err)
	}
}

// workflowDeps are the pieces of SetupWorkflow that touch the terminal or
// the network.
type workflowDeps struct {
	dial      host.DialFunc
	prompter  prompt.Prompter
	out       io.Writer
	pick      func(hosts []ui.SSHHostInfo) (*ui.SSHHostInfo, ui.PickOutcome, error)
	sshConfig string
}

func defaultWorkflowDeps() workflowDeps {
	return workflowDeps{
		dial:      host.DialSSH,
		prompter:  prompt.NewHuhPrompter(),
		out:       os.Stdout,
		pick:      pickOnTerminal,
		sshConfig: sshutil.DefaultConfigPath(),
	}
}

// pickOnTerminal shows the host picker when stdin is a terminal and asks
// for a destination by hand otherwise.
func pickOnTerminal(hosts []ui.SSHHostInfo) (*ui.SSHHostInfo, ui.PickOutcome, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, ui.PickManual, nil
	}
	return ui.PickSSHHost(hosts, os.Stdin, os.Stdout)
}

// loadConfig finds, loads and validates the config. A missing file is not
// an error: defaults and NEOPRENE_* overrides apply.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// SetupWorkflow loads config, picks the host and connects to it. The
// caller must Close() the returned context.
func SetupWorkflow(ctx context.Context, opts WorkflowOptions) (*WorkflowContext, error) {
	return setupWorkflow(ctx, opts, defaultWorkflowDeps())
}

func setupWorkflow(ctx context.Context, opts WorkflowOptions, deps workflowDeps) (*WorkflowContext, error) {
	wf := &WorkflowContext{
		StartTime:  time.Now(),
		Prompter:   deps.prompter,
		Out:        deps.out,
		Log:        logger.NewEnvLogger("[neoprene]"),
		SkipChecks: opts.SkipChecks,
	}

	var err error
	wf.Config, wf.ConfigPath, err = loadConfig()
	if err != nil {
		return nil, err
	}
	if wf.ConfigPath != "" {
		wf.Log.Debug("using config %s", wf.ConfigPath)
	}

	timeout, err := resolveTimeout(opts.TimeoutFlag, wf.Config.Timeout)
	if err != nil {
		return nil, err
	}

	name, h, ok, err := config.ResolveHost(wf.Config, opts.Host)
	if err != nil {
		return nil, err
	}
	if !ok {
		name, h, err = chooseHost(ctx, deps, wf.Log)
		if err != nil {
			return nil, err
		}
	}
	wf.HostName, wf.Host = name, h

	selector := host.NewSelector(dialOptions(wf.Config, deps.sshConfig))
	selector.SetDialer(deps.dial)

	connDisplay := ui.NewConnectionDisplay(deps.out)
	connDisplay.Start()
	selector.SetEventHandler(func(event host.ConnectionEvent) {
		switch event.Type {
		case host.EventFailed:
			connDisplay.AddAttempt(event.Alias, dialStatus(event.Error), event.Latency, event.Message)
		case host.EventConnected:
			connDisplay.AddAttempt(event.Alias, ui.StatusSuccess, event.Latency, "")
		}
	})

	wf.Conn, err = selector.Connect(ctx, name, h)
	if err != nil {
		connDisplay.Fail(fmt.Sprintf("Couldn't reach %s", name))
		return nil, err
	}
	connDisplay.Success(wf.Conn.Name, wf.Conn.Alias)
	if connDisplay.HasFailedAttempts() {
		wf.Log.Warn("%s answered on %s after earlier destinations failed; check hosts.%s.ssh order", name, wf.Conn.Alias, name)
	}

	wf.Runner = remote.NewSSHRunner(wf.Conn.Client, remote.Options{
		Shell:   wf.Config.Shell,
		Timeout: timeout,
		Stdout:  deps.out,
		Logger:  logger.NewEnvLogger("[remote]"),
	})
	return wf, nil
}

// dialOptions carries the SSH settings from cfg into each dial.
func dialOptions(cfg *config.Config, sshConfig string) sshutil.DialOptions {
	return sshutil.DialOptions{
		Timeout:               cfg.ProbeTimeout,
		InsecureIgnoreHostKey: !cfg.StrictHostKeyChecking,
		ConfigFile:            sshConfig,
		Logger:                logger.NewEnvLogger("[ssh]"),
	}
}

// chooseHost asks the operator which machine runs the live site when the
// config names none.
func chooseHost(ctx context.Context, deps workflowDeps, log logger.Logger) (string, config.Host, error) {
	candidates, err := host.Candidates(deps.sshConfig)
	if err != nil {
		log.Warn("couldn't read %s: %v", deps.sshConfig, err)
	}

	picked, outcome, err := deps.pick(candidates)
	if err != nil {
		return "", config.Host{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Host picker failed",
			"Pass --host, or run 'neoprene init' to save one.")
	}

	switch outcome {
	case ui.PickSelected:
		if picked != nil {
			return picked.Alias, config.Host{SSH: []string{picked.Alias}}, nil
		}
	case ui.PickCancelled:
		return "", config.Host{}, errors.NewAbort("no host chosen")
	}

	dest, err := deps.prompter.Ask(ctx, "SSH destination of the live site (user@hostname or alias):", requireValue("an SSH destination"))
	if err != nil {
		return "", config.Host{}, err
	}
	return dest, config.Host{SSH: []string{dest}}, nil
}

// dialStatus maps a failed attempt's error onto the connection display.
func dialStatus(err error) ui.ConnectionStatus {
	if de, ok := err.(*host.DialError); ok {
		return de.Reason.Status()
	}
	return ui.StatusFailed
}

// requireValue rejects blank answers.
func requireValue(what string) prompt.Validator {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

// localConn builds the local MySQL connection from config. An empty
// password defers to the option file.
func localConn(cfg *config.Config) mysql.ConnectionInfo {
	conn := mysql.ConnectionInfo{
		Host: cfg.LocalDB.Host,
		User: cfg.LocalDB.User,
	}
	if cfg.LocalDB.Password != "" {
		conn.Password = mysql.Password(cfg.LocalDB.Password)
	}
	return conn
}
