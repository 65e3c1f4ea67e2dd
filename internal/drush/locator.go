package drush

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/remote"
)

// BackupExtension is appended to the name Backup and Migrate reports.
const BackupExtension = ".mysql.gz"

// BackupArtifact locates a dump on the remote host.
// RemoteDirectory is absolute and ends in "/"; FileName ends in BackupExtension.
type BackupArtifact struct {
	RemoteDirectory string
	FileName        string
}

// RemotePath is the absolute path of the dump.
func (a BackupArtifact) RemotePath() string {
	return a.RemoteDirectory + a.FileName
}

// Locator triggers a Backup and Migrate dump and works out where it landed.
type Locator struct {
	runner remote.Runner
	parser Parser
	drush  string
	log    logger.Logger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithParser replaces the default RegexpParser.
func WithParser(p Parser) LocatorOption {
	return func(l *Locator) { l.parser = p }
}

// WithDrush sets the drush binary, e.g. "vendor/bin/drush".
func WithDrush(bin string) LocatorOption {
	return func(l *Locator) {
		if bin != "" {
			l.drush = bin
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) LocatorOption {
	return func(l *Locator) { l.log = logger.OrNoop(log) }
}

// NewLocator returns a Locator running drush through runner.
func NewLocator(runner remote.Runner, opts ...LocatorOption) *Locator {
	l := &Locator{
		runner: runner,
		parser: NewRegexpParser(),
		drush:  "drush",
		log:    logger.NewEnvLogger("[drush]"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate runs a manual backup of the site's default database and returns
// where the dump was written. It never returns a partially filled artifact.
func (l *Locator) Locate(ctx context.Context, siteDirectory string) (BackupArtifact, error) {
	backupCmd := l.drush + " bam-backup"
	res, err := l.runner.RunRemote(ctx, siteDirectory, backupCmd)
	if err != nil {
		return BackupArtifact{}, err
	}

	name, err := l.parse(res, backupCmd, l.parser.BackupName)
	if err != nil {
		return BackupArtifact{}, err
	}

	// Silent lookup: the operator only sees it with --verbose.
	vgetCmd := l.drush + " vget file_private_path"
	res, err = l.runner.RunRemote(ctx, siteDirectory, vgetCmd)
	if err != nil {
		return BackupArtifact{}, err
	}
	l.log.Debug("%s: %s", vgetCmd, Normalize(res.Combined()))

	private, err := l.parse(res, vgetCmd, l.parser.PrivatePath)
	if err != nil {
		return BackupArtifact{}, err
	}
	if private, err = l.expandHome(ctx, private); err != nil {
		return BackupArtifact{}, err
	}

	return BackupArtifact{
		RemoteDirectory: backupDirectory(siteDirectory, private),
		FileName:        name + BackupExtension,
	}, nil
}

// parse applies extract to the normalized output of command. A non-zero exit
// whose output still matches is logged and accepted; one that doesn't match
// is a remote failure rather than a parse failure.
func (l *Locator) parse(res remote.Result, command string, extract func(string) (string, error)) (string, error) {
	normalized := Normalize(res.Combined())
	value, err := extract(normalized)

	if !res.OK() {
		if err == nil {
			l.log.Warn("%s exited %d but reported success", command, res.ExitStatus)
			return value, nil
		}
		return "", errors.WrapWithCode(err, errors.ErrRemote,
			fmt.Sprintf("'%s' failed with exit status %d", command, res.ExitStatus),
			diagnostic(res))
	}

	if err != nil {
		var pErr *ParseError
		suggestion := "Check that the Backup and Migrate module is enabled on the site."
		if stderrors.As(err, &pErr) && pErr.What == "private files path" {
			suggestion = "Set a private file system path in the site's file system settings."
		}
		return "", errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Couldn't understand the output of '%s'", command),
			suggestion)
	}
	return value, nil
}

// expandHome replaces a leading ~ with the remote user's home directory.
func (l *Locator) expandHome(ctx context.Context, private string) (string, error) {
	if private != "~" && !strings.HasPrefix(private, "~/") {
		return private, nil
	}
	res, err := l.runner.RunRemote(ctx, "", "echo $HOME")
	if err != nil {
		return "", err
	}
	home := strings.TrimSpace(res.Stdout)
	if !res.OK() || !path.IsAbs(home) {
		return "", errors.New(errors.ErrParse,
			fmt.Sprintf("Couldn't resolve the private files path %s", private),
			"Set an absolute private file system path in the site's file system settings.")
	}
	l.log.Debug("expanded %s with home %s", private, home)
	return path.Join(home, strings.TrimPrefix(private, "~")), nil
}

// backupDirectory joins the private path with the Backup and Migrate manual
// destination. Relative private paths are relative to the site root.
func backupDirectory(siteDirectory, private string) string {
	if !path.IsAbs(private) {
		private = path.Join(siteDirectory, private)
	}
	return path.Join(path.Clean(private), "backup_migrate", "manual") + "/"
}

func diagnostic(res remote.Result) string {
	if d := strings.TrimSpace(res.Stderr); d != "" {
		return d
	}
	return strings.TrimSpace(res.Stdout)
}
