// Package pull copies a live Drupal site's database onto this machine: back
// it up with drush, download and unpack the dump, create a local database
// and import the dump into it.
package pull

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/neoprene-dev/neoprene/internal/drush"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/mysql"
	"github.com/neoprene-dev/neoprene/internal/prompt"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/transfer"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

// Section titles printed between the remote and local halves of a pull.
const (
	RemoteSection = "Getting a database backup of your remote site."
	LocalSection  = "Importing the database on your local machine."
)

// Tools names the executables a pull runs. Empty fields keep the defaults.
type Tools struct {
	Drush      string
	MySQL      string
	MySQLAdmin string
}

// Settings configures a Pipeline.
type Settings struct {
	Tools      Tools
	StagingDir string
	Logger     logger.Logger
}

// Options describes one pull.
type Options struct {
	// SiteDir is the Drupal root on the remote host.
	SiteDir string

	// Conn is the local server. An empty User is filled in with the
	// operator's login name.
	Conn mysql.ConnectionInfo

	// OptionFile is the MySQL option file consulted when Conn has no password.
	OptionFile string

	// KeepDump leaves the decompressed dump in the staging directory.
	KeepDump bool

	// RunID names the staging directory. Empty picks a random one.
	RunID string
}

// Result is what a pull produced, filled in as far as the run got.
type Result struct {
	Artifact    drush.BackupArtifact
	Dump        transfer.LocalArtifact
	User        string
	Database    string
	DumpRemoved bool
	Phases      []ui.PhaseResult
	Duration    time.Duration
}

// Pipeline runs the pull steps in order and stops at the first failure.
type Pipeline struct {
	Locator  *drush.Locator
	Fetcher  *transfer.Fetcher
	Creator  *mysql.Creator
	Importer *mysql.Importer

	runner remote.Runner
	out    io.Writer
	log    logger.Logger
}

// NewPipeline wires the pull steps to runner and prompter.
func NewPipeline(runner remote.Runner, prompter prompt.Prompter, out io.Writer, s Settings) *Pipeline {
	log := s.Logger
	if log == nil {
		log = logger.NewEnvLogger("[pull]")
	}

	locatorOpts := []drush.LocatorOption{drush.WithLogger(log)}
	if s.Tools.Drush != "" {
		locatorOpts = append(locatorOpts, drush.WithDrush(s.Tools.Drush))
	}

	creator := mysql.NewCreator(runner, prompter, out, log)
	if s.Tools.MySQLAdmin != "" {
		creator.Binary = s.Tools.MySQLAdmin
	}
	importer := mysql.NewImporter(runner, out, log)
	if s.Tools.MySQL != "" {
		importer.Binary = s.Tools.MySQL
	}

	return &Pipeline{
		Locator:  drush.NewLocator(runner, locatorOpts...),
		Fetcher:  transfer.NewFetcher(runner, s.StagingDir, log),
		Creator:  creator,
		Importer: importer,
		runner:   runner,
		out:      out,
		log:      log,
	}
}

// Run performs the pull. On error the Result holds everything settled
// before the failing step; a failed download or import leaves the dump on
// disk.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	pd := ui.NewPhaseDisplay(p.out)

	res, err := p.run(ctx, pd, opts)
	res.Phases = pd.Results()
	res.Duration = time.Since(start)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, pd *ui.PhaseDisplay, opts Options) (Result, error) {
	var res Result
	runID := opts.RunID
	if runID == "" {
		runID = transfer.NewRunID()
	}

	ui.PrintSection(p.out, RemoteSection)

	err := pd.Step("Backup located", false, func() error {
		var err error
		res.Artifact, err = p.Locator.Locate(ctx, opts.SiteDir)
		return err
	})
	if err != nil {
		return res, err
	}
	pd.RenderSubStatus(ui.SymbolPending, "remote dump", res.Artifact.RemotePath())

	err = pd.Step("Backup downloaded", false, func() error {
		var err error
		res.Dump, err = p.Fetcher.FetchRun(ctx, res.Artifact, runID)
		return err
	})
	if err != nil {
		return res, err
	}
	pd.RenderSubStatus(ui.SymbolPending, "local dump", res.Dump.Path)

	ui.PrintSection(p.out, LocalSection)

	conn, err := p.resolveConnection(ctx, opts)
	if err != nil {
		return res, err
	}
	res.User = conn.User
	p.printCredentials(pd, conn, opts.OptionFile)

	err = pd.Step("Database created", true, func() error {
		var err error
		res.Database, err = p.Creator.CreateInteractively(ctx, mysql.Local, conn)
		return err
	})
	if err != nil {
		return res, err
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Importing the database...")
	err = pd.Step("Database imported", true, func() error {
		return p.Importer.Import(ctx, res.Database, res.Dump, conn)
	})
	if err != nil {
		return res, err
	}

	if opts.KeepDump {
		pd.RenderSkipped("Cleanup", "keep_dump is set")
		return res, nil
	}
	err = pd.Step("Dump removed", false, func() error {
		return removeDump(res.Dump.Path)
	})
	if err != nil {
		return res, err
	}
	res.DumpRemoved = true
	return res, nil
}

// resolveConnection fills in the local user from whoami when none is set.
func (p *Pipeline) resolveConnection(ctx context.Context, opts Options) (mysql.ConnectionInfo, error) {
	conn := opts.Conn
	if conn.User != "" {
		return conn, nil
	}
	user, err := mysql.LocalUser(ctx, p.runner)
	if err != nil {
		return conn, err
	}
	p.log.Debug("local_db.user unset, using %s", user)
	conn.User = user
	return conn, nil
}

func (p *Pipeline) printCredentials(pd *ui.PhaseDisplay, conn mysql.ConnectionInfo, optionFile string) {
	fmt.Fprintln(p.out, "Writing to your local database using these credentials:")
	pd.RenderSubStatus(ui.SymbolPending, "hostname:", displayOr(conn.Host, "(client default)"))
	pd.RenderSubStatus(ui.SymbolPending, "username:", conn.User)
	pd.RenderSubStatus(ui.SymbolPending, "password:", conn.PasswordSummary(optionFile))

	if conn.Password != nil || optionFile == "" {
		return
	}
	of, err := mysql.ReadOptionFile(optionFile)
	switch {
	case err != nil:
		p.log.Warn("%v", err)
	case !of.Exists:
		fmt.Fprintln(p.out, ui.RenderNotice(fmt.Sprintf("%s doesn't exist, so mysql will connect without a password.", optionFile)))
	case !of.HasPassword:
		fmt.Fprintln(p.out, ui.RenderNotice(fmt.Sprintf("%s has no password under [client], so mysql will connect without one.", optionFile)))
	}
}

// removeDump deletes the dump and then its staging directory if that is
// now empty.
func removeDump(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrImport,
			fmt.Sprintf("Couldn't remove %s", path),
			"Delete it by hand, or set keep_dump: true to keep dumps.")
	}
	_ = os.Remove(filepath.Dir(path))
	return nil
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
