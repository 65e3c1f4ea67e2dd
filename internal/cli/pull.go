package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/drush"
	"github.com/neoprene-dev/neoprene/internal/pull"
	"github.com/neoprene-dev/neoprene/internal/require"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

func pullDBCommand(ctx context.Context, siteArg string, keepDump bool) error {
	wf, err := SetupWorkflow(ctx, workflowOptions())
	if err != nil {
		return err
	}
	defer wf.Close()

	return runPullDB(ctx, wf, siteArg, keepDump)
}

// runPullDB runs the pull pipeline over an established workflow.
func runPullDB(ctx context.Context, wf *WorkflowContext, siteArg string, keepDump bool) error {
	siteDir, err := wf.SiteDir(siteArg)
	if err != nil {
		return err
	}

	cfg := wf.Config
	if err := wf.Require(ctx, pullTools(cfg, siteDir)...); err != nil {
		return err
	}
	lk, err := wf.LockSite(ctx, siteDir, "pull-db")
	if err != nil {
		return err
	}
	defer wf.release(ctx, lk)

	pipeline := pull.NewPipeline(wf.Runner, wf.Prompter, wf.Out, pull.Settings{
		Tools: pull.Tools{
			Drush:      cfg.Tools.Drush,
			MySQL:      cfg.Tools.MySQL,
			MySQLAdmin: cfg.Tools.MySQLAdmin,
		},
		StagingDir: cfg.StagingDir,
		Logger:     wf.Log,
	})

	res, err := pipeline.Run(ctx, pull.Options{
		SiteDir:    siteDir,
		Conn:       localConn(cfg),
		OptionFile: cfg.LocalDB.MyCnf,
		KeepDump:   cfg.KeepDump || keepDump,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(wf.Out)
	fmt.Fprintln(wf.Out, ui.RenderDone(fmt.Sprintf("Pulled %s from %s into %s in %s",
		siteDir, wf.Conn.Name, res.Database, res.Duration.Round(time.Second))))
	if !res.DumpRemoved {
		fmt.Fprintln(wf.Out, ui.RenderMuted("Dump kept at "+res.Dump.Path))
	}
	return nil
}

// pullTools are the executables pull-db drives on each side.
func pullTools(cfg *config.Config, siteDir string) []require.Tool {
	return []require.Tool{
		require.RemoteTool(cfg.Tools.Drush, siteDir),
		require.RemoteTool("rsync", ""),
		require.LocalTool("rsync"),
		require.LocalTool(cfg.Tools.MySQL),
		require.LocalTool(cfg.Tools.MySQLAdmin),
	}
}

func dumpCommand(ctx context.Context, siteArg string) error {
	wf, err := SetupWorkflow(ctx, workflowOptions())
	if err != nil {
		return err
	}
	defer wf.Close()

	_, err = runDump(ctx, wf, siteArg)
	return err
}

// runDump backs up the live database and prints the dump's remote path.
func runDump(ctx context.Context, wf *WorkflowContext, siteArg string) (drush.BackupArtifact, error) {
	siteDir, err := wf.SiteDir(siteArg)
	if err != nil {
		return drush.BackupArtifact{}, err
	}
	if err := wf.Require(ctx, require.RemoteTool(wf.Config.Tools.Drush, siteDir)); err != nil {
		return drush.BackupArtifact{}, err
	}
	lk, err := wf.LockSite(ctx, siteDir, "dump")
	if err != nil {
		return drush.BackupArtifact{}, err
	}
	defer wf.release(ctx, lk)

	locator := drush.NewLocator(wf.Runner,
		drush.WithDrush(wf.Config.Tools.Drush),
		drush.WithLogger(wf.Log))

	pd := ui.NewPhaseDisplay(wf.Out)
	ui.PrintSection(wf.Out, pull.RemoteSection)

	var artifact drush.BackupArtifact
	err = pd.Step("Backup located", false, func() error {
		var err error
		artifact, err = locator.Locate(ctx, siteDir)
		return err
	})
	if err != nil {
		return artifact, err
	}

	fmt.Fprintln(wf.Out, artifact.RemotePath())
	return artifact, nil
}
