package cli

import (
	"context"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/devenv"
	"github.com/neoprene-dev/neoprene/internal/require"
)

func devEnvCommand(ctx context.Context, livePath, targetPath string) error {
	wf, err := SetupWorkflow(ctx, workflowOptions())
	if err != nil {
		return err
	}
	defer wf.Close()

	_, err = runDevEnv(ctx, wf, livePath, targetPath)
	return err
}

// runDevEnv provisions a development clone next to the live site.
func runDevEnv(ctx context.Context, wf *WorkflowContext, livePath, targetPath string) (devenv.Environment, error) {
	if err := wf.Require(ctx, require.RemoteTool(wf.Config.Tools.Git, "")); err != nil {
		return devenv.Environment{}, err
	}

	prov := devenv.NewProvisioner(wf.Runner, wf.Prompter, wf.Out, wf.Log)
	prov.Git = wf.Config.Tools.Git

	return prov.Provision(ctx, devenv.Environment{
		LiveSourcePath: config.ExpandRemote(livePath),
		TargetPath:     config.ExpandRemote(targetPath),
	})
}
