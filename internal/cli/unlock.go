package cli

import (
	"context"
	"fmt"

	"github.com/neoprene-dev/neoprene/internal/lock"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

func unlockCommand(ctx context.Context, siteArg string) error {
	wf, err := SetupWorkflow(ctx, workflowOptions())
	if err != nil {
		return err
	}
	defer wf.Close()

	return runUnlock(ctx, wf, siteArg)
}

// runUnlock removes the site lock whoever holds it.
func runUnlock(ctx context.Context, wf *WorkflowContext, siteArg string) error {
	siteDir, err := wf.SiteDir(siteArg)
	if err != nil {
		return err
	}

	holder, err := lock.ForceRelease(ctx, wf.Runner, wf.Config.Lock, siteDir)
	if err != nil {
		return err
	}
	if holder == "" {
		fmt.Fprintln(wf.Out, ui.RenderMuted(fmt.Sprintf("%s on %s isn't locked.", siteDir, wf.HostName)))
		return nil
	}
	fmt.Fprintln(wf.Out, ui.RenderDone(fmt.Sprintf("Released the lock on %s held by %s", siteDir, holder)))
	return nil
}
