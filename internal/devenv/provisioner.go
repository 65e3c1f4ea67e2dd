package devenv

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/prompt"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/neoprene-dev/neoprene/internal/util"
)

// Provisioner clones a live site's repository on the same host and checks
// out a working branch. Nothing is rolled back: a failure after the clone
// leaves the clone on its default branch.
type Provisioner struct {
	runner   remote.Runner
	prompter prompt.Prompter
	out      io.Writer
	log      logger.Logger

	// Git is the git executable on the remote host.
	Git string
}

// NewProvisioner returns a Provisioner that reports progress to out.
func NewProvisioner(runner remote.Runner, prompter prompt.Prompter, out io.Writer, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.NewEnvLogger("[devenv]")
	}
	return &Provisioner{
		runner:   runner,
		prompter: prompter,
		out:      out,
		log:      log,
		Git:      "git",
	}
}

func (p *Provisioner) git(args ...string) string {
	return util.ShellJoin(append([]string{p.Git}, args...)...)
}

// Provision clones env.LiveSourcePath's origin into env.TargetPath and
// checks out a branch. The returned Environment carries whatever was
// settled before any error.
func (p *Provisioner) Provision(ctx context.Context, env Environment) (Environment, error) {
	env.RemoteURL = ""
	env.BranchMode = NoBranch
	env.BranchName = ""
	env.BaseBranch = ""

	url, err := p.discoverRemote(ctx, env.LiveSourcePath)
	if err != nil {
		return env, err
	}
	env.RemoteURL = url

	ui.PrintSection(p.out, "Checking the destination")
	if err := p.clearTarget(ctx, env.TargetPath); err != nil {
		return env, err
	}

	ui.PrintSection(p.out, "Cloning "+url)
	if err := p.expect(ctx, "", errors.ErrClone, p.git("clone", url)+" "+util.ShellPath(env.TargetPath)); err != nil {
		return env, err
	}

	ui.PrintSection(p.out, "Choosing a branch")
	if err := p.expect(ctx, env.TargetPath, errors.ErrRemote, p.git("fetch", "--all")); err != nil {
		return env, err
	}
	branches, err := p.runner.RunRemote(ctx, env.TargetPath, p.git("branch", "-a"))
	if err != nil {
		return env, err
	}
	fmt.Fprintln(p.out, strings.TrimRight(branches.Stdout, "\n"))
	fmt.Fprintln(p.out)

	answer, err := p.prompter.Ask(ctx, StrategyPrompt, prompt.Validator(ValidateStrategy))
	if err != nil {
		return env, err
	}
	mode, err := ParseStrategy(answer)
	if err != nil {
		return env, err
	}

	switch mode {
	case UseExisting:
		err = p.useExisting(ctx, &env)
	case CreateNew:
		err = p.createNew(ctx, &env)
	}
	if err != nil {
		return env, err
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, ui.RenderDone(fmt.Sprintf("%s is on branch %s", env.TargetPath, env.BranchName)))
	return env, nil
}

// discoverRemote reads origin's URL from the live checkout without showing
// the command to the operator.
func (p *Provisioner) discoverRemote(ctx context.Context, livePath string) (string, error) {
	res, err := p.runner.RunRemote(ctx, livePath, p.git("config", "--get", "remote.origin.url"))
	if err != nil {
		return "", err
	}
	url := strings.TrimSpace(res.Stdout)
	p.log.Debug("origin of %s: %q (exit %d)", livePath, url, res.ExitStatus)

	if !res.OK() || url == "" {
		return "", errors.New(errors.ErrRemote,
			fmt.Sprintf("Couldn't find the origin remote of %s", livePath),
			"Check that the path is a git checkout with a remote named origin.")
	}
	return url, nil
}

// clearTarget removes an existing directory at target, but only after the
// operator says yes. Saying no aborts the whole run.
func (p *Provisioner) clearTarget(ctx context.Context, target string) error {
	quoted := util.ShellPath(target)
	res, err := p.runner.RunRemote(ctx, "", "test -e "+quoted)
	if err != nil {
		return err
	}
	switch res.ExitStatus {
	case 0:
	case 1:
		return nil
	default:
		return errors.New(errors.ErrRemote,
			fmt.Sprintf("Couldn't check whether %s exists", target),
			strings.TrimSpace(res.Combined()))
	}

	fmt.Fprintln(p.out, ui.RenderDanger(fmt.Sprintf("A folder already exists at %s.", target)))
	ok, err := p.prompter.Confirm(ctx, "Do you wish to overwrite?", true)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewAbort("Quitting")
	}

	return p.expect(ctx, "", errors.ErrRemote,
		fmt.Sprintf("chmod -R u+w %s && rm -rf %s", quoted, quoted))
}

func (p *Provisioner) useExisting(ctx context.Context, env *Environment) error {
	env.BranchMode = UseExisting

	branch, err := p.prompter.Ask(ctx, "Which branch do you want to work on?", ValidateBranchName)
	if err != nil {
		return err
	}
	if err := p.expect(ctx, env.TargetPath, errors.ErrBranch, p.git("checkout", branch)); err != nil {
		return err
	}
	env.BranchName = branch

	return p.expect(ctx, env.TargetPath, errors.ErrRemote, p.git("pull", "origin", branch))
}

func (p *Provisioner) createNew(ctx context.Context, env *Environment) error {
	env.BranchMode = CreateNew

	base, err := p.prompter.Ask(ctx, "Which branch should the new branch start from?", ValidateBranchName)
	if err != nil {
		return err
	}
	if err := p.expect(ctx, env.TargetPath, errors.ErrBranch, p.git("checkout", base)); err != nil {
		return err
	}
	env.BaseBranch = base

	name, err := p.prompter.Ask(ctx, "What should the new branch be called?", ValidateBranchName)
	if err != nil {
		return err
	}
	if err := p.expect(ctx, env.TargetPath, errors.ErrBranch, p.git("checkout", "-b", name, base)); err != nil {
		return err
	}
	env.BranchName = name
	return nil
}

// expect runs command and turns a non-zero exit into a code error carrying
// the command's output.
func (p *Provisioner) expect(ctx context.Context, workDir, code, command string) error {
	res, err := p.runner.RunRemote(ctx, workDir, command)
	if err != nil {
		return err
	}
	if res.OK() {
		return nil
	}
	diag := strings.TrimSpace(res.Combined())
	if diag == "" {
		diag = fmt.Sprintf("exit status %d", res.ExitStatus)
	}
	return errors.New(code, fmt.Sprintf("'%s' failed", command), diag)
}
