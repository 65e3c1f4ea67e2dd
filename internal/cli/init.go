package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/host"
	"github.com/neoprene-dev/neoprene/internal/prompt"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

// Environment variables read by 'neoprene init' when flags are empty.
const (
	envInitSSH        = "NEOPRENE_INIT_SSH"
	envInitName       = "NEOPRENE_INIT_NAME"
	envInitSiteDir    = "NEOPRENE_INIT_SITE_DIR"
	envNonInteractive = "NEOPRENE_NON_INTERACTIVE"
	defaultInitName   = "live"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Name           string // Host name in the config
	SSH            string // SSH destination of the live site
	SiteDir        string // Drupal root on the host
	Overwrite      bool   // Overwrite existing config without asking
	AddHost        bool   // Add the host to an existing config
	NonInteractive bool   // Skip prompts, use flags and environment
	SkipProbe      bool   // Don't test the SSH connection
}

// initDeps are the parts of Init that touch the terminal, the network or
// the working directory.
type initDeps struct {
	prompter prompt.Prompter
	dial     host.DialFunc
	out      io.Writer
	dir      string
}

// Init creates .neoprene.yaml in the current directory, or adds a host to it.
func Init(ctx context.Context, opts InitOptions) error {
	dir, err := os.Getwd()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get working directory",
			"Check directory permissions")
	}
	return runInit(ctx, mergeInitOptions(opts), initDeps{
		prompter: prompt.NewHuhPrompter(),
		dial:     host.DialSSH,
		out:      os.Stdout,
		dir:      dir,
	})
}

// initDefaults are values picked up from the environment.
type initDefaults struct {
	SSH            string
	Name           string
	SiteDir        string
	NonInteractive bool
}

func getInitDefaults() initDefaults {
	return initDefaults{
		SSH:            os.Getenv(envInitSSH),
		Name:           os.Getenv(envInitName),
		SiteDir:        os.Getenv(envInitSiteDir),
		NonInteractive: os.Getenv(envNonInteractive) != "" || os.Getenv("CI") != "",
	}
}

// mergeInitOptions fills empty flags from the environment. CI forces
// non-interactive mode.
func mergeInitOptions(opts InitOptions) InitOptions {
	d := getInitDefaults()
	if opts.SSH == "" {
		opts.SSH = d.SSH
	}
	if opts.Name == "" {
		opts.Name = d.Name
	}
	if opts.SiteDir == "" {
		opts.SiteDir = d.SiteDir
	}
	if d.NonInteractive {
		opts.NonInteractive = true
	}
	return opts
}

// extractHostname returns the host part of user@host.
func extractHostname(dest string) string {
	if i := strings.LastIndex(dest, "@"); i >= 0 {
		return dest[i+1:]
	}
	return dest
}

// suggestHostName derives a config name from an SSH destination:
// deploy@live.example.com becomes "live".
func suggestHostName(dest string) string {
	h := extractHostname(dest)
	if i := strings.Index(h, ":"); i >= 0 {
		h = h[:i]
	}
	if i := strings.Index(h, "."); i > 0 && !isIPv4(h) {
		h = h[:i]
	}
	if h == "" || strings.ContainsAny(h, "@/") {
		return defaultInitName
	}
	return h
}

func isIPv4(s string) bool {
	return strings.Trim(s, "0123456789.") == "" && strings.Count(s, ".") == 3
}

func validateHostName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("host name is required")
	case strings.ContainsAny(name, " \t\n@/"):
		return fmt.Errorf("host name cannot contain whitespace, '@' or '/'")
	}
	return nil
}

func runInit(ctx context.Context, opts InitOptions, deps initDeps) error {
	configPath := filepath.Join(deps.dir, config.ConfigFileName)
	_, statErr := os.Stat(configPath)
	exists := statErr == nil

	switch {
	case opts.AddHost && !exists:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("No %s to add a host to", config.ConfigFileName),
			"Run 'neoprene init' without --add-host first.")
	case !opts.AddHost && exists && !opts.Overwrite:
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite, or --add-host to add a host to it.")
		}
		overwrite, err := deps.prompter.Confirm(ctx,
			fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName), true)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(deps.out, "Cancelled.")
			return nil
		}
	}

	h, name, err := collectInitHost(ctx, opts, deps)
	if err != nil {
		return err
	}

	if !opts.SkipProbe {
		if err := probeInitHost(ctx, opts, deps, name, h); err != nil {
			return err
		}
	}

	if opts.AddHost {
		if err := config.AddHost(configPath, name, h); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Failed to add host '%s' to %s", name, configPath),
				"Check the file is valid YAML.")
		}
		fmt.Fprintf(deps.out, "%s Added host '%s' to %s\n", ui.SymbolSuccess, name, configPath)
		return nil
	}

	if err := config.Write(configPath, config.StarterConfig(name, h.SSH, h.SiteDir), true); err != nil {
		return err
	}

	fmt.Fprintf(deps.out, "%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Fprintln(deps.out, "Next steps:")
	fmt.Fprintln(deps.out, "  neoprene dump      - Back up the live database")
	fmt.Fprintln(deps.out, "  neoprene pull-db   - Copy the live database into a local one")
	fmt.Fprintln(deps.out, "  neoprene db list   - Show local databases")
	return nil
}

// collectInitHost prompts for whatever the flags left empty.
func collectInitHost(ctx context.Context, opts InitOptions, deps initDeps) (config.Host, string, error) {
	dest, name, siteDir := opts.SSH, opts.Name, opts.SiteDir

	if opts.NonInteractive {
		if dest == "" {
			return config.Host{}, "", errors.New(errors.ErrConfig,
				"SSH destination is required in non-interactive mode",
				"Pass --ssh or set "+envInitSSH+".")
		}
		if name == "" {
			name = suggestHostName(dest)
		}
	} else {
		var err error
		if dest == "" {
			dest, err = deps.prompter.Ask(ctx, "SSH destination of the live site (hostname, user@host, or SSH config alias):", requireValue("an SSH destination"))
			if err != nil {
				return config.Host{}, "", err
			}
		}
		if name == "" {
			suggested := suggestHostName(dest)
			name, err = deps.prompter.Ask(ctx, fmt.Sprintf("Name for this host in the config (empty for %s):", suggested), func(s string) error {
				if s == "" {
					return nil
				}
				return validateHostName(s)
			})
			if err != nil {
				return config.Host{}, "", err
			}
			if name == "" {
				name = suggested
			}
		}
		if siteDir == "" {
			siteDir, err = deps.prompter.Ask(ctx, "Drupal root on that host (empty to pass it on each run):", nil)
			if err != nil {
				return config.Host{}, "", err
			}
		}
	}

	if err := validateHostName(name); err != nil {
		return config.Host{}, "", errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' can't be used as a host name", name),
			"Use something like 'live' or 'prod'.")
	}
	return config.Host{SSH: []string{dest}, SiteDir: siteDir}, name, nil
}

// probeInitHost tests the connection. Interactive runs may save anyway.
func probeInitHost(ctx context.Context, opts InitOptions, deps initDeps, name string, h config.Host) error {
	selector := host.NewSelector(dialOptions(config.DefaultConfig(), ""))
	selector.SetDialer(deps.dial)

	spinner := ui.NewSpinner(deps.out, "Testing connection to "+h.SSH[0])
	selector.SetEventHandler(func(event host.ConnectionEvent) {
		if event.Type == host.EventTrying {
			spinner.SetLabel("Testing connection to " + event.Alias)
		}
	})
	spinner.Start()

	conn, err := selector.Connect(ctx, name, h)
	if err == nil {
		spinner.Success()
		conn.Close() //nolint:errcheck // probe connection only
		return nil
	}
	if errors.IsAbort(err) {
		spinner.Skip()
		return err
	}
	spinner.Fail()

	if opts.NonInteractive {
		return err
	}

	fmt.Fprintf(deps.out, "\n%s Connection to '%s' failed\n\n", ui.SymbolFail, h.SSH[0])
	save, confirmErr := deps.prompter.Confirm(ctx, "Save config anyway? (You can fix the connection later)", true)
	if confirmErr != nil {
		return confirmErr
	}
	if !save {
		return err
	}
	return nil
}
