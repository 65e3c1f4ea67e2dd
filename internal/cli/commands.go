package cli

import (
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	pullKeepDump       bool
	initName           string
	initSSH            string
	initSiteDir        string
	initForce          bool
	initAddHost        bool
	initNonInteractive bool
	initSkipProbe      bool
)

// pullDBCmd copies the live database into a new local database
var pullDBCmd = &cobra.Command{
	Use:   "pull-db [site-dir]",
	Short: "Copy the live site's database into a new local database",
	Long: `Back up the live site's database with drush, download and unpack the dump,
then create a local database and import the dump into it.

The site directory defaults to the host's site_dir from .neoprene.yaml.
You are asked for the local database name until one can be created.

Examples:
  neoprene pull-db
  neoprene pull-db /var/www/html/site
  neoprene pull-db --host staging --keep-dump`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pullDBCommand(cmd.Context(), firstArg(args), pullKeepDump)
	},
}

// dumpCmd backs up the live database and prints where the dump is
var dumpCmd = &cobra.Command{
	Use:   "dump [site-dir]",
	Short: "Back up the live database and print the dump's remote path",
	Long: `Run a backup_migrate backup on the live site and print the absolute path
of the resulting dump on the remote host. Nothing is downloaded.

Examples:
  neoprene dump
  neoprene dump /var/www/html/site`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpCommand(cmd.Context(), firstArg(args))
	},
}

// devEnvCmd clones the live site into a development checkout
var devEnvCmd = &cobra.Command{
	Use:   "dev-env <live-path> <target-path>",
	Short: "Clone the live site into a development checkout on the same host",
	Long: `Clone the repository behind the live site into target-path on the same
host, then check out an existing branch or create a new one.

An existing target-path is only replaced after you confirm.

Examples:
  neoprene dev-env /var/www/html/site /var/www/html/site-dev
  neoprene dev-env --host prod /srv/live ~/dev/site`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return devEnvCommand(cmd.Context(), args[0], args[1])
	},
}

// unlockCmd removes a site lock left behind by a crashed run
var unlockCmd = &cobra.Command{
	Use:   "unlock [site-dir]",
	Short: "Release the site lock left behind by an interrupted backup",
	Long: `pull-db and dump hold a lock on the remote host while drush backs up the
site, so two operators can't back up the same site at once. If a run was
killed before it could clean up, remove the lock with this command.

Examples:
  neoprene unlock
  neoprene unlock /var/www/html/site`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return unlockCommand(cmd.Context(), firstArg(args))
	},
}

// dbCmd groups local database commands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the local MySQL server",
}

// dbListCmd lists local databases
var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the databases on the local MySQL server",
	Long: `List the databases visible with the local_db credentials.

Examples:
  neoprene db list`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dbListCommand(cmd.Context())
	},
}

// initCmd creates a new .neoprene.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .neoprene.yaml configuration",
	Long: `Create a .neoprene.yaml file in the current directory describing the host
that runs the live site.

Examples:
  neoprene init
  neoprene init --ssh deploy@live.example.com --site-dir /var/www/html/site
  neoprene init --add-host --name staging --ssh staging.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.Context(), InitOptions{
			Name:           initName,
			SSH:            initSSH,
			SiteDir:        initSiteDir,
			Overwrite:      initForce,
			AddHost:        initAddHost,
			NonInteractive: initNonInteractive,
			SkipProbe:      initSkipProbe,
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for neoprene.

Examples:
  # Bash
  neoprene completion bash > /etc/bash_completion.d/neoprene

  # Zsh
  neoprene completion zsh > "${fpath[1]}/_neoprene"

  # Fish
  neoprene completion fish > ~/.config/fish/completions/neoprene.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// pull-db command flags
	pullDBCmd.Flags().BoolVar(&pullKeepDump, "keep-dump", false, "keep the decompressed dump after importing it")

	// init command flags
	initCmd.Flags().StringVar(&initName, "name", "", "name for the host in the config (default: live)")
	initCmd.Flags().StringVar(&initSSH, "ssh", "", "SSH destination of the live site (user@host or alias)")
	initCmd.Flags().StringVar(&initSiteDir, "site-dir", "", "Drupal root on the host")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initAddHost, "add-host", false, "add a host to the existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; take values from flags")
	initCmd.Flags().BoolVar(&initSkipProbe, "skip-probe", false, "don't test the SSH connection")

	dbCmd.AddCommand(dbListCmd)

	// Register all commands
	rootCmd.AddCommand(pullDBCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(devEnvCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
