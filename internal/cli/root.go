package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile     string
	hostFlag    string
	verbose     bool
	noColor     bool
	timeoutFlag string
	skipChecks  bool
)

var rootCmd = &cobra.Command{
	Use:   "neoprene",
	Short: "Pull a live Drupal site's database and set up dev environments",
	Long: `neoprene drives drush, git and mysql over SSH to copy a live Drupal
site's database onto this machine and to provision development checkouts
next to the live site.

Examples:
  neoprene pull-db
  neoprene pull-db --host prod /var/www/html/site
  neoprene dev-env /var/www/html/site ~/dev/site
  neoprene db list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		if noColor || !ui.ColorsRequested() {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .neoprene.yaml, searched upwards)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "host name from the config, or an SSH destination")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every command neoprene runs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", "", "bound on each remote or local command (e.g., 30s, 15m)")
	rootCmd.PersistentFlags().BoolVar(&skipChecks, "skip-checks", false, "don't check that drush, git, rsync and mysql are installed first")
}

// workflowOptions collects the global flags a workflow needs.
func workflowOptions() WorkflowOptions {
	return WorkflowOptions{Host: Host(), TimeoutFlag: timeoutFlag, SkipChecks: skipChecks}
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Host returns the --host flag value.
func Host() string {
	return hostFlag
}

// Timeout returns the parsed --timeout flag, zero when unset.
func Timeout() (time.Duration, error) {
	return ParseTimeout(timeoutFlag)
}

// Execute runs the root command and exits with the right status.
// An operator abort prints "Quitting" and exits 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	os.Exit(handleError(os.Stderr, err))
}

// handleError prints err to w and returns the process exit code.
func handleError(w io.Writer, err error) int {
	if errors.IsAbort(err) {
		fmt.Fprintln(w, "Quitting")
		return 0
	}

	if code, ok := errors.GetExitCode(err); ok {
		return code
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(w, "%s Unknown command '%s'\n\n  Run 'neoprene --help' to see the available commands.\n", ui.SymbolFail, name)
		} else {
			fmt.Fprintf(w, "%s %s\n", ui.SymbolFail, err)
		}
		return 1
	}

	msg := err.Error()
	fmt.Fprint(w, msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(w)
	}
	return 1
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "neoprene"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
