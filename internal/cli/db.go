package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/mysql"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/ui"
)

func dbListCommand(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	timeout, err := resolveTimeout(timeoutFlag, cfg.Timeout)
	if err != nil {
		return err
	}

	runner := remote.NewLocalRunner(remote.Options{
		Timeout: timeout,
		Logger:  logger.NewEnvLogger("[local]"),
	})
	return runDBList(ctx, runner, cfg, os.Stdout)
}

// runDBList prints the local databases as a table.
func runDBList(ctx context.Context, runner remote.Runner, cfg *config.Config, out io.Writer) error {
	names, err := mysql.ListDatabases(ctx, runner, cfg.Tools.MySQL, localConn(cfg))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, ui.RenderMuted("No databases."))
		return nil
	}

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name}
	}
	fmt.Fprintln(out, ui.RenderSimpleTable([]ui.TableColumn{{Title: "DATABASE"}}, rows))
	return nil
}
