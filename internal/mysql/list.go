package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/remote"
)

// ListDatabases returns the databases visible to conn, one per line of
// batch output.
func ListDatabases(ctx context.Context, runner remote.Runner, bin string, conn ConnectionInfo) ([]string, error) {
	if bin == "" {
		bin = "mysql"
	}
	cmd := conn.command(bin, []string{"--batch", "--skip-column-names"}, "-e", "show databases;")

	res, err := runner.RunLocal(ctx, cmd, true)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, errors.New(errors.ErrConnection,
			"Couldn't list local databases",
			strings.TrimSpace(fmt.Sprintf("%s\n\nCheck local_db in .neoprene.yaml or ~/.my.cnf.", res.Stderr)))
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
