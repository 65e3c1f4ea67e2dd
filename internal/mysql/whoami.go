package mysql

import (
	"context"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/remote"
)

// LocalUser returns the operator's login name, the default MySQL user.
func LocalUser(ctx context.Context, runner remote.Runner) (string, error) {
	res, err := runner.RunLocal(ctx, "whoami", true)
	if err != nil {
		return "", err
	}
	user := strings.TrimSpace(res.Stdout)
	if !res.OK() || user == "" {
		return "", errors.New(errors.ErrExec,
			"Couldn't work out the local user name",
			"Set local_db.user in .neoprene.yaml.")
	}
	return user, nil
}
