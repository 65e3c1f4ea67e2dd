package mysql

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/transfer"
	"github.com/neoprene-dev/neoprene/internal/util"
)

// Importer loads a plain SQL dump into an existing database.
type Importer struct {
	runner remote.Runner
	out    io.Writer
	log    logger.Logger

	// Binary is the mysql client executable.
	Binary string
}

// NewImporter returns an Importer that reports completion to out.
func NewImporter(runner remote.Runner, out io.Writer, log logger.Logger) *Importer {
	return &Importer{
		runner: runner,
		out:    out,
		log:    logger.OrNoop(log),
		Binary: "mysql",
	}
}

// Import feeds artifact into database name. The client's output is
// captured and only surfaces in the error when the import fails.
func (i *Importer) Import(ctx context.Context, name string, artifact transfer.LocalArtifact, conn ConnectionInfo) error {
	if artifact.Compressed {
		return errors.New(errors.ErrImport,
			fmt.Sprintf("%s is still compressed", artifact.Path),
			"Decompress the dump before importing it.")
	}

	cmd := conn.command(i.Binary, nil, name) + " < " + util.ShellQuote(artifact.Path)
	i.log.Debug("importing %s into %s", artifact.Path, name)

	res, err := i.runner.RunLocal(ctx, cmd, true)
	if err != nil {
		return err
	}
	if !res.OK() {
		diag := strings.TrimSpace(res.Stderr)
		if diag == "" {
			diag = fmt.Sprintf("%s exited with status %d", i.Binary, res.ExitStatus)
		}
		return errors.New(errors.ErrImport,
			fmt.Sprintf("Importing %s into %s failed", artifact.Path, name),
			diag)
	}

	fmt.Fprintf(i.out, "...done. Your database, %s is ready to go.\n", name)
	return nil
}
