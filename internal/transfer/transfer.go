// Package transfer brings a remote dump to this machine and unpacks it.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/neoprene-dev/neoprene/internal/drush"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	"github.com/neoprene-dev/neoprene/internal/remote"
)

// LocalArtifact is a dump on the local filesystem.
type LocalArtifact struct {
	Path       string
	Compressed bool
}

// Fetcher downloads dumps into a fresh staging directory per run.
type Fetcher struct {
	runner      remote.Runner
	stagingRoot string
	newID       func() string
	log         logger.Logger
}

// NewFetcher stages downloads under stagingRoot (os.TempDir() when empty).
func NewFetcher(runner remote.Runner, stagingRoot string, log logger.Logger) *Fetcher {
	if stagingRoot == "" {
		stagingRoot = os.TempDir()
	}
	if log == nil {
		log = logger.NewEnvLogger("[transfer]")
	}
	return &Fetcher{
		runner:      runner,
		stagingRoot: stagingRoot,
		newID:       NewRunID,
		log:         log,
	}
}

// NewRunID returns a short random id naming one run's staging directory.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// StagingDir returns the directory a run with the given id downloads into.
func (f *Fetcher) StagingDir(id string) string {
	return filepath.Join(f.stagingRoot, "neoprene-"+id)
}

// FetchAndDecompress downloads artifact and gunzips it in place. On success
// the .gz is gone and the returned artifact is uncompressed. On failure the
// downloaded file and any partial output are left for inspection.
func (f *Fetcher) FetchAndDecompress(ctx context.Context, artifact drush.BackupArtifact) (LocalArtifact, error) {
	return f.FetchRun(ctx, artifact, f.newID())
}

// FetchRun is FetchAndDecompress into the staging directory of run id.
func (f *Fetcher) FetchRun(ctx context.Context, artifact drush.BackupArtifact, id string) (LocalArtifact, error) {
	dir := f.StagingDir(id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return LocalArtifact{}, errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't create staging directory %s", dir),
			"Check the 'staging_dir' setting and its permissions.")
	}

	f.log.Debug("downloading %s to %s", artifact.RemotePath(), dir)
	local, err := f.runner.TransferFile(ctx, artifact.RemotePath(), dir)
	if err != nil {
		return LocalArtifact{}, err
	}
	if _, err := os.Stat(local); err != nil {
		return LocalArtifact{}, errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Download of %s reported success but %s is missing", artifact.RemotePath(), local),
			"Run the transfer again with --verbose.")
	}

	out, err := Decompress(local)
	if err != nil {
		return LocalArtifact{Path: local, Compressed: true}, err
	}
	return LocalArtifact{Path: out}, nil
}

// Decompress gunzips src next to itself with the .gz suffix stripped and
// removes src on success.
func Decompress(src string) (string, error) {
	if !strings.HasSuffix(src, ".gz") {
		return "", errors.New(errors.ErrDecompress,
			fmt.Sprintf("%s isn't a .gz file", src),
			"Backup and Migrate dumps are gzip-compressed; check the backup settings on the site.")
	}
	dst := strings.TrimSuffix(src, ".gz")

	in, err := os.Open(src)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("Couldn't open %s", src), "")
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("%s isn't valid gzip data", src),
			"The download may be truncated. Remove it and pull again.")
	}
	defer zr.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("Couldn't create %s", dst),
			"Check free space and permissions in the staging directory.")
	}

	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("Decompressing %s failed", src),
			fmt.Sprintf("Partial output left at %s for inspection.", dst))
	}
	if err := out.Close(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("Couldn't finish writing %s", dst), "")
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDecompress,
			fmt.Sprintf("Couldn't remove %s after decompressing", src), "")
	}
	return dst, nil
}
