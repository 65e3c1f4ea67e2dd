// Package lock keeps one backup of a site running at a time. The lock is a
// directory on the site's host, created with mkdir so only one run wins.
package lock

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/util"
)

// pollInterval is how long Acquire waits between attempts on a held lock.
var pollInterval = 2 * time.Second

// Lock is a held site lock.
type Lock struct {
	Dir    string
	Info   *LockInfo
	runner remote.Runner
}

// Key derives a stable lock name from a site directory.
func Key(siteDir string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimRight(siteDir, "/")))
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// Dir returns the lock directory for siteDir under cfg.Dir.
func Dir(cfg config.LockConfig, siteDir string) string {
	base := cfg.Dir
	if base == "" {
		base = "/tmp"
	}
	return path.Join(base, fmt.Sprintf("neoprene-%s.lock", Key(siteDir)))
}

// Acquire takes the lock for siteDir, waiting up to cfg.Timeout while
// someone else holds it. Locks older than cfg.Stale are removed first.
func Acquire(ctx context.Context, runner remote.Runner, cfg config.LockConfig, siteDir, command string) (*Lock, error) {
	lockDir := Dir(cfg, siteDir)
	infoFile := path.Join(lockDir, "info.json")
	info := NewLockInfo(command)

	start := time.Now()
	for {
		if time.Since(start) > cfg.Timeout {
			return nil, errors.New(errors.ErrLock,
				fmt.Sprintf("Timed out after %s waiting for the lock on %s", cfg.Timeout, siteDir),
				fmt.Sprintf("Lock held by: %s. Wait for it to finish, or run 'neoprene unlock' if it crashed.",
					readHolder(ctx, runner, infoFile)))
		}

		if isStale(ctx, runner, infoFile, cfg.Stale) {
			if err := forceRemove(ctx, runner, lockDir); err == nil {
				continue
			}
		}

		res, err := runner.RunRemote(ctx, "", "mkdir "+util.ShellPath(lockDir))
		if err != nil {
			return nil, err
		}
		if res.OK() {
			if err := writeInfo(ctx, runner, infoFile, info); err != nil {
				_ = forceRemove(ctx, runner, lockDir)
				return nil, err
			}
			return &Lock{Dir: lockDir, Info: info, runner: runner}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.WrapWithCode(ctx.Err(), errors.ErrAbort, "Quitting", "")
		case <-time.After(pollInterval):
		}
	}
}

// Release removes the lock. Releasing a nil Lock does nothing.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.runner == nil {
		return nil
	}
	return forceRemove(ctx, l.runner, l.Dir)
}

// ForceRelease removes the lock for siteDir whoever holds it, and returns
// the holder it removed ("" when the site wasn't locked).
func ForceRelease(ctx context.Context, runner remote.Runner, cfg config.LockConfig, siteDir string) (string, error) {
	lockDir := Dir(cfg, siteDir)
	res, err := runner.RunRemote(ctx, "", "test -d "+util.ShellPath(lockDir))
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", nil
	}
	holder := readHolder(ctx, runner, path.Join(lockDir, "info.json"))
	return holder, forceRemove(ctx, runner, lockDir)
}

func writeInfo(ctx context.Context, runner remote.Runner, infoFile string, info *LockInfo) error {
	data, err := info.Marshal()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrLock, "Failed to serialize lock info", "")
	}
	res, err := runner.RunRemote(ctx, "", fmt.Sprintf("printf '%%s\\n' %s > %s",
		util.ShellQuote(string(data)), util.ShellPath(infoFile)))
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.New(errors.ErrLock,
			"Failed to write lock info file",
			strings.TrimSpace(res.Stderr))
	}
	return nil
}

func readInfo(ctx context.Context, runner remote.Runner, infoFile string) (*LockInfo, []byte, bool) {
	res, err := runner.RunRemote(ctx, "", "cat "+util.ShellPath(infoFile))
	if err != nil || !res.OK() {
		return nil, nil, false
	}
	info, err := ParseLockInfo([]byte(res.Stdout))
	if err != nil {
		return nil, []byte(res.Stdout), true
	}
	return info, []byte(res.Stdout), true
}

// isStale reports whether the holder started longer ago than threshold.
// An unreadable info file is never stale.
func isStale(ctx context.Context, runner remote.Runner, infoFile string, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}
	info, _, ok := readInfo(ctx, runner, infoFile)
	return ok && info != nil && info.Age() > threshold
}

func readHolder(ctx context.Context, runner remote.Runner, infoFile string) string {
	info, raw, ok := readInfo(ctx, runner, infoFile)
	switch {
	case !ok:
		return "unknown"
	case info == nil:
		return strings.TrimSpace(string(raw))
	}
	return info.String()
}

func forceRemove(ctx context.Context, runner remote.Runner, dir string) error {
	res, err := runner.RunRemote(ctx, "", "rm -rf "+util.ShellPath(dir))
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.New(errors.ErrLock,
			fmt.Sprintf("Failed to remove lock directory: %s", dir),
			strings.TrimSpace(res.Stderr))
	}
	return nil
}
