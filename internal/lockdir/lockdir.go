// Package lockdir is the external locking collaborator spec §5/§6
// describes: the core engine never acquires a lock itself, but callers
// that share an object directory across hosts (e.g. a shared NFS cache)
// need mutual exclusion around a Store. It offers a lock directory
// protocol (a "<file>.lockdir/" containing a pid file) as the portable
// fallback, and a flock(2)-based path for local filesystems that support
// advisory locks, selected by the caller per spec §5's "selected by
// filesystem class."
//
// Grounded on internal/common/filesystem.go's atomic-filesystem
// discipline (mkdir is the atomic primitive here; the pid file inside the
// lock directory is written directly with os.WriteFile) and tuned
// entirely through environment variables via
// internal/common/env-vars.go, per spec §6.
package lockdir

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ct-build/ct-cppdeps/internal/common"
)

// tunables read once per process from the environment (spec §6):
// CT_LOCK_SLEEP_INTERVAL, CT_LOCK_WARN_INTERVAL, CT_LOCK_TIMEOUT,
// CT_LOCK_VERBOSE.
var (
	sleepInterval = common.EnvDuration("CT_LOCK_SLEEP_INTERVAL", 100*time.Millisecond)
	warnInterval  = common.EnvDuration("CT_LOCK_WARN_INTERVAL", 5*time.Second)
	lockTimeout   = common.EnvDuration("CT_LOCK_TIMEOUT", 60*time.Second)
	verbose       = common.EnvBool("CT_LOCK_VERBOSE", false)
	// staleAge is the minimum age a lockdir payload must have before a
	// waiter is willing to break it, tolerating clock skew across hosts
	// (spec §5: "stale-lock removal is gated by a minimum-age policy").
	staleAge = common.EnvDuration("CT_LOCK_STALE_AGE", 10*time.Minute)
)

// Lock represents one held advisory lock; Unlock releases it.
type Lock struct {
	path    string
	file    *os.File // non-nil only for the flock(2) path
	isFlock bool
}

// AcquireFlock takes an flock(2) exclusive lock on path (created if
// missing), blocking with the configured sleep/warn/timeout cadence.
// Suited to local filesystems that implement advisory locks correctly.
func AcquireFlock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	deadline := time.Now().Add(lockTimeout)
	warnedAt := time.Now()
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &Lock{path: path, file: f, isFlock: true}, nil
		}
		if err != unix.EWOULDBLOCK {
			_ = f.Close()
			return nil, fmt.Errorf("flock %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("timed out after %s waiting for lock %s", lockTimeout, path)
		}
		if verbose && time.Since(warnedAt) > warnInterval {
			fmt.Fprintf(os.Stderr, "ct-cppdeps: still waiting on lock %s\n", path)
			warnedAt = time.Now()
		}
		time.Sleep(sleepInterval)
	}
}

// Unlock releases the lock. For the flock path this closes the fd
// (releasing the kernel lock); for the lockdir path it removes the pid
// file and directory.
func (l *Lock) Unlock() error {
	if l.isFlock {
		err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		closeErr := l.file.Close()
		if err != nil {
			return err
		}
		return closeErr
	}
	return releaseLockDir(l.path)
}
