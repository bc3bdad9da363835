package lockdir

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AcquireLockDir implements the portable lock-directory protocol (spec
// §6): `mkdir <file>.lockdir` as the atomic exclusivity primitive (mkdir
// is atomic even on network filesystems that don't honor flock
// correctly), with a `pid` file inside carrying `<hostname>:<pid>` so a
// waiter can report whose lock it's looking at. Whether the owner is still
// alive is never checked: a lock is broken only once its pid file is older
// than staleAge (see breakIfStale).
func AcquireLockDir(targetFile string) (*Lock, error) {
	dir := targetFile + ".lockdir"
	deadline := time.Now().Add(lockTimeout)
	warnedAt := time.Now()

	for {
		if err := os.Mkdir(dir, 0o755); err == nil {
			if err := writePidFile(dir); err != nil {
				_ = os.RemoveAll(dir)
				return nil, err
			}
			return &Lock{path: dir, isFlock: false}, nil
		} else if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock directory %s: %w", dir, err)
		}

		if broke, err := breakIfStale(dir); err != nil {
			return nil, err
		} else if broke {
			continue // retry the mkdir immediately now that the stale lock is gone
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for lock directory %s", lockTimeout, dir)
		}
		if verbose && time.Since(warnedAt) > warnInterval {
			owner, _ := readPidFile(dir)
			fmt.Fprintf(os.Stderr, "ct-cppdeps: still waiting for lock directory %s (held by %s)\n", dir, owner)
			warnedAt = time.Now()
		}
		time.Sleep(sleepInterval)
	}
}

func releaseLockDir(dir string) error {
	return os.RemoveAll(dir)
}

func pidFilePath(dir string) string {
	return dir + "/pid"
}

func writePidFile(dir string) error {
	hostname, _ := os.Hostname()
	payload := fmt.Sprintf("%s:%d", hostname, os.Getpid())
	return os.WriteFile(pidFilePath(dir), []byte(payload), 0o644)
}

func readPidFile(dir string) (string, error) {
	b, err := os.ReadFile(pidFilePath(dir))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// breakIfStale removes dir if its pid file is older than staleAge,
// tolerating clock skew across hosts per spec §5. It never tries to
// verify liveness of a remote host's pid — age is the only signal that
// crosses hosts safely.
func breakIfStale(dir string) (bool, error) {
	info, err := os.Stat(pidFilePath(dir))
	if err != nil {
		// the lock directory exists but the pid file hasn't been written
		// yet (a race with another acquirer) or already vanished (the
		// owner released it); either way, not our problem to break.
		return false, nil
	}
	if time.Since(info.ModTime()) < staleAge {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("removing stale lock directory %s: %w", dir, err)
	}
	return true, nil
}
