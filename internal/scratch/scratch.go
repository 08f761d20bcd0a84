// Package scratch owns the temporary directory shared by concurrent
// pipeline invocations. Every file gets a unique name so requests never
// collide, and stale leftovers are swept under a cross-process lock.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	DefaultMaxAge = 10 * time.Minute
	lockName      = ".sweep.lock"
)

type Dir struct {
	root string
	log  *slog.Logger
	now  func() time.Time
}

// New creates root if needed.
func New(root string, log *slog.Logger) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("scratch: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dir{root: root, log: log, now: time.Now}, nil
}

func (d *Dir) Root() string { return d.root }

// Path returns a fresh unique path inside the scratch dir. Nothing is
// created on disk.
func (d *Dir) Path(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(d.root, prefix+"-"+uuid.NewString()+ext)
}

// Remove deletes path, ignoring files that are already gone. Failures are
// logged; cleanup never masks the caller's own error.
func (d *Dir) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.log.Warn("scratch cleanup failed", "path", path, "err", err)
	}
}

// Sweep removes top-level entries older than maxAge. When another process
// holds the sweep lock it returns immediately with swept=false.
func (d *Dir) Sweep(maxAge time.Duration) (removed int, swept bool, err error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	lock := flock.New(filepath.Join(d.root, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return 0, false, fmt.Errorf("scratch: acquire sweep lock: %w", err)
	}
	if !ok {
		return 0, false, nil
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			d.log.Warn("scratch: release sweep lock", "err", uerr)
		}
	}()

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, true, fmt.Errorf("scratch: %w", err)
	}
	cutoff := d.now().Add(-maxAge)
	for _, e := range entries {
		if e.Name() == lockName {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		p := filepath.Join(d.root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			d.log.Warn("scratch: sweep", "path", p, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		d.log.Info("scratch swept", "removed", removed, "max_age", maxAge)
	}
	return removed, true, nil
}
