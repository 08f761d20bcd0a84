//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/capsync/internal/ports/adapters/ffmpeg"
)

// moduleRoot walks up from the working directory to the go.mod that owns
// it; the CLI is built from there.
func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("no go.mod above %s", dir)
		}
		dir = parent
	}
}

// mediaDuration measures path with the adapter's own ffprobe call.
func mediaDuration(t *testing.T, path string) time.Duration {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	d, err := ffmpeg.New("", "", nil).ProbeDuration(ctx, path)
	if err != nil {
		t.Fatalf("duration of %s: %v", filepath.Base(path), err)
	}
	return d
}
