// Package sqlite persists generated captions keyed by video filename.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/types"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `CREATE TABLE IF NOT EXISTS videos (
    filename    TEXT PRIMARY KEY,
    captions    TEXT NOT NULL,
    full_text   TEXT NOT NULL DEFAULT '',
    estimated   INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`

// Store is a ports.CaptionStore backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ ports.CaptionStore = (*Store)(nil)

// Open creates or connects to the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: database path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces the captions for c.Video.
func (s *Store) Save(ctx context.Context, c types.Captions) error {
	if strings.TrimSpace(c.Video) == "" {
		return errors.New("save captions: video filename is required")
	}
	segs := c.Segments
	if segs == nil {
		segs = []types.Segment{}
	}
	payload, err := json.Marshal(segs)
	if err != nil {
		return fmt.Errorf("marshal captions: %w", err)
	}
	ts := s.now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO videos (filename, captions, full_text, estimated, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(filename) DO UPDATE SET
                captions = excluded.captions,
                full_text = excluded.full_text,
                estimated = excluded.estimated,
                updated_at = excluded.updated_at`,
			c.Video, string(payload), c.FullText, boolToInt(c.Estimate), ts, ts,
		)
		if err != nil {
			return fmt.Errorf("save captions: %w", err)
		}
		return nil
	})
}

// Load returns the stored captions for video, or ports.ErrNotFound.
func (s *Store) Load(ctx context.Context, video string) (types.Captions, error) {
	var (
		payload   string
		fullText  string
		estimated int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT captions, full_text, estimated FROM videos WHERE filename = ?`, video,
	).Scan(&payload, &fullText, &estimated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Captions{}, fmt.Errorf("captions for %q: %w", video, ports.ErrNotFound)
	}
	if err != nil {
		return types.Captions{}, fmt.Errorf("load captions: %w", err)
	}
	c := types.Captions{Video: video, FullText: fullText, Estimate: estimated != 0}
	if err := json.Unmarshal([]byte(payload), &c.Segments); err != nil {
		return types.Captions{}, fmt.Errorf("decode stored captions: %w", err)
	}
	return c, nil
}

// List returns stored video filenames, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM videos ORDER BY updated_at DESC, filename`)
	if err != nil {
		return nil, fmt.Errorf("list captions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
