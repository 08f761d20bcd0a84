package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/capsync/internal/domain/subtitles"
	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/types"
)

// ReadCaptions loads a captions JSON document or an SRT file, chosen by
// extension.
func ReadCaptions(path string) (types.Captions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Captions{}, types.InvalidInputError("read captions", err.Error(), fmt.Errorf("read %s: %w", path, err))
	}
	if strings.EqualFold(filepath.Ext(path), ".srt") {
		segs, err := subtitles.ParseSRT(string(b))
		if err != nil {
			return types.Captions{}, types.InvalidInputError("read captions", err.Error(), err)
		}
		return types.Captions{Segments: segs}, nil
	}
	var c types.Captions
	if err := json.Unmarshal(b, &c); err != nil {
		return types.Captions{}, types.InvalidInputError("read captions", err.Error(), fmt.Errorf("parse %s: %w", path, err))
	}
	return c, nil
}

func WriteCaptions(path string, c types.Captions) error {
	if c.Segments == nil {
		c.Segments = []types.Segment{}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal captions: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadCaptions reads source as a file when it exists, otherwise looks it
// up by video filename in store. store may be nil.
func LoadCaptions(ctx context.Context, store ports.CaptionStore, source string) (types.Captions, error) {
	if _, err := os.Stat(source); err == nil || store == nil || !errors.Is(err, fs.ErrNotExist) {
		return ReadCaptions(source)
	}
	c, err := store.Load(ctx, filepath.Base(source))
	if errors.Is(err, ports.ErrNotFound) {
		return types.Captions{}, types.InvalidInputError("load captions", fmt.Sprintf("no captions file or stored captions for %q", source), err)
	}
	return c, err
}

// StoredCaptions loads the captions saved for video, keyed by its base
// name. The video file itself is never read.
func StoredCaptions(ctx context.Context, store ports.CaptionStore, video string) (types.Captions, error) {
	name := filepath.Base(video)
	if store == nil {
		return types.Captions{}, types.InvalidInputError("load captions",
			fmt.Sprintf("no --captions given for %q and no caption store configured (set CAPSYNC_DB)", name), errors.New("no caption store"))
	}
	c, err := store.Load(ctx, name)
	if errors.Is(err, ports.ErrNotFound) {
		return types.Captions{}, types.InvalidInputError("load captions", fmt.Sprintf("no stored captions for %q", name), err)
	}
	return c, err
}
