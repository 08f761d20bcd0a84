package ports

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/capsync/internal/types"
)

// ProgressFunc receives render completion in [0, 100]. It must not block.
type ProgressFunc func(percent float64)

type VideoTool interface {
	ExtractAudio(ctx context.Context, inVideo, outAudio string, format types.AudioFormat) error
	BurnIn(ctx context.Context, inVideo, outVideo, filterGraph string, progress ProgressFunc) error
	ProbeDuration(ctx context.Context, inVideo string) (time.Duration, error)
}

// Transcriber is one speech-to-text backend. AudioFormat names the
// container it wants from extraction.
type Transcriber interface {
	AudioFormat() types.AudioFormat
	Transcribe(ctx context.Context, audioPath string) (types.TranscriptionResult, error)
}

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

type CaptionStore interface {
	Save(ctx context.Context, c types.Captions) error
	Load(ctx context.Context, video string) (types.Captions, error)
	// List returns stored video filenames, most recently updated first.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// VideoSupplier resolves uploaded videos by filename.
type VideoSupplier interface {
	Path(name string) (string, error)
	Exists(name string) bool
}
