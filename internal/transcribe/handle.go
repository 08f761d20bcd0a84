// Package transcribe holds the on-device transcription backend and the
// helpers every backend shares.
package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/forPelevin/capsync/internal/types"
)

// Model is an on-device speech model that works on decoded samples.
type Model interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, samples []float32) (types.TranscriptionResult, error)
	Close() error
}

// Handle owns a Model for the lifetime of the process. It must be opened
// before use and closed by whoever opened it. Calls are serialized.
type Handle struct {
	model Model
	log   *slog.Logger

	mu     sync.Mutex
	opened bool
}

func NewHandle(m Model, log *slog.Logger) *Handle {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handle{model: m, log: log}
}

// Open loads the model. Opening twice is a no-op.
func (h *Handle) Open(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opened {
		return nil
	}
	if err := h.model.Load(ctx); err != nil {
		return types.ProviderUnavailableError("load local model", err.Error(), err)
	}
	h.opened = true
	return nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		return nil
	}
	h.opened = false
	return h.model.Close()
}

// AudioFormat is raw PCM: the model consumes decoded samples.
func (h *Handle) AudioFormat() types.AudioFormat { return types.AudioPCM }

func (h *Handle) Transcribe(ctx context.Context, audioPath string) (types.TranscriptionResult, error) {
	raw, err := os.ReadFile(audioPath)
	if err != nil {
		return types.TranscriptionResult{}, types.InvalidInputError("read audio", err.Error(), err)
	}
	samples := DecodePCM(raw)
	if len(samples) == 0 {
		return types.TranscriptionResult{}, types.InvalidInputError("decode audio", "no samples", nil)
	}
	h.log.Info("decoded audio", "samples", len(samples), "duration", Duration(samples))
	if NearSilent(samples) {
		h.log.Warn("audio looks silent; check the input's audio stream")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		return types.TranscriptionResult{}, types.ProviderUnavailableError("local transcribe", "model handle is not open", errors.New("model not loaded"))
	}
	tr, err := h.model.Transcribe(ctx, samples)
	if err != nil {
		if ctx.Err() != nil {
			return types.TranscriptionResult{}, types.ProviderUnavailableError("local transcribe", "", ctx.Err())
		}
		if types.KindOf(err) != 0 {
			return types.TranscriptionResult{}, err
		}
		return types.TranscriptionResult{}, types.ProviderUnavailableError("local transcribe", err.Error(), err)
	}
	return tr, nil
}
