// Package openai transcribes audio through an OpenAI-compatible
// /audio/transcriptions endpoint and remaps its word and segment output.
package openai

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/capsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/capsync/internal/types"
)

type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type Adapter struct {
	cli    *goopenai.Client
	apiKey string
	model  string
	lang   string
}

// New builds the client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Adapter {
	cc := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	cc.BaseURL = endpoint.OpenAI.Normalize(cfg.BaseURL)
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Adapter{
		cli:    goopenai.NewClientWithConfig(cc),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
		lang:   strings.TrimSpace(cfg.Language),
	}
}

func (a *Adapter) AudioFormat() types.AudioFormat { return types.AudioWAV }

func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.TranscriptionResult, error) {
	if a.apiKey == "" {
		return types.TranscriptionResult{}, types.AuthenticationError("openai transcribe", "api key is not configured", nil)
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return types.TranscriptionResult{}, types.InvalidInputError("openai read audio", err.Error(), err)
	}

	resp, err := a.cli.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    a.model,
		FilePath: filepath.Base(audioPath),
		Reader:   bytes.NewReader(audio),
		Language: a.lang,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []goopenai.TranscriptionTimestampGranularity{
			goopenai.TranscriptionTimestampGranularityWord,
			goopenai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return types.TranscriptionResult{}, a.mapError(ctx, err)
	}
	return toResult(resp), nil
}

// toResult prefers word timing, then segment timing, then bare text.
func toResult(resp goopenai.AudioResponse) types.TranscriptionResult {
	out := types.TranscriptionResult{FullText: resp.Text}
	switch {
	case len(resp.Words) > 0:
		for _, w := range resp.Words {
			out.Chunks = append(out.Chunks, types.Chunk{Text: w.Word, Start: w.Start, End: w.End})
		}
	case len(resp.Segments) > 0:
		for _, s := range resp.Segments {
			out.Chunks = append(out.Chunks, types.Chunk{Text: s.Text, Start: s.Start, End: s.End})
		}
	}
	return out
}

func (a *Adapter) mapError(ctx context.Context, err error) error {
	const op = "openai transcribe"
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.ProviderUnavailableError(op, "", ctxErr)
	}
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	detail := endpoint.Detail(err.Error(), a.apiKey)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.AuthenticationError(op, detail, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return types.InvalidInputError(op, detail, err)
	default:
		return types.ProviderUnavailableError(op, detail, err)
	}
}
