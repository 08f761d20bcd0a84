// Package assemblyai transcribes audio with the AssemblyAI v2 REST API:
// upload the bytes, create a transcript job, and poll it to completion.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/capsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/capsync/internal/types"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 3 * time.Second
	speechModel         = "universal"
	maxResponseBytes    = 32 << 20
)

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
}

type Adapter struct {
	cfg          Config
	httpClient   *http.Client
	pollInterval time.Duration
	log          *slog.Logger
}

type Option func(*Adapter)

func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithPollInterval sets how often a queued transcript is checked.
func WithPollInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

func New(cfg Config, opts ...Option) *Adapter {
	a := &Adapter{
		cfg: Config{
			APIKey:   strings.TrimSpace(cfg.APIKey),
			BaseURL:  endpoint.AssemblyAI.Normalize(cfg.BaseURL),
			Language: strings.TrimSpace(cfg.Language),
		},
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval: defaultPollInterval,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AudioFormat is WAV: the API sniffs the container from the upload.
func (a *Adapter) AudioFormat() types.AudioFormat { return types.AudioWAV }

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL     string `json:"audio_url"`
	SpeechModel  string `json:"speech_model"`
	LanguageCode string `json:"language_code,omitempty"`
}

type transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
	Words  []struct {
		Text  string `json:"text"`
		Start int64  `json:"start"`
		End   int64  `json:"end"`
	} `json:"words"`
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.TranscriptionResult, error) {
	if a.cfg.APIKey == "" {
		return types.TranscriptionResult{}, types.AuthenticationError("assemblyai", "api key is not configured", nil)
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return types.TranscriptionResult{}, types.InvalidInputError("assemblyai read audio", err.Error(), err)
	}

	var up uploadResponse
	if err := a.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", bytes.NewReader(audio), &up); err != nil {
		return types.TranscriptionResult{}, err
	}
	if up.UploadURL == "" {
		return types.TranscriptionResult{}, types.ProviderUnavailableError("assemblyai upload", "response has no upload_url", nil)
	}

	req := transcriptRequest{AudioURL: up.UploadURL, SpeechModel: speechModel}
	if a.cfg.Language != "" && a.cfg.Language != "en" {
		req.LanguageCode = a.cfg.Language
	}
	body, err := json.Marshal(req)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("assemblyai: encode request: %w", err)
	}
	var tr transcript
	if err := a.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &tr); err != nil {
		return types.TranscriptionResult{}, err
	}
	a.log.Info("assemblyai transcript queued", "id", tr.ID)

	for {
		switch tr.Status {
		case "completed":
			return toResult(tr), nil
		case "error":
			// The API reports undecodable media through this field.
			return types.TranscriptionResult{}, types.InvalidInputError("assemblyai transcript", endpoint.Detail(tr.Error, a.cfg.APIKey), nil)
		}
		if tr.ID == "" {
			return types.TranscriptionResult{}, types.ProviderUnavailableError("assemblyai transcript", "response has no transcript id", nil)
		}
		select {
		case <-ctx.Done():
			return types.TranscriptionResult{}, types.ProviderUnavailableError("assemblyai poll", "", ctx.Err())
		case <-time.After(a.pollInterval):
		}
		if err := a.do(ctx, http.MethodGet, "/v2/transcript/"+tr.ID, "", nil, &tr); err != nil {
			return types.TranscriptionResult{}, err
		}
	}
}

// toResult converts millisecond word timings to seconds.
func toResult(tr transcript) types.TranscriptionResult {
	out := types.TranscriptionResult{FullText: tr.Text}
	for _, w := range tr.Words {
		out.Chunks = append(out.Chunks, types.Chunk{
			Text:  w.Text,
			Start: float64(w.Start) / 1000,
			End:   float64(w.End) / 1000,
		})
	}
	return out
}

func (a *Adapter) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	op := "assemblyai " + strings.ToLower(method) + " " + strings.Split(strings.TrimPrefix(path, "/v2/"), "/")[0]
	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", a.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return types.ProviderUnavailableError(op, endpoint.Detail(err.Error(), a.cfg.APIKey), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.ProviderUnavailableError(op, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, endpoint.Detail(string(raw), a.cfg.APIKey))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return types.ProviderUnavailableError(op, "decode response: "+endpoint.Detail(string(raw), a.cfg.APIKey), err)
	}
	return nil
}

var errStatus = errors.New("unexpected http status")

func statusError(op string, status int, detail string) error {
	cause := fmt.Errorf("%w %d", errStatus, status)
	detail = fmt.Sprintf("http %d: %s", status, detail)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.AuthenticationError(op, detail, cause)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return types.InvalidInputError(op, detail, cause)
	default:
		return types.ProviderUnavailableError(op, detail, cause)
	}
}
