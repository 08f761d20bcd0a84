// Package pipeline wires configuration to adapters and exposes the
// caption operations the CLI drives.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/capsync/internal/config"
	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/ports/adapters/assemblyai"
	"github.com/forPelevin/capsync/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/capsync/internal/ports/adapters/openai"
	"github.com/forPelevin/capsync/internal/ports/adapters/sqlite"
	"github.com/forPelevin/capsync/internal/ports/adapters/uploads"
	"github.com/forPelevin/capsync/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/capsync/internal/scratch"
	"github.com/forPelevin/capsync/internal/transcribe"
	"github.com/forPelevin/capsync/internal/types"
	"github.com/forPelevin/capsync/internal/usecase"
)

type Pipeline struct {
	cfg     *config.Config
	log     *slog.Logger
	uc      usecase.Usecase
	scratch *scratch.Dir
	store   ports.CaptionStore
	videos  ports.VideoSupplier
	closers []func() error
}

// Option customizes wiring. Tests use it to reach local fake servers.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New validates cfg, sweeps the scratch dir, and builds the transcriber
// selected by cfg.Provider. The caller must Close the pipeline.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dir, err := scratch.New(cfg.Paths.ScratchDir, log)
	if err != nil {
		return nil, err
	}
	if removed, swept, err := dir.Sweep(scratch.DefaultMaxAge); err != nil {
		log.Warn("scratch sweep failed", "dir", dir.Root(), "err", err)
	} else if swept && removed > 0 {
		log.Info("removed stale scratch files", "count", removed)
	}

	p := &Pipeline{cfg: cfg, log: log, scratch: dir}
	tr, err := p.newTranscriber(ctx, o)
	if err != nil {
		return nil, err
	}

	if p.store, err = OpenStore(cfg); err != nil {
		_ = p.Close()
		return nil, err
	}
	if p.store != nil {
		p.closers = append(p.closers, p.store.Close)
	}
	if cfg.Paths.UploadsDir != "" {
		p.videos = uploads.New(cfg.Paths.UploadsDir)
	}

	p.uc = usecase.New(usecase.Deps{
		Video:             ffmpeg.New(cfg.Paths.FFmpeg, cfg.Paths.FFprobe, log),
		Transcriber:       tr,
		Scratch:           dir,
		Log:               log,
		TranscribeTimeout: cfg.TranscribeTimeout(),
		RenderTimeout:     cfg.RenderTimeout(),
	})
	log.Debug("pipeline ready", "provider", cfg.Provider, "scratch", dir.Root(), "store", p.store != nil)
	return p, nil
}

// newTranscriber is the only place the provider mode is consulted.
func (p *Pipeline) newTranscriber(ctx context.Context, o options) (ports.Transcriber, error) {
	cfg := p.cfg
	switch cfg.Provider {
	case config.ProviderAssemblyAI:
		aopts := []assemblyai.Option{
			assemblyai.WithPollInterval(cfg.PollInterval()),
			assemblyai.WithLogger(p.log),
		}
		if o.httpClient != nil {
			aopts = append(aopts, assemblyai.WithHTTPClient(o.httpClient))
		}
		return assemblyai.New(assemblyai.Config{
			APIKey:   cfg.AssemblyAI.APIKey,
			BaseURL:  cfg.AssemblyAI.BaseURL,
			Language: cfg.Language,
		}, aopts...), nil
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.Language,
		}, o.httpClient), nil
	default:
		model := whispercpp.New(cfg.Whisper.Bin, cfg.Whisper.Model, cfg.Language, p.scratch)
		h := transcribe.NewHandle(model, p.log)
		if err := h.Open(ctx); err != nil {
			return nil, err
		}
		p.closers = append(p.closers, h.Close)
		return h, nil
	}
}

// OpenStore opens the caption store when cfg names a database. It returns
// nil without error when persistence is disabled.
func OpenStore(cfg *config.Config) (ports.CaptionStore, error) {
	if cfg.Paths.DB == "" {
		return nil, nil
	}
	st, err := sqlite.Open(cfg.Paths.DB)
	if err != nil {
		return nil, fmt.Errorf("caption store: %w", err)
	}
	return st, nil
}

func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// Store returns the caption store, or nil when persistence is disabled.
func (p *Pipeline) Store() ports.CaptionStore { return p.store }

// ResolveVideo accepts a path or, when an uploads dir is configured, a
// bare filename inside it.
func (p *Pipeline) ResolveVideo(video string) (string, error) {
	if p.videos != nil && p.videos.Exists(video) {
		return p.videos.Path(video)
	}
	st, err := os.Stat(video)
	if err != nil {
		return "", types.InvalidInputError("resolve video", err.Error(), fmt.Errorf("video %q not found", video))
	}
	if !st.Mode().IsRegular() {
		return "", types.InvalidInputError("resolve video", video+" is not a regular file", fmt.Errorf("video %q is not a file", video))
	}
	return filepath.Abs(video)
}

// Generate transcribes video into captions and saves them to the store
// when one is configured.
func (p *Pipeline) Generate(ctx context.Context, video string) (types.Captions, error) {
	path, err := p.ResolveVideo(video)
	if err != nil {
		return types.Captions{}, err
	}
	p.log.Info("generating captions", "video", path, "provider", p.cfg.Provider)
	c, err := p.uc.Generate(ctx, path)
	if err != nil {
		return types.Captions{}, err
	}
	c.Video = filepath.Base(path)
	if p.store != nil {
		if err := p.store.Save(ctx, c); err != nil {
			return c, fmt.Errorf("save captions: %w", err)
		}
		p.log.Info("captions saved", "video", c.Video, "segments", len(c.Segments))
	}
	return c, nil
}

type RenderRequest struct {
	Video    string
	Segments []types.Segment
	Style    string
	// Out is the exact destination. When empty a unique name is built
	// under OutDir, and when both are empty the render lands in scratch.
	Out      string
	OutDir   string
	Progress chan<- float64
}

func (p *Pipeline) Render(ctx context.Context, req RenderRequest) (string, error) {
	path, err := p.ResolveVideo(req.Video)
	if err != nil {
		return "", err
	}
	out := req.Out
	if out == "" && req.OutDir != "" {
		out = buildOutputPath(req.OutDir, path, req.Style, time.Now().UTC())
	}
	if out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return "", types.RenderError("prepare output", err.Error(), err)
		}
	}
	return p.uc.Render(ctx, usecase.RenderInput{
		Video:    path,
		Segments: req.Segments,
		Style:    req.Style,
		Out:      out,
		Progress: req.Progress,
	})
}

// buildOutputPath names a render after its input, style and time, with a
// short hash so concurrent renders of one video never collide.
func buildOutputPath(outRoot, input, style string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	style = normalizePathSegment(style)
	if style == "" {
		style = "captions"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%s|%d", input, style, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s-%s.mp4", name, style, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*transcribe.Handle)(nil)
var _ ports.Transcriber = (*assemblyai.Adapter)(nil)
var _ ports.Transcriber = (*openai.Adapter)(nil)
var _ ports.CaptionStore = (*sqlite.Store)(nil)
var _ ports.VideoSupplier = (*uploads.FileSupplier)(nil)
