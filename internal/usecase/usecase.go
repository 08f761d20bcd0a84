package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forPelevin/capsync/internal/domain/segments"
	"github.com/forPelevin/capsync/internal/domain/styles"
	"github.com/forPelevin/capsync/internal/domain/subtitles"
	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/scratch"
	"github.com/forPelevin/capsync/internal/transcribe"
	"github.com/forPelevin/capsync/internal/types"
)

type Deps struct {
	Video       ports.VideoTool
	Transcriber ports.Transcriber
	Scratch     *scratch.Dir
	Log         *slog.Logger

	// Zero disables the bound.
	TranscribeTimeout time.Duration
	RenderTimeout     time.Duration
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	return Usecase{d: d}
}

// GenerateCaptions extracts audio in the transcriber's format, transcribes
// it, and normalizes the result. The audio file is removed on every path.
func (u Usecase) GenerateCaptions(ctx context.Context, videoPath string) (types.TranscriptionResult, error) {
	if u.d.TranscribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.d.TranscribeTimeout)
		defer cancel()
	}

	format := u.d.Transcriber.AudioFormat()
	audio := u.d.Scratch.Path("audio", format.Ext())
	defer u.d.Scratch.Remove(audio)

	start := time.Now()
	if err := u.d.Video.ExtractAudio(ctx, videoPath, audio, format); err != nil {
		u.logFailure("audio extraction failed", err)
		if types.KindOf(err) == 0 {
			err = types.ExtractionError("extract audio", err.Error(), err)
		}
		return types.TranscriptionResult{}, err
	}
	u.d.Log.Info("audio extracted", "format", string(format), "took", time.Since(start).Round(time.Millisecond))

	start = time.Now()
	tr, err := u.d.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		u.logFailure("transcription failed", err)
		switch {
		case ctx.Err() != nil && !types.IsKind(err, types.KindProviderUnavailable):
			err = types.ProviderUnavailableError("transcribe", types.DetailOf(err), ctx.Err())
		case types.KindOf(err) == 0:
			err = types.ProviderUnavailableError("transcribe", err.Error(), err)
		}
		return types.TranscriptionResult{}, err
	}
	tr = transcribe.Normalize(tr)
	u.d.Log.Info("transcribed", "chunks", len(tr.Chunks), "chars", len(tr.FullText), "took", time.Since(start).Round(time.Millisecond))
	return tr, nil
}

// Generate runs GenerateCaptions and segments the result for display.
func (u Usecase) Generate(ctx context.Context, videoPath string) (types.Captions, error) {
	tr, err := u.GenerateCaptions(ctx, videoPath)
	if err != nil {
		return types.Captions{}, err
	}
	segs, estimated := segments.FromTranscription(tr, segments.SentenceOptions())
	if estimated {
		u.d.Log.Warn("transcript has no timing; caption times are estimated", "segments", len(segs))
	}
	if segs == nil {
		segs = []types.Segment{}
	}
	return types.Captions{FullText: tr.FullText, Estimate: estimated, Segments: segs}, nil
}

type RenderInput struct {
	Video    string
	Segments []types.Segment
	Style    string
	// Out is the destination; empty renders into the scratch dir.
	Out string
	// Progress receives percentages without blocking the render; events
	// are dropped while the channel is full. It is never closed here.
	Progress chan<- float64
}

// Render burns segs into a copy of the video and returns its path. The
// subtitle file is removed on every path, as is a partial output on
// failure. The caller owns the returned file.
func (u Usecase) Render(ctx context.Context, in RenderInput) (string, error) {
	if issue, ok := segments.FirstFatal(segments.Validate(in.Segments)); ok {
		return "", types.InvalidInputError("render", issue.String(), errors.New("invalid captions"))
	}
	if len(in.Segments) == 0 {
		return "", types.InvalidInputError("render", "no captions to render", errors.New("empty captions"))
	}
	if u.d.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.d.RenderTimeout)
		defer cancel()
	}

	p := styles.Resolve(in.Style)
	subsPath, assInput, err := u.writeSubtitles(in.Segments, p)
	if err != nil {
		return "", types.RenderError("write subtitles", err.Error(), err)
	}
	defer u.d.Scratch.Remove(subsPath)

	out := in.Out
	if out == "" {
		out = u.d.Scratch.Path("render", ".mp4")
	}
	graph := styles.FilterGraph(p, subsPath, assInput)

	progress := func(pct float64) {
		if in.Progress == nil {
			return
		}
		select {
		case in.Progress <- pct:
		default:
		}
	}

	start := time.Now()
	u.d.Log.Info("render started", "style", string(p.Style), "segments", len(in.Segments))
	if err := u.d.Video.BurnIn(ctx, in.Video, out, graph, progress); err != nil {
		u.d.Scratch.Remove(out)
		u.logFailure("render failed", err)
		switch {
		case ctx.Err() != nil:
			return "", types.RenderError("render", types.DetailOf(err), ctx.Err())
		case types.IsKind(err, types.KindRender):
			return "", err
		default:
			return "", types.RenderError("render", err.Error(), err)
		}
	}
	u.d.Log.Info("render finished", "out", out, "took", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// writeSubtitles serializes segs for burn-in: SRT normally, ASS when the
// style needs per-word karaoke timing or a bar. Export always stays SRT;
// the ASS script only replaces it as ffmpeg input.
func (u Usecase) writeSubtitles(segs []types.Segment, p styles.Params) (string, bool, error) {
	ext, body, assInput := ".srt", subtitles.SerializeSRT(segs), false
	if p.NeedsASS() {
		ext, body, assInput = ".ass", subtitles.RenderASS(segs, p), true
	}
	path := u.d.Scratch.Path("subs", ext)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		u.d.Scratch.Remove(path)
		return "", false, fmt.Errorf("write %s: %w", path, err)
	}
	return path, assInput, nil
}

// Export returns the SRT document for segs, byte-identical to the SRT
// burn-in input.
func Export(segs []types.Segment) string {
	return subtitles.SerializeSRT(segs)
}

func (u Usecase) logFailure(msg string, err error) {
	u.d.Log.Error(msg, "kind", types.KindOf(err).String(), "err", err, "detail", types.DetailOf(err))
}
