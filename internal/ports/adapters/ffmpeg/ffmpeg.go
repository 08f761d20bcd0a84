package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/types"
)

// DiagnosticLimit bounds how much of ffmpeg's stderr is kept for logs.
const DiagnosticLimit = 4096

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     *slog.Logger
}

func New(ffmpegPath, ffprobePath string, log *slog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: log}
}

// ExtractAudio writes the input's audio track as mono 16 kHz signed
// 16-bit samples, raw or in a WAV container. A zero-byte result is an
// extraction failure.
func (a *Adapter) ExtractAudio(ctx context.Context, inVideo, outAudio string, format types.AudioFormat) error {
	container := "wav"
	if format == types.AudioPCM {
		container = "s16le"
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-nostdin",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(types.SampleRate),
		"-acodec", "pcm_s16le",
		"-f", container,
		outAudio,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.ExtractionError("ffmpeg extract audio", tail(b), contextCause(ctx, err))
	}
	st, err := os.Stat(outAudio)
	if err != nil {
		return types.ExtractionError("ffmpeg extract audio", "output missing", err)
	}
	if st.Size() == 0 {
		return types.ExtractionError("ffmpeg extract audio", "output is empty; input has no decodable audio", nil)
	}
	return nil
}

// BurnIn re-encodes inVideo with filterGraph applied. Progress is read
// from -progress output and reported against the probed duration.
func (a *Adapter) BurnIn(ctx context.Context, inVideo, outVideo, filterGraph string, progress ports.ProgressFunc) error {
	if progress == nil {
		progress = func(float64) {}
	}
	total, err := a.ProbeDuration(ctx, inVideo)
	if err != nil {
		// Rendering still works; progress just jumps to 100 at the end.
		a.log.Warn("ffprobe failed; render progress unavailable", "err", err)
		total = 0
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-nostdin",
		"-i", inVideo,
		"-vf", filterGraph,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		outVideo,
	)
	stderr := &tailBuffer{max: DiagnosticLimit}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return types.RenderError("ffmpeg burn-in", "", err)
	}
	if err := cmd.Start(); err != nil {
		return types.RenderError("ffmpeg burn-in", "", err)
	}
	done := readProgress(stdout, total, progress)
	// Drain stdout fully before Wait closes the pipe.
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		return types.RenderError("ffmpeg burn-in", stderr.String(), contextCause(ctx, err))
	}
	if !done {
		progress(100)
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inVideo string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inVideo,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, tail(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// readProgress consumes ffmpeg -progress key=value lines. It reports
// monotonically increasing percentages below 100 while encoding and 100
// on progress=end, which it returns true for.
func readProgress(r io.Reader, total time.Duration, fn ports.ProgressFunc) bool {
	sc := bufio.NewScanner(r)
	last := -1.0
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			us, err := strconv.ParseInt(val, 10, 64)
			if err != nil || total <= 0 || us < 0 {
				continue
			}
			pct := float64(us) / float64(total.Microseconds()) * 100
			if pct > 99.9 {
				pct = 99.9
			}
			if pct > last {
				last = pct
				fn(pct)
			}
		case "progress":
			if val == "end" {
				fn(100)
				return true
			}
		}
	}
	return false
}

func contextCause(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}

func tail(b []byte) string {
	if len(b) > DiagnosticLimit {
		b = b[len(b)-DiagnosticLimit:]
	}
	return strings.TrimSpace(string(b))
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = append(t.buf[:0], t.buf[len(t.buf)-t.max:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return strings.TrimSpace(string(t.buf)) }
