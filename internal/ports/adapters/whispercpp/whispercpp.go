package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/forPelevin/capsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/capsync/internal/scratch"
	"github.com/forPelevin/capsync/internal/transcribe"
	"github.com/forPelevin/capsync/internal/types"
)

// Adapter runs the whisper.cpp CLI as an on-device transcribe.Model.
type Adapter struct {
	bin      string
	model    string
	language string
	scratch  *scratch.Dir
}

func New(binPath, modelPath, language string, dir *scratch.Dir) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language, scratch: dir}
}

var _ transcribe.Model = (*Adapter)(nil)

// Load checks that the binary and model file are usable. whisper.cpp maps
// the model per invocation, so there is nothing to keep resident.
func (a *Adapter) Load(context.Context) error {
	if _, err := exec.LookPath(a.bin); err != nil {
		return fmt.Errorf("whisper.cpp binary %q: %w", a.bin, err)
	}
	st, err := os.Stat(a.model)
	if err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	if st.IsDir() || st.Size() == 0 {
		return fmt.Errorf("whisper model %q is not a model file", a.model)
	}
	return nil
}

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Transcribe(ctx context.Context, samples []float32) (types.TranscriptionResult, error) {
	wavPath := a.scratch.Path("whisper-in", "wav")
	outPrefix := a.scratch.Path("whisper-out", "")
	defer a.scratch.Remove(wavPath)
	defer a.scratch.Remove(outPrefix + ".json")

	if err := os.WriteFile(wavPath, transcribe.EncodeWAV(samples), 0o644); err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("write whisper input: %w", err)
	}

	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-ml", "1",
		"-sow",
		"-np",
	}
	if a.language != "" {
		args = append(args, "-l", a.language)
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.TranscriptionResult{}, types.ProviderUnavailableError("whisper.cpp", endpoint.Truncate(string(b), 2000), err)
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("read whisper output: %w", err)
	}
	return parseOutput(jb)
}

type output struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseOutput maps whisper.cpp -oj entries to chunks. Offsets are
// milliseconds.
func parseOutput(b []byte) (types.TranscriptionResult, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("parse whisper output: %w", err)
	}
	var tr types.TranscriptionResult
	var full strings.Builder
	for _, e := range out.Transcription {
		full.WriteString(e.Text)
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		tr.Chunks = append(tr.Chunks, types.Chunk{
			Text:  text,
			Start: float64(e.Offsets.From) / 1000,
			End:   float64(e.Offsets.To) / 1000,
		})
	}
	tr.FullText = strings.Join(strings.Fields(full.String()), " ")
	return tr, nil
}
