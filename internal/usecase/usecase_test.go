package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/scratch"
	"github.com/forPelevin/capsync/internal/types"
)

type fakeVideoTool struct {
	extractErr error
	extracted  []string
	formats    []types.AudioFormat

	burnErr     error
	burnBlock   bool
	graphs      []string
	subsSeen    map[string]string
	progressPct []float64
}

func (f *fakeVideoTool) ExtractAudio(_ context.Context, _, out string, format types.AudioFormat) error {
	f.extracted = append(f.extracted, out)
	f.formats = append(f.formats, format)
	if f.extractErr != nil {
		return f.extractErr
	}
	return os.WriteFile(out, []byte{0, 0, 1, 0}, 0o644)
}

func (f *fakeVideoTool) BurnIn(ctx context.Context, _, out, graph string, progress ports.ProgressFunc) error {
	f.graphs = append(f.graphs, graph)
	f.subsSeen = map[string]string{}
	subs := strings.TrimPrefix(graph, "subtitles=filename=")
	subs, _, _ = strings.Cut(subs, ":force_style=")
	if b, err := os.ReadFile(subs); err == nil {
		f.subsSeen[filepath.Ext(subs)] = string(b)
	}
	if err := os.WriteFile(out, []byte("partial"), 0o644); err != nil {
		return err
	}
	for _, p := range append(f.progressPct, 100) {
		progress(p)
	}
	if f.burnBlock {
		<-ctx.Done()
		return types.RenderError("ffmpeg burn-in", "killed", ctx.Err())
	}
	return f.burnErr
}

func (f *fakeVideoTool) ProbeDuration(context.Context, string) (time.Duration, error) {
	return time.Minute, nil
}

type fakeTranscriber struct {
	format types.AudioFormat
	tr     types.TranscriptionResult
	err    error
	block  bool
	paths  []string
}

func (f *fakeTranscriber) AudioFormat() types.AudioFormat { return f.format }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (types.TranscriptionResult, error) {
	f.paths = append(f.paths, audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return types.TranscriptionResult{}, err
	}
	if f.block {
		<-ctx.Done()
		return types.TranscriptionResult{}, ctx.Err()
	}
	return f.tr, f.err
}

func newUsecase(t *testing.T, v *fakeVideoTool, tr *fakeTranscriber) (Usecase, *scratch.Dir) {
	t.Helper()
	sd, err := scratch.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(Deps{Video: v, Transcriber: tr, Scratch: sd}), sd
}

func assertScratchEmpty(t *testing.T, sd *scratch.Dir) {
	t.Helper()
	entries, err := os.ReadDir(sd.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("scratch not cleaned up: %v", names)
	}
}

func TestGenerate_GroupsAndCleansUp(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{}
	tr := &fakeTranscriber{format: types.AudioPCM, tr: types.TranscriptionResult{
		Chunks: []types.Chunk{
			{Text: "Hello", Start: 0, End: 0.5},
			{Text: "world.", Start: 0.5, End: 1},
			{Text: " ", Start: 1, End: 1},
			{Text: "Bye", Start: 1, End: 1.5},
			{Text: "now", Start: 1.5, End: 2},
		},
	}}
	uc, sd := newUsecase(t, v, tr)

	caps, err := uc.Generate(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(caps.Segments) != 2 || caps.Segments[0].Text != "Hello world." || caps.Segments[1].Text != "Bye now" {
		t.Fatalf("unexpected segments %+v", caps.Segments)
	}
	if caps.Segments[1].End != 2 || caps.Estimate {
		t.Fatalf("unexpected timing %+v", caps)
	}
	if caps.FullText != "Hello world. Bye now" {
		t.Fatalf("FullText = %q", caps.FullText)
	}
	if v.formats[0] != types.AudioPCM || filepath.Ext(tr.paths[0]) != ".pcm" {
		t.Fatalf("extraction must follow the transcriber's format: %v %v", v.formats, tr.paths)
	}
	assertScratchEmpty(t, sd)
}

func TestGenerate_TextOnlyIsEstimated(t *testing.T) {
	t.Parallel()

	tr := &fakeTranscriber{format: types.AudioWAV, tr: types.TranscriptionResult{FullText: "one two three four five six"}}
	uc, _ := newUsecase(t, &fakeVideoTool{}, tr)
	caps, err := uc.Generate(context.Background(), "in.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !caps.Estimate || len(caps.Segments) != 2 || caps.Segments[0].Start != 0 || caps.Segments[1].Start != caps.Segments[0].End {
		t.Fatalf("expected chained estimated segments, got %+v", caps)
	}
}

func TestGenerate_EmptyTranscript(t *testing.T) {
	t.Parallel()

	uc, _ := newUsecase(t, &fakeVideoTool{}, &fakeTranscriber{format: types.AudioWAV})
	caps, err := uc.Generate(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("empty transcript must not fail: %v", err)
	}
	if caps.Segments == nil || len(caps.Segments) != 0 {
		t.Fatalf("expected an empty caption list, got %+v", caps.Segments)
	}
}

func TestGenerate_ErrorKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		video    *fakeVideoTool
		tr       *fakeTranscriber
		timeout  time.Duration
		wantKind types.Kind
	}{
		{
			name:     "extraction failure",
			video:    &fakeVideoTool{extractErr: errors.New("exit status 1")},
			tr:       &fakeTranscriber{format: types.AudioWAV},
			wantKind: types.KindExtraction,
		},
		{
			name:     "authentication passes through",
			video:    &fakeVideoTool{},
			tr:       &fakeTranscriber{format: types.AudioWAV, err: types.AuthenticationError("x", "bad key", nil)},
			wantKind: types.KindAuthentication,
		},
		{
			name:     "untyped provider failure",
			video:    &fakeVideoTool{},
			tr:       &fakeTranscriber{format: types.AudioWAV, err: errors.New("connection reset")},
			wantKind: types.KindProviderUnavailable,
		},
		{
			name:     "deadline",
			video:    &fakeVideoTool{},
			tr:       &fakeTranscriber{format: types.AudioWAV, block: true},
			timeout:  20 * time.Millisecond,
			wantKind: types.KindProviderUnavailable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sd, err := scratch.New(t.TempDir(), nil)
			if err != nil {
				t.Fatal(err)
			}
			uc := New(Deps{Video: tc.video, Transcriber: tc.tr, Scratch: sd, TranscribeTimeout: tc.timeout})
			_, err = uc.Generate(context.Background(), "in.mp4")
			if got := types.KindOf(err); got != tc.wantKind {
				t.Fatalf("kind = %v, want %v (%v)", got, tc.wantKind, err)
			}
			if tc.wantKind == types.KindExtraction && len(tc.tr.paths) != 0 {
				t.Fatalf("transcriber must not run after extraction failure")
			}
			assertScratchEmpty(t, sd)
		})
	}
}

func testSegments() []types.Segment {
	return []types.Segment{
		{Text: "Hello world.", Start: 0, End: 1.5},
		{Text: "Bye now", Start: 1.5, End: 3},
	}
}

func TestRender_SRTStyle(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{progressPct: []float64{10, 50}}
	uc, sd := newUsecase(t, v, &fakeTranscriber{})
	progress := make(chan float64, 8)

	out, err := uc.Render(context.Background(), RenderInput{
		Video: "in.mp4", Segments: testSegments(), Style: "bottom-centered", Progress: progress,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if filepath.Dir(out) != sd.Root() || filepath.Ext(out) != ".mp4" {
		t.Fatalf("unexpected output path %s", out)
	}
	if v.subsSeen[".srt"] != Export(testSegments()) {
		t.Fatalf("burn-in subtitles differ from export:\n%q", v.subsSeen[".srt"])
	}
	if !strings.Contains(v.graphs[0], "force_style=") {
		t.Fatalf("unexpected filter graph %s", v.graphs[0])
	}
	close(progress)
	var got []float64
	for p := range progress {
		got = append(got, p)
	}
	if len(got) != 3 || got[2] != 100 {
		t.Fatalf("progress = %v", got)
	}

	// Only the rendered output remains; the caller owns it.
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	assertScratchEmpty(t, sd)
}

func TestRender_KaraokeUsesASS(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{}
	uc, _ := newUsecase(t, v, &fakeTranscriber{})
	out := filepath.Join(t.TempDir(), "final.mp4")
	got, err := uc.Render(context.Background(), RenderInput{Video: "in.mp4", Segments: testSegments(), Style: "karaoke", Out: out})
	if err != nil || got != out {
		t.Fatalf("Render = %q, %v", got, err)
	}
	ass := v.subsSeen[".ass"]
	if !strings.Contains(ass, "{\\k") || strings.Contains(v.graphs[0], "force_style") {
		t.Fatalf("karaoke must burn an ASS script: graph=%s", v.graphs[0])
	}
}

func TestRender_TopBarBurnsBarFromASS(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{}
	uc, _ := newUsecase(t, v, &fakeTranscriber{})
	out := filepath.Join(t.TempDir(), "final.mp4")
	if _, err := uc.Render(context.Background(), RenderInput{Video: "in.mp4", Segments: testSegments(), Style: "top-bar", Out: out}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	ass := v.subsSeen[".ass"]
	if !strings.Contains(ass, "Style: Bar,") || !strings.Contains(ass, "{\\clip(") {
		t.Fatalf("top-bar must burn its bar from the ASS script:\n%s", ass)
	}
	if strings.Contains(v.graphs[0], "drawbox") || strings.Contains(v.graphs[0], "force_style") {
		t.Fatalf("unexpected filter graph %s", v.graphs[0])
	}
	if _, ok := v.subsSeen[".srt"]; ok {
		t.Fatal("top-bar must not burn an SRT file")
	}
}

func TestRender_FailureCleansUp(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{burnErr: types.RenderError("ffmpeg burn-in", "Error opening output", errors.New("exit status 1"))}
	uc, sd := newUsecase(t, v, &fakeTranscriber{})
	_, err := uc.Render(context.Background(), RenderInput{Video: "in.mp4", Segments: testSegments(), Style: "bottom-centered"})
	if !types.IsKind(err, types.KindRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if types.UserMessage(err) != "render failed" {
		t.Fatalf("unexpected user message %q", types.UserMessage(err))
	}
	assertScratchEmpty(t, sd)
}

func TestRender_CanceledCleansUp(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{burnBlock: true}
	uc, sd := newUsecase(t, v, &fakeTranscriber{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := uc.Render(ctx, RenderInput{Video: "in.mp4", Segments: testSegments(), Style: "karaoke"})
	if !types.IsKind(err, types.KindRender) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled render error, got %v", err)
	}
	assertScratchEmpty(t, sd)
}

func TestRender_ProgressNeverBlocks(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{progressPct: []float64{1, 2, 3}}
	uc, _ := newUsecase(t, v, &fakeTranscriber{})
	done := make(chan error, 1)
	go func() {
		_, err := uc.Render(context.Background(), RenderInput{
			Video: "in.mp4", Segments: testSegments(), Out: filepath.Join(t.TempDir(), "o.mp4"),
			Progress: make(chan float64),
		})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("render blocked on an unread progress channel")
	}
}

func TestRender_RejectsInvalidCaptions(t *testing.T) {
	t.Parallel()

	cases := map[string][]types.Segment{
		"empty list":       nil,
		"end before start": {{Text: "a", Start: 2, End: 1}},
		"blank text":       {{Text: "  ", Start: 0, End: 1}},
	}
	for name, segs := range cases {
		v := &fakeVideoTool{}
		uc, _ := newUsecase(t, v, &fakeTranscriber{})
		_, err := uc.Render(context.Background(), RenderInput{Video: "in.mp4", Segments: segs})
		if !types.IsKind(err, types.KindInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
		if len(v.graphs) != 0 {
			t.Fatalf("%s: renderer must not run", name)
		}
	}
}

func TestRender_AcceptsAuthoredOverlap(t *testing.T) {
	t.Parallel()

	v := &fakeVideoTool{}
	uc, _ := newUsecase(t, v, &fakeTranscriber{})
	segs := []types.Segment{{Text: "a", Start: 0, End: 2}, {Text: "b", Start: 1, End: 3}}
	if _, err := uc.Render(context.Background(), RenderInput{Video: "in.mp4", Segments: segs, Out: filepath.Join(t.TempDir(), "o.mp4")}); err != nil {
		t.Fatalf("overlapping edits must render: %v", err)
	}
}
