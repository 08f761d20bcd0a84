package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/forPelevin/capsync/internal/pipeline"
	"github.com/forPelevin/capsync/internal/ports/adapters/sqlite"
	"github.com/forPelevin/capsync/internal/types"
)

var envKeys = []string{
	"CAPSYNC_PROVIDER", "CAPSYNC_LANGUAGE", "CAPSYNC_SCRATCH_DIR", "CAPSYNC_DB",
	"CAPSYNC_UPLOADS_DIR", "CAPSYNC_ALLOWED_HOSTS", "CAPSYNC_TRANSCRIBE_TIMEOUT",
	"CAPSYNC_RENDER_TIMEOUT", "FFMPEG_BIN", "FFPROBE_BIN", "WHISPER_BIN", "WHISPER_MODEL",
	"ASSEMBLYAI_API_KEY", "ASSEMBLYAI_BASE_URL", "ASSEMBLYAI_POLL_INTERVAL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "LOG_LEVEL", "LOG_FORMAT",
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeCaptions(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "talk.captions.json")
	err := pipeline.WriteCaptions(path, types.Captions{Video: "talk.mp4", Segments: []types.Segment{
		{Text: "Hello world.", Start: 0, End: 3},
		{Text: "Bye.", Start: 3, End: 4.5},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStylesCommand(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "styles")
	if err != nil {
		t.Fatalf("styles: %v", err)
	}
	for _, want := range []string{"bottom-centered", "top-bar", "karaoke", "#FFD700", "Size (px)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("styles output missing %q:\n%s", want, out)
		}
	}
}

func TestExportCommand(t *testing.T) {
	dir := isolate(t)
	captions := writeCaptions(t, dir)

	out, _, err := execute(t, "export", captions)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:03,000\nHello world.\n\n2\n00:00:03,000 --> 00:00:04,500\nBye.\n\n"
	if out != want {
		t.Fatalf("export output:\n%q\nwant\n%q", out, want)
	}

	srt := filepath.Join(dir, "talk.srt")
	if _, _, err := execute(t, "export", captions, "--out", srt); err != nil {
		t.Fatalf("export --out: %v", err)
	}
	b, err := os.ReadFile(srt)
	if err != nil || string(b) != want {
		t.Fatalf("srt file = %q, %v", b, err)
	}
}

func TestSyncCommand(t *testing.T) {
	dir := isolate(t)
	captions := writeCaptions(t, dir)

	out, _, err := execute(t, "sync", captions, "--at", "1.5", "--style", "karaoke", "--preview", "--height", "540")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	var got struct {
		Index             int      `json:"index"`
		Style             string   `json:"style"`
		HighlightFraction *float64 `json:"highlightFraction"`
		Words             []struct {
			Text        string `json:"text"`
			Highlighted bool   `json:"highlighted"`
		} `json:"words"`
		Preview *struct {
			FontSizePx int `json:"fontSizePx"`
		} `json:"preview"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Index != 0 || got.Style != "karaoke" || got.HighlightFraction == nil || *got.HighlightFraction != 0.5 {
		t.Fatalf("unexpected state %s", out)
	}
	if len(got.Words) != 2 || !got.Words[0].Highlighted || got.Words[1].Highlighted {
		t.Fatalf("unexpected words %s", out)
	}
	if got.Preview == nil || got.Preview.FontSizePx != 24 {
		t.Fatalf("unexpected preview %s", out)
	}

	out, _, err = execute(t, "sync", captions, "--at", "10")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, `"index": -1`) || strings.Contains(out, "highlightFraction") {
		t.Fatalf("expected no active caption, got %s", out)
	}

	if _, _, err := execute(t, "sync", captions, "--at", "-1"); err == nil {
		t.Fatalf("expected error for negative position")
	}
}

func TestListCommand_RequiresStore(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "list")
	if err == nil || !strings.Contains(err.Error(), "CAPSYNC_DB") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestArgsValidation(t *testing.T) {
	isolate(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"generate"}, "accepts 1 arg(s), received 0"},
		{[]string{"render", "a.mp4", "b.mp4"}, "accepts 1 arg(s), received 2"},
		{[]string{"export", "x.json", "--wat"}, "unknown flag: --wat"},
		{[]string{"sync", "x.json", "--at", "soon"}, `invalid argument "soon" for "--at"`},
		{[]string{"generate", "in.mp4", "--provider", "azure"}, `config: unknown provider "azure"`},
		{[]string{"export", "missing.json"}, "read captions"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{types.RenderError("ffmpeg burn-in", "secret stderr", errors.New("exit status 1")), "render failed: ffmpeg burn-in: render error (see logs)\n"},
		{errors.New("config: boom"), "config: boom\n"},
		{context.Canceled, "canceled\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printError(&buf, tt.err)
		if buf.String() != tt.want {
			t.Fatalf("printError(%v) = %q, want %q", tt.err, buf.String(), tt.want)
		}
	}
}

const fakeFFmpeg = `for last; do :; done
case " $* " in
*" -vf "*)
  echo out_time_us=500000
  echo out_time_us=1000000
  echo progress=end
  printf 'mp4' > "$last";;
*)
  printf '\001\002\003\004' > "$last";;
esac`

// installFakeTools points the ffmpeg and whisper settings at shell fakes
// in dir and returns the path of a placeholder video.
func installFakeTools(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fakes need a POSIX sh")
	}
	for name, body := range map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "echo 1.0", "whisper-cli": "exit 0"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	video := filepath.Join(dir, "talk.mp4")
	model := filepath.Join(dir, "model.bin")
	for _, p := range []string{video, model} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("FFMPEG_BIN", filepath.Join(dir, "ffmpeg"))
	t.Setenv("FFPROBE_BIN", filepath.Join(dir, "ffprobe"))
	t.Setenv("WHISPER_BIN", filepath.Join(dir, "whisper-cli"))
	t.Setenv("WHISPER_MODEL", model)
	t.Setenv("CAPSYNC_SCRATCH_DIR", filepath.Join(dir, "scratch"))
	return video
}

func TestRenderCommand_WithFakeTools(t *testing.T) {
	dir := isolate(t)
	captions := writeCaptions(t, dir)
	video := installFakeTools(t, dir)

	outPath := filepath.Join(dir, "final.mp4")
	out, logs, err := execute(t, "render", video, "--captions", captions, "--style", "top-bar", "--out", outPath)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, logs)
	}
	if out != "rendered: "+outPath+"\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
	if !strings.Contains(logs, "percent=100") {
		t.Fatalf("expected sampled progress in logs:\n%s", logs)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestRenderCommand_StoredCaptions(t *testing.T) {
	dir := isolate(t)
	video := installFakeTools(t, dir)
	db := filepath.Join(dir, "db", "captions.db")
	t.Setenv("CAPSYNC_DB", db)
	if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
		t.Fatal(err)
	}
	st, err := sqlite.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	err = st.Save(context.Background(), types.Captions{Video: "talk.mp4", Segments: []types.Segment{{Text: "Stored.", Start: 0, End: 1}}})
	st.Close()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		video   string
		wantErr bool
	}{
		{name: "stored for video", video: video},
		{name: "nothing stored", video: filepath.Join(dir, "other.mp4"), wantErr: true},
	}
	for _, tt := range tests {
		if tt.wantErr {
			if err := os.WriteFile(tt.video, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		outPath := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".mp4")
		_, logs, err := execute(t, "render", tt.video, "--out", outPath)
		if tt.wantErr {
			if !types.IsKind(err, types.KindInvalidInput) {
				t.Fatalf("%s: expected invalid input, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: render: %v\n%s", tt.name, err, logs)
		}
		if _, err := os.Stat(outPath); err != nil {
			t.Fatalf("%s: output missing: %v", tt.name, err)
		}
	}
}
