package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/capsync/internal/ports/adapters/endpoint"
)

type lookupFunc func(string) (string, bool)

// applyEnv overlays environment variables. Unset variables leave the file
// value alone; set-but-empty ones clear it.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := []struct {
		key string
		v   *string
	}{
		{"CAPSYNC_PROVIDER", &c.Provider},
		{"CAPSYNC_LANGUAGE", &c.Language},
		{"CAPSYNC_SCRATCH_DIR", &c.Paths.ScratchDir},
		{"CAPSYNC_DB", &c.Paths.DB},
		{"CAPSYNC_UPLOADS_DIR", &c.Paths.UploadsDir},
		{"FFMPEG_BIN", &c.Paths.FFmpeg},
		{"FFPROBE_BIN", &c.Paths.FFprobe},
		{"WHISPER_BIN", &c.Whisper.Bin},
		{"WHISPER_MODEL", &c.Whisper.Model},
		{"ASSEMBLYAI_API_KEY", &c.AssemblyAI.APIKey},
		{"ASSEMBLYAI_BASE_URL", &c.AssemblyAI.BaseURL},
		{"OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"OPENAI_BASE_URL", &c.OpenAI.BaseURL},
		{"OPENAI_MODEL", &c.OpenAI.Model},
		{"LOG_LEVEL", &c.Logging.Level},
		{"LOG_FORMAT", &c.Logging.Format},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.v = v
		}
	}
	if v, ok := lookup("CAPSYNC_ALLOWED_HOSTS"); ok {
		c.AllowedHosts = endpoint.SplitHosts(v)
	}

	ints := []struct {
		key string
		v   *int
	}{
		{"CAPSYNC_TRANSCRIBE_TIMEOUT", &c.Timeouts.TranscribeSeconds},
		{"CAPSYNC_RENDER_TIMEOUT", &c.Timeouts.RenderSeconds},
		{"ASSEMBLYAI_POLL_INTERVAL", &c.AssemblyAI.PollIntervalSeconds},
	}
	for _, s := range ints {
		v, ok := lookup(s.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s must be whole seconds, got %q", s.key, v)
		}
		*s.v = n
	}
	return nil
}
