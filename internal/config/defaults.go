package config

import (
	"os"
	"path/filepath"
)

const (
	defaultProvider          = ProviderLocal
	defaultWhisperBin        = "whisper-cli"
	defaultWhisperModel      = "~/.cache/capsync/models/ggml-base.bin"
	defaultOpenAIModel       = "whisper-1"
	defaultPollSeconds       = 3
	defaultTranscribeSeconds = 30 * 60
	defaultRenderSeconds     = 2 * 60 * 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Provider: defaultProvider,
		Paths: Paths{
			ScratchDir: filepath.Join(os.TempDir(), "capsync"),
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
		},
		Whisper: Whisper{
			Bin:   defaultWhisperBin,
			Model: defaultWhisperModel,
		},
		AssemblyAI: AssemblyAI{PollIntervalSeconds: defaultPollSeconds},
		OpenAI:     OpenAI{Model: defaultOpenAIModel},
		Timeouts: Timeouts{
			TranscribeSeconds: defaultTranscribeSeconds,
			RenderSeconds:     defaultRenderSeconds,
		},
		Logging: Logging{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}
