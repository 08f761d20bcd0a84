package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/capsync/internal/ports/adapters/endpoint"
)

// Validate ensures the configuration can be wired. Only the selected
// provider's settings are checked.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if c.Timeouts.TranscribeSeconds <= 0 {
		return errors.New("timeouts.transcribe_seconds must be > 0")
	}
	if c.Timeouts.RenderSeconds <= 0 {
		return errors.New("timeouts.render_seconds must be > 0")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	switch c.Provider {
	case ProviderLocal:
		if c.Whisper.Model == "" {
			return errors.New("whisper model path is required (set WHISPER_MODEL)")
		}
	case ProviderAssemblyAI:
		if c.AssemblyAI.APIKey == "" {
			return errors.New("ASSEMBLYAI_API_KEY is required for provider assemblyai")
		}
		if c.AssemblyAI.PollIntervalSeconds <= 0 {
			return errors.New("assemblyai.poll_interval_seconds must be > 0")
		}
		return endpoint.AssemblyAI.Validate(c.AssemblyAI.BaseURL, c.AllowedHosts)
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("OPENAI_API_KEY is required for provider openai")
		}
		return endpoint.OpenAI.Validate(c.OpenAI.BaseURL, c.AllowedHosts)
	default:
		return fmt.Errorf("unknown provider %q (want %s, %s or %s)", c.Provider, ProviderLocal, ProviderAssemblyAI, ProviderOpenAI)
	}
	return nil
}
