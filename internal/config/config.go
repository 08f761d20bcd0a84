// Package config loads capsync settings from built-in defaults, an
// optional TOML file, a .env file, and the process environment.
//
// Load never validates: the CLI layers its flags on top and then calls
// Validate, so a flag can fix what the file or environment left out.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Provider modes select the transcription backend at wiring time.
const (
	ProviderLocal      = "local"
	ProviderAssemblyAI = "assemblyai"
	ProviderOpenAI     = "openai"
)

type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	// DB enables the caption store when set.
	DB         string `toml:"db"`
	UploadsDir string `toml:"uploads_dir"`
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
}

type Whisper struct {
	Bin   string `toml:"bin"`
	Model string `toml:"model"`
}

type AssemblyAI struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

type Timeouts struct {
	TranscribeSeconds int `toml:"transcribe_seconds"`
	RenderSeconds     int `toml:"render_seconds"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Provider string `toml:"provider"`
	// Language is an ISO-639-1 hint passed to every backend; empty means
	// auto-detect where the backend supports it.
	Language     string     `toml:"language"`
	AllowedHosts []string   `toml:"allowed_hosts"`
	Paths        Paths      `toml:"paths"`
	Whisper      Whisper    `toml:"whisper"`
	AssemblyAI   AssemblyAI `toml:"assemblyai"`
	OpenAI       OpenAI     `toml:"openai"`
	Timeouts     Timeouts   `toml:"timeouts"`
	Logging      Logging    `toml:"logging"`
}

func (c *Config) TranscribeTimeout() time.Duration {
	return time.Duration(c.Timeouts.TranscribeSeconds) * time.Second
}

func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Timeouts.RenderSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.AssemblyAI.PollIntervalSeconds) * time.Second
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/capsync/config.toml")
}

// Load resolves and decodes the configuration file, then applies .env and
// environment overrides. It returns the resolved file path and whether
// that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load() // best-effort; never overrides the real environment
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath prefers an explicit path, then capsync.toml in the
// working directory, then the per-user file.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %q does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("capsync.toml")
	if err != nil {
		return "", false, err
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	for _, p := range []string{projectPath, defaultPath} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true, nil
		}
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))

	var err error
	for _, p := range []struct {
		name string
		v    *string
	}{
		{"paths.scratch_dir", &c.Paths.ScratchDir},
		{"paths.db", &c.Paths.DB},
		{"paths.uploads_dir", &c.Paths.UploadsDir},
		{"whisper.model", &c.Whisper.Model},
	} {
		if *p.v, err = expandPath(strings.TrimSpace(*p.v)); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	c.AssemblyAI.APIKey = strings.TrimSpace(c.AssemblyAI.APIKey)
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
