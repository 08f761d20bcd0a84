package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/config"
	"github.com/forPelevin/capsync/internal/logging"
	"github.com/forPelevin/capsync/internal/pipeline"
	"github.com/forPelevin/capsync/internal/types"
)

const commandTimeout = 3 * time.Hour

type rootFlags struct {
	configPath string
	provider   string
	language   string
	logLevel   string
	logFormat  string
}

// load reads configuration and applies flag overrides. It does not
// validate; pipeline.New does that for commands that need a transcriber.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, path, exists, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = strings.ToLower(strings.TrimSpace(f.provider))
	}
	if flags.Changed("language") {
		cfg.Language = strings.ToLower(strings.TrimSpace(f.language))
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if exists {
		log.Debug("config loaded", "path", path)
	}
	return cfg, log, nil
}

func (f *rootFlags) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, *slog.Logger, error) {
	cfg, log, err := f.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.New(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return p, log, nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

// loadCaptions reads a captions file, falling back to the configured
// store by video filename.
func loadCaptions(ctx context.Context, cfg *config.Config, source string) (types.Captions, error) {
	store, err := pipeline.OpenStore(cfg)
	if err != nil {
		return types.Captions{}, err
	}
	if store != nil {
		defer store.Close()
	}
	return pipeline.LoadCaptions(ctx, store, source)
}

func logFailure(log *slog.Logger, msg string, err error) {
	log.Error(msg, "kind", types.KindOf(err).String(), "err", err, "detail", types.DetailOf(err))
}

func writeOutput(cmd *cobra.Command, out string, body []byte) error {
	if out == "" || out == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	return os.WriteFile(out, body, 0o644)
}
