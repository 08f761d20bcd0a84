package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/types"
)

func Main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:          "capsync",
		Short:        "Generate, edit and burn captions into videos",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Config file (default capsync.toml or ~/.config/capsync/config.toml)")
	pf.StringVar(&f.provider, "provider", "", "Transcription provider: local, assemblyai or openai")
	pf.StringVar(&f.language, "language", "", "Spoken language hint (ISO-639-1)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(
		newGenerateCmd(f),
		newRenderCmd(f),
		newExportCmd(f),
		newSyncCmd(f),
		newStylesCmd(),
		newListCmd(f),
	)
	return root
}

// printError shows typed failures by category; the detail only goes to
// the logs.
func printError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "canceled")
		return
	}
	if types.KindOf(err) != 0 {
		fmt.Fprintf(w, "%s: %v\n", types.UserMessage(err), err)
		return
	}
	fmt.Fprintln(w, err)
}
