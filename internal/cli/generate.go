package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/pipeline"
)

func newGenerateCmd(f *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate <video>",
		Short: "Transcribe a video into timed captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, log, err := f.pipeline(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			c, err := p.Generate(ctx, args[0])
			if err != nil {
				logFailure(log, "generate failed", err)
				return err
			}
			if out == "" {
				name := filepath.Base(args[0])
				out = strings.TrimSuffix(name, filepath.Ext(name)) + ".captions.json"
			}
			if out == "-" {
				return writeJSON(cmd, c)
			}
			if err := pipeline.WriteCaptions(out, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "captions written (%d segments): %s\n", len(c.Segments), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", `Captions JSON path ("-" for stdout; default <video>.captions.json)`)
	return cmd
}
