package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/domain/segments"
	"github.com/forPelevin/capsync/internal/usecase"
)

func newExportCmd(f *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <captions>",
		Short: "Write captions as an SRT file",
		Long:  "Write captions as SRT. <captions> is a captions JSON file or, with a caption store configured, a video filename.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := f.load(cmd)
			if err != nil {
				return err
			}
			c, err := loadCaptions(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			for _, issue := range segments.Validate(c.Segments) {
				log.Warn("caption issue", "issue", issue.String())
			}
			if err := writeOutput(cmd, out, []byte(usecase.Export(c.Segments))); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "subtitles written (%d cues): %s\n", len(c.Segments), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "SRT path (default stdout)")
	return cmd
}
