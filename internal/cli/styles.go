package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/domain/styles"
)

func newStylesCmd() *cobra.Command {
	var height int
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List caption styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]string, 0, len(styles.All))
			for _, id := range styles.All {
				pv := styles.PreviewFor(styles.Resolve(string(id)), height)
				highlight := "-"
				if pv.HighlightColor != "" {
					highlight = pv.HighlightColor
				}
				rows = append(rows, []string{
					string(id),
					string(pv.Anchor),
					strconv.Itoa(pv.FontSizePx),
					pv.Color,
					pv.Background,
					highlight,
				})
			}
			headers := []string{"Style", "Anchor", "Size (px)", "Text", "Box", "Highlight"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().IntVar(&height, "height", styles.ReferenceHeight, "Player height in pixels")
	return cmd
}
