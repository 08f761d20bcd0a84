package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/pipeline"
)

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List videos with stored captions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := f.load(cmd)
			if err != nil {
				return err
			}
			store, err := pipeline.OpenStore(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no caption store configured (set CAPSYNC_DB)")
			}
			defer store.Close()

			ctx := cmd.Context()
			names, err := store.List(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				c, err := store.Load(ctx, name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, strconv.Itoa(len(c.Segments)), strconv.FormatBool(c.Estimate)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Video", "Captions", "Estimated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
