package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/domain/playback"
	"github.com/forPelevin/capsync/internal/domain/styles"
)

type syncOutput struct {
	playback.State
	Preview *styles.Preview `json:"preview,omitempty"`
}

func newSyncCmd(f *rootFlags) *cobra.Command {
	var (
		at      float64
		style   string
		preview bool
		height  int
	)
	cmd := &cobra.Command{
		Use:   "sync <captions>",
		Short: "Show the caption visible at a playback position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if at < 0 {
				return fmt.Errorf("--at must be >= 0, got %v", at)
			}
			cfg, _, err := f.load(cmd)
			if err != nil {
				return err
			}
			c, err := loadCaptions(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			res := syncOutput{State: playback.Sync(c.Segments, at, style)}
			if preview {
				pv := styles.PreviewFor(styles.Resolve(style), height)
				res.Preview = &pv
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Playback position in seconds")
	cmd.Flags().StringVar(&style, "style", string(styles.Default), "Caption style")
	cmd.Flags().BoolVar(&preview, "preview", false, "Include display properties scaled to --height")
	cmd.Flags().IntVar(&height, "height", styles.ReferenceHeight, "Player height in pixels")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
