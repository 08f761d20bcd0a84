package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capsync/internal/domain/styles"
	"github.com/forPelevin/capsync/internal/pipeline"
	"github.com/forPelevin/capsync/internal/types"
)

func newRenderCmd(f *rootFlags) *cobra.Command {
	var (
		captions string
		style    string
		out      string
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "render <video>",
		Short: "Burn captions into a copy of the video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, log, err := f.pipeline(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			if _, ok := styles.Parse(style); !ok {
				log.Warn("unknown style; using default", "style", style, "default", string(styles.Default))
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			var c types.Captions
			if captions == "" {
				c, err = pipeline.StoredCaptions(ctx, p.Store(), args[0])
			} else {
				c, err = pipeline.LoadCaptions(ctx, p.Store(), captions)
			}
			if err != nil {
				logFailure(log, "load captions failed", err)
				return err
			}

			progress := make(chan float64, 16)
			reporter := newProgressReporter(cmd.ErrOrStderr(), log, "rendering")
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for pct := range progress {
					reporter.Update(pct)
				}
			}()

			path, err := p.Render(ctx, pipeline.RenderRequest{
				Video:    args[0],
				Segments: c.Segments,
				Style:    style,
				Out:      out,
				OutDir:   outDir,
				Progress: progress,
			})
			close(progress)
			wg.Wait()
			reporter.Finish(err == nil)
			if err != nil {
				logFailure(log, "render failed", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&captions, "captions", "", "Captions JSON or SRT (default: stored captions for the video)")
	cmd.Flags().StringVar(&style, "style", string(styles.Default), "Caption style")
	cmd.Flags().StringVar(&out, "out", "", "Output video path")
	cmd.Flags().StringVar(&outDir, "out-dir", "out", "Output directory when --out is not set")
	return cmd
}
