package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/vorbistag/internal/batch"
)

func newApplyCmd() *cobra.Command {
	var (
		manifestPath string
		concurrency  int
		sf           saveFlags
	)
	cmd := &cobra.Command{
		Use:   "apply --manifest FILE PATH...",
		Short: "Apply a manifest of comment edits to files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := batch.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			paths, err := batch.CollectFiles(args)
			if err != nil {
				return err
			}
			applier := &batch.Applier{
				Log:         logger,
				Rules:       rules,
				Concurrency: concurrency,
				SaveOptions: sf.options(),
			}
			return applier.Run(cmd.Context(), paths)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "TOML manifest of comment edits")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max files tagged in parallel (default: number of CPUs)")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		manifestPath string
		debounce     time.Duration
		sf           saveFlags
	)
	cmd := &cobra.Command{
		Use:   "watch --manifest FILE DIR",
		Short: "Tag .ogg files as they arrive in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := batch.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			w := &batch.Watcher{
				Applier: &batch.Applier{
					Log:         logger,
					Rules:       rules,
					SaveOptions: sf.options(),
				},
				Debounce: debounce,
			}
			err = w.Run(cmd.Context(), args[0])
			if errors.Is(err, context.Canceled) {
				// Interrupted; normal shutdown.
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "TOML manifest of comment edits")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before tagging new arrivals")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}
