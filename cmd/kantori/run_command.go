package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"kantori/internal/songs"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every pending song in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// One batch run at a time; concurrent runs would race on the
			// same work directories.
			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "kantori.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another kantori run is already in progress")
			}
			defer lock.Unlock() //nolint:errcheck

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			// Songs stranded mid-stage by an interrupted run never return
			// to pending on their own; surface them so the operator can
			// resume each one.
			var inflight []songs.Status
			for _, status := range songs.AllStatuses() {
				if status.IsProcessing() {
					inflight = append(inflight, status)
				}
			}
			stranded, err := store.List(cmd.Context(), inflight...)
			if err != nil {
				return err
			}
			for _, song := range stranded {
				fmt.Fprintf(out, "Stuck in %s since an interrupted run: %s (resume with `kantori process %s`)\n",
					song.Status.DisplayLabel(), song.VideoID, song.VideoID)
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			pipe, err := ctx.newPipeline(store, logger)
			if err != nil {
				return err
			}

			result, err := pipe.RunPending(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Processed %d songs: %d succeeded, %d failed\n",
				len(result.Succeeded)+len(result.Failed), len(result.Succeeded), len(result.Failed))
			for _, videoID := range result.Failed {
				fmt.Fprintf(out, "  failed: %s\n", videoID)
			}
			return nil
		},
	}
}
