package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process VIDEO_ID...",
		Short: "Run the pipeline for specific songs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			pipe, err := ctx.newPipeline(store, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failures int
			for _, arg := range args {
				videoID, err := parseVideoID(arg)
				if err != nil {
					return err
				}
				if err := pipe.Process(cmd.Context(), videoID); err != nil {
					failures++
					fmt.Fprintf(out, "Failed %s: %v\n", videoID, err)
					continue
				}
				fmt.Fprintf(out, "Completed %s\n", videoID)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d songs failed", failures, len(args))
			}
			return nil
		},
	}
}
