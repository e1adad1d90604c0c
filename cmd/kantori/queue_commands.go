package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kantori/internal/songs"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the song queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var list []*songs.Song
			if statusFilter != "" {
				status, ok := songs.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				list, err = store.ListByStatus(cmd.Context(), status)
			} else {
				list, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, song := range list {
				detail := song.ErrorMessage
				if song.Status == songs.StatusCompleted && song.UploadID != "" {
					detail = "https://www.youtube.com/watch?v=" + song.UploadID
				}
				rows = append(rows, []string{
					strconv.FormatInt(song.ID, 10),
					song.VideoID,
					truncate(song.Title, 32),
					song.Status.DisplayLabel(),
					truncate(detail, 48),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Video", "Title", "Status", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show songs with this status")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			// Rows follow the pipeline order rather than sorting labels.
			rows := make([][]string, 0, len(stats.ByStatus)+1)
			for _, status := range songs.AllStatuses() {
				if count, ok := stats.ByStatus[status]; ok {
					rows = append(rows, []string{status.DisplayLabel(), strconv.Itoa(count)})
				}
			}
			rows = append(rows, []string{"Total", strconv.Itoa(stats.Total)})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Status", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [VIDEO_ID...]",
		Short: "Reset failed songs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			videoIDs := make([]string, 0, len(args))
			for _, arg := range args {
				videoID, err := parseVideoID(arg)
				if err != nil {
					return err
				}
				videoIDs = append(videoIDs, videoID)
			}

			count, err := store.RetryFailed(cmd.Context(), videoIDs...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d songs to pending\n", count)
			return nil
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove all failed songs from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.ClearFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed songs\n", count)
			return nil
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove VIDEO_ID...",
		Short: "Remove songs from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				videoID, err := parseVideoID(arg)
				if err != nil {
					return err
				}
				removed, err := store.Remove(cmd.Context(), videoID)
				if err != nil && !errors.Is(err, songs.ErrNotFound) {
					return err
				}
				if removed {
					fmt.Fprintf(out, "Removed %s\n", videoID)
				} else {
					fmt.Fprintf(out, "Not found: %s\n", videoID)
				}
			}
			return nil
		},
	}
}
