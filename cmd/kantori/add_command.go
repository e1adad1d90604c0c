package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kantori/internal/songs"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var artist string

	cmd := &cobra.Command{
		Use:   "add URL_OR_VIDEO_ID...",
		Short: "Add songs to the processing queue",
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

				// Without a --title the record is labeled by its video id
				// until metadata is known.
				songTitle := strings.TrimSpace(title)
				if songTitle == "" {
					songTitle = videoID
				}

				song, err := store.Add(cmd.Context(), videoID, songTitle, artist, sourceURLFor(arg, videoID))
				if err != nil {
					if errors.Is(err, songs.ErrDuplicate) {
						fmt.Fprintf(out, "Skipped %s: already queued\n", videoID)
						continue
					}
					return fmt.Errorf("add %s: %w", videoID, err)
				}
				fmt.Fprintf(out, "Added %s (queue id %d)\n", song.VideoID, song.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Song title for metadata and upload")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name for metadata and upload")
	return cmd
}
