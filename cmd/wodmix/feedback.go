// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wodmix/internal/library"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Rate a track from a saved playlist",
	Long: `Feedback records a thumbs up or down for one track of a saved playlist.
Artists with a net positive rating are boosted and tracks rated down are
hidden the next time the same user composes a playlist. Rating the same
track again replaces the earlier rating.`,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().String("user-id", "", "opaque user ID (required)")
	feedbackCmd.Flags().String("user-signature", "", "hex HMAC-SHA256 of --user-id")
	feedbackCmd.Flags().String("playlist", "", "saved playlist ID (required)")
	feedbackCmd.Flags().String("track", "", "track ID within the playlist (required)")
	feedbackCmd.Flags().Bool("up", false, "rate the track up")
	feedbackCmd.Flags().Bool("down", false, "rate the track down")
	addLibraryFlag(feedbackCmd)
	feedbackCmd.MarkFlagRequired("user-id")
	feedbackCmd.MarkFlagRequired("playlist")
	feedbackCmd.MarkFlagRequired("track")
	feedbackCmd.MarkFlagsMutuallyExclusive("up", "down")
	feedbackCmd.MarkFlagsOneRequired("up", "down")

	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	userID := trustedUser(cmd)
	if userID == "" {
		return errors.New("feedback requires a signed --user-id")
	}

	playlistID, _ := cmd.Flags().GetString("playlist")
	trackID, _ := cmd.Flags().GetString("track")
	rating := library.ThumbsUp
	if down, _ := cmd.Flags().GetBool("down"); down {
		rating = library.ThumbsDown
	}

	store, err := openLibrary(cmd, loadConfig().Library)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.RecordFeedback(context.Background(), library.Feedback{
		UserID:     userID,
		PlaylistID: playlistID,
		TrackID:    trackID,
		Rating:     rating,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "recorded %+d for track %s\n", rating, trackID)
	return nil
}
