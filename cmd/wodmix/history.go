// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [playlist-id]",
	Short: "List saved playlists or show one",
	Long: `History lists the playlists saved for a user, newest first. With a
playlist ID it prints that playlist's tracks. --export writes the user's
whole history, including ratings, as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("user-id", "", "opaque user ID")
	historyCmd.Flags().String("user-signature", "", "hex HMAC-SHA256 of --user-id")
	historyCmd.Flags().Bool("export", false, "write the full history as YAML")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	addLibraryFlag(historyCmd)

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openLibrary(cmd, loadConfig().Library)
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if len(args) == 1 {
		rec, err := store.GetPlaylist(ctx, args[0])
		if err != nil {
			return err
		}
		return formatPlaylistOutput(os.Stdout, rec.Playlist, jsonOutput)
	}

	userID := trustedUser(cmd)
	if userID == "" {
		return errors.New("history requires a signed --user-id or a playlist ID")
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		return store.ExportYAML(ctx, userID, os.Stdout)
	}

	playlists, err := store.ListPlaylists(ctx, userID)
	if err != nil {
		return err
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(playlists)
	}

	if len(playlists) == 0 {
		fmt.Println("No saved playlists.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-36s  %-30s  %6s  %6s  %s\n", "ID", "Name", "Tracks", "Min", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 104))
	for _, p := range playlists {
		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %6d  %6.1f  %s\n",
			p.ID, truncate(p.Name, 30), p.Tracks, float64(p.DurationMs)/60000, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stdout, "\n%d playlists\n", len(playlists))
	return nil
}
