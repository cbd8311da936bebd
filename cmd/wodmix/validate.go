// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wodmix/internal/compose"
	"github.com/pdiddy/wodmix/internal/workout"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a workout file or a saved playlist file",
	Long: `Validate checks a workout file's phases (names, durations, intensities,
tempo ranges, total duration). With --playlist it instead re-validates a file
written by 'compose --output' against the workout stored in it.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("workout", "", "workout YAML file")
	validateCmd.Flags().String("playlist", "", "playlist file written by compose --output")
	validateCmd.Flags().Float64("tolerance", 0, "allowed duration gap in minutes (default 5)")
	validateCmd.MarkFlagsOneRequired("workout", "playlist")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("workout"); path != "" {
		w, err := workout.ReadFile(path)
		if err != nil {
			return err
		}
		if err := compose.ValidateWorkout(w); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "workout %q: %d phases, %d min: ok\n", w.Name, len(w.Phases), w.TotalDurationMin)
	}

	path, _ := cmd.Flags().GetString("playlist")
	if path == "" {
		return nil
	}
	pf, err := workout.ReadPlaylistFile(path)
	if err != nil {
		return err
	}

	cfg := loadConfig().Compose.Validation
	tol, err := toleranceFlag(cmd)
	if err != nil {
		return err
	}
	if tol != nil {
		cfg.DurationToleranceMin = tol
	}
	if ok, reason := compose.ValidatePlaylist(pf.Playlist, pf.Workout, cfg, os.Stderr); !ok {
		return fmt.Errorf("%w: %s", compose.ErrInvalidPlaylist, reason)
	}
	fmt.Fprintf(os.Stdout, "playlist %q: %d tracks, %.1f min: ok\n",
		pf.Playlist.Name, len(pf.Playlist.Tracks), pf.Playlist.DurationMin())
	return nil
}
