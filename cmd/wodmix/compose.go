// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wodmix/internal/compose"
	"github.com/pdiddy/wodmix/internal/discovery"
	"github.com/pdiddy/wodmix/internal/identity"
	"github.com/pdiddy/wodmix/internal/resolve"
	"github.com/pdiddy/wodmix/internal/workout"
	"github.com/pdiddy/wodmix/pkg/types"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a playlist for a workout file",
	Long: `Compose reads a structured workout (YAML), searches the configured discovery
backend for tracks in each phase's tempo range, and packs them so every phase
is filled close to its duration. The playlist is validated against the
workout before it is printed.

Preference flags adjust scoring: --boost favors artists, --hidden drops track
IDs, --exclude counts artists as already used. With a signed --user-id the
user's saved feedback is merged into boost and hidden.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().String("workout", "", "workout YAML file (required)")
	composeCmd.Flags().String("backend", "", "discovery backend (see 'wodmix backends')")
	composeCmd.Flags().String("genre", "", "genre to search (default rock)")
	composeCmd.Flags().Float64("min-energy", 0, "minimum track energy in [0,1], overriding intensity defaults")
	composeCmd.Flags().String("exclude", "", "artists to treat as already used (comma-separated)")
	composeCmd.Flags().String("boost", "", "artists to favor (comma-separated)")
	composeCmd.Flags().String("hidden", "", "track IDs never to select (comma-separated)")
	composeCmd.Flags().String("taste", "", "free-text taste description for AI backends")
	composeCmd.Flags().String("strategy", "", "packing strategy: greedy or weighted")
	composeCmd.Flags().Int64("seed", 0, "random seed for the weighted strategy")
	composeCmd.Flags().String("name-prefix", "", "playlist name prefix (default CrossFit)")
	composeCmd.Flags().Float64("tolerance", 0, "allowed duration gap in minutes (default 5)")
	composeCmd.Flags().String("user-id", "", "opaque user ID for feedback and history")
	composeCmd.Flags().String("user-signature", "", "hex HMAC-SHA256 of --user-id")
	composeCmd.Flags().Bool("resolve", false, "resolve tracks against Spotify")
	composeCmd.Flags().Bool("save", false, "save the playlist to the history (requires a signed --user-id)")
	composeCmd.Flags().String("output", "", "write workout, playlist and summary to a YAML file")
	composeCmd.Flags().Bool("json", false, "output the playlist as JSON")
	addLibraryFlag(composeCmd)
	composeCmd.MarkFlagRequired("workout")

	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path, _ := cmd.Flags().GetString("workout")
	w, err := workout.ReadFile(path)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	if err := applyComposeFlags(cmd, &cfg); err != nil {
		return err
	}

	prefs, err := preferencesFromFlags(cmd)
	if err != nil {
		return err
	}

	userID := trustedUser(cmd)
	if userID != "" {
		if err := mergeFeedback(ctx, cmd, cfg.Library, userID, &prefs); err != nil {
			fmt.Fprintf(os.Stderr, "warning: feedback not applied: %v\n", err)
		}
	}

	backend, err := discovery.New(cfg.Discovery.Backend, cfg.Discovery)
	if err != nil {
		return err
	}

	c := compose.NewComposer(backend, cfg.Compose, os.Stderr)
	p, stats, err := c.ComposeAndValidate(ctx, w, prefs)
	if err != nil && !errors.Is(err, compose.ErrInvalidPlaylist) {
		return err
	}
	invalid := err

	if resolveFlag, _ := cmd.Flags().GetBool("resolve"); resolveFlag && len(p.Tracks) > 0 {
		if err := resolvePlaylist(ctx, cfg.Resolve, &p); err != nil {
			fmt.Fprintf(os.Stderr, "warning: Spotify resolution skipped: %v\n", err)
		}
	}

	if save, _ := cmd.Flags().GetBool("save"); save && invalid == nil {
		if err := savePlaylist(ctx, cmd, cfg.Library, userID, w, p); err != nil {
			fmt.Fprintf(os.Stderr, "warning: playlist not saved: %v\n", err)
		}
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := workout.WritePlaylistFile(out, workout.NewPlaylistFile(backend.Name(), w, p, stats)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := formatPlaylistOutput(os.Stdout, p, jsonOutput); err != nil {
		return err
	}
	if stats.HasFailures() {
		fmt.Fprintf(os.Stderr, "%d backend warning(s)\n", len(stats.BackendWarnings))
	}
	return invalid
}

func applyComposeFlags(cmd *cobra.Command, cfg *types.Config) error {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Discovery.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("strategy") {
		s, _ := flags.GetString("strategy")
		cfg.Compose.Strategy = types.Strategy(s)
	}
	if flags.Changed("seed") {
		cfg.Compose.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("name-prefix") {
		cfg.Compose.NamePrefix, _ = flags.GetString("name-prefix")
	}
	tol, err := toleranceFlag(cmd)
	if err != nil {
		return err
	}
	if tol != nil {
		cfg.Compose.Validation.DurationToleranceMin = tol
	}
	return nil
}

func preferencesFromFlags(cmd *cobra.Command) (types.Preferences, error) {
	flags := cmd.Flags()
	genre, _ := flags.GetString("genre")
	exclude, _ := flags.GetString("exclude")
	boost, _ := flags.GetString("boost")
	hidden, _ := flags.GetString("hidden")
	taste, _ := flags.GetString("taste")

	prefs := types.Preferences{
		Genre:            strings.TrimSpace(genre),
		ExcludeArtists:   types.ParseStringSet(exclude),
		BoostArtists:     types.ParseStringSet(boost),
		HiddenTrackIDs:   types.ParseStringSet(hidden),
		TasteDescription: strings.TrimSpace(taste),
	}

	if flags.Changed("min-energy") {
		e, _ := flags.GetFloat64("min-energy")
		if math.IsNaN(e) || e < 0 || e > 1 {
			return prefs, fmt.Errorf("--min-energy must be between 0 and 1, got %g", e)
		}
		prefs.MinEnergy = &e
	}
	return prefs, nil
}

// trustedUser returns --user-id when --user-signature verifies against the
// shared secret. Unverified IDs are dropped with a warning.
func trustedUser(cmd *cobra.Command) string {
	userID, _ := cmd.Flags().GetString("user-id")
	sig, _ := cmd.Flags().GetString("user-signature")
	return identity.Trusted(sharedSecret(), strings.TrimSpace(userID), sig, os.Stderr)
}

func mergeFeedback(ctx context.Context, cmd *cobra.Command, cfg types.LibraryConfig, userID string, prefs *types.Preferences) error {
	store, err := openLibrary(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	boost, hidden, err := store.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	for a := range boost {
		prefs.BoostArtists.Add(a)
	}
	for id := range hidden {
		prefs.HiddenTrackIDs.Add(id)
	}
	fmt.Fprintf(os.Stderr, "feedback: %d boosted artist(s), %d hidden track(s)\n", len(boost), len(hidden))
	return nil
}

func resolvePlaylist(ctx context.Context, cfg types.ResolveConfig, p *types.Playlist) error {
	r, err := resolve.NewSpotify(ctx, cfg)
	if err != nil {
		return err
	}
	summary := resolve.Playlist(ctx, r, p)
	for _, w := range summary.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Fprintf(os.Stderr, "spotify %s\n", summary)
	return nil
}

func savePlaylist(ctx context.Context, cmd *cobra.Command, cfg types.LibraryConfig, userID string, w types.Workout, p types.Playlist) error {
	if userID == "" {
		return errors.New("a signed --user-id is required")
	}
	store, err := openLibrary(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SavePlaylist(ctx, userID, w, p); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved playlist %s\n", p.ID)
	return nil
}

func formatPlaylistOutput(out io.Writer, p types.Playlist, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	fmt.Fprintf(out, "%s (%s)\n\n", p.Name, p.ID)
	if len(p.Tracks) == 0 {
		fmt.Fprintln(out, "No tracks.")
		return nil
	}

	fmt.Fprintf(out, "%-3s  %-12s  %-30s  %-24s  %4s  %6s  %5s\n",
		"#", "Phase", "Track", "Artist", "BPM", "Energy", "Time")
	fmt.Fprintln(out, strings.Repeat("-", 96))
	for i, t := range p.Tracks {
		fmt.Fprintf(out, "%-3d  %-12s  %-30s  %-24s  %4d  %6.2f  %5s\n",
			i+1, truncate(t.Phase, 12), truncate(t.Name, 30), truncate(t.Artist, 24),
			t.BPM, t.Energy, clock(t.DurationMs))
	}
	fmt.Fprintf(out, "\n%d tracks, %.1f min\n", len(p.Tracks), p.DurationMin())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// clock formats milliseconds as m:ss.
func clock(ms int) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
