// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pdiddy/wodmix/pkg/types"
)

var (
	// ErrInvalidWorkout marks workouts rejected before any backend call.
	ErrInvalidWorkout = errors.New("invalid workout")

	// ErrInvalidPlaylist marks composed playlists that fail validation.
	ErrInvalidPlaylist = errors.New("invalid playlist")
)

// Playlist validation defaults.
const (
	DefaultDurationToleranceMin = 5.0
	DefaultMaxTracks            = 15
	DefaultMinArtistDiversity   = 0.7
	DefaultMaxBPMJump           = 30
)

// Tempo bounds a phase range must stay within.
const (
	MinPhaseBPM = 60
	MaxPhaseBPM = 200

	// phaseSumToleranceMin is the allowed gap between the phase durations'
	// sum and the declared workout total.
	phaseSumToleranceMin = 1
)

func withValidationDefaults(cfg types.ValidationConfig) types.ValidationConfig {
	cfg.DurationToleranceMin = types.Float64(orDefault(cfg.DurationToleranceMin, DefaultDurationToleranceMin))
	if cfg.MaxTracks <= 0 {
		cfg.MaxTracks = DefaultMaxTracks
	}
	if cfg.MinArtistDiversity <= 0 {
		cfg.MinArtistDiversity = DefaultMinArtistDiversity
	}
	if cfg.MaxBPMJump <= 0 {
		cfg.MaxBPMJump = DefaultMaxBPMJump
	}
	return cfg
}

// ValidatePlaylist checks p against its source workout. It fails on an
// empty track list or a total duration further than the tolerance from the
// workout's declared total. Track count, artist diversity and tempo jumps
// only produce warnings on log. The result depends only on the arguments.
func ValidatePlaylist(p types.Playlist, w types.Workout, cfg types.ValidationConfig, log io.Writer) (bool, string) {
	cfg = withValidationDefaults(cfg)
	if log == nil {
		log = io.Discard
	}

	if len(p.Tracks) == 0 {
		return false, "playlist must have at least one track"
	}

	durationMin := p.DurationMin()
	if math.Abs(durationMin-float64(w.TotalDurationMin)) > *cfg.DurationToleranceMin {
		return false, fmt.Sprintf("playlist duration (%.1f min) doesn't match workout (%d min)", durationMin, w.TotalDurationMin)
	}

	if len(p.Tracks) > cfg.MaxTracks {
		fmt.Fprintf(log, "warning: playlist has %d tracks (recommended at most %d)\n", len(p.Tracks), cfg.MaxTracks)
	}

	artists := types.NewStringSet()
	for _, t := range p.Tracks {
		artists.Add(t.Artist)
	}
	if float64(len(artists)) < float64(len(p.Tracks))*cfg.MinArtistDiversity {
		fmt.Fprintf(log, "warning: low artist diversity: %d unique artists across %d tracks\n", len(artists), len(p.Tracks))
	}

	for i := 1; i < len(p.Tracks); i++ {
		jump := p.Tracks[i].BPM - p.Tracks[i-1].BPM
		if jump < 0 {
			jump = -jump
		}
		if jump > cfg.MaxBPMJump {
			fmt.Fprintf(log, "warning: BPM jump of %d between tracks %d and %d\n", jump, i-1, i)
		}
	}
	return true, ""
}

// ValidateWorkout rejects malformed phase data. The returned error wraps
// ErrInvalidWorkout and names the first problem found.
func ValidateWorkout(w types.Workout) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidWorkout, fmt.Sprintf(format, args...))
	}

	if len(w.Phases) == 0 {
		return invalid("workout has no phases")
	}
	if w.TotalDurationMin <= 0 {
		return invalid("total duration must be positive, got %d", w.TotalDurationMin)
	}

	names := types.NewStringSet()
	for i, p := range w.Phases {
		switch {
		case p.Name == "":
			return invalid("phase %d has no name", i+1)
		case names.Has(p.Name):
			return invalid("duplicate phase name %q", p.Name)
		case p.DurationMin <= 0:
			return invalid("phase %q: duration must be positive, got %d", p.Name, p.DurationMin)
		case !p.Intensity.Valid():
			_, err := types.ParseIntensity(string(p.Intensity))
			return invalid("phase %q: %v", p.Name, err)
		case p.Tempo.Min >= p.Tempo.Max:
			return invalid("phase %q: BPM range %s: min must be below max", p.Name, p.Tempo)
		case p.Tempo.Min < MinPhaseBPM || p.Tempo.Max > MaxPhaseBPM:
			return invalid("phase %q: BPM range %s outside %d-%d", p.Name, p.Tempo, MinPhaseBPM, MaxPhaseBPM)
		}
		names.Add(p.Name)
	}

	sum := w.PhaseDurationSum()
	if diff := sum - w.TotalDurationMin; diff > phaseSumToleranceMin || diff < -phaseSumToleranceMin {
		return invalid("phase durations sum to %d min but workout declares %d min", sum, w.TotalDurationMin)
	}
	return nil
}
