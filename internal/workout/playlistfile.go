// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workout

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wodmix/internal/compose"
	"github.com/pdiddy/wodmix/pkg/types"
)

// PlaylistFile is the on-disk record of one composition: the workout it was
// built for, the playlist, and how it was assembled. A saved file can be
// re-validated or resolved later without searching again.
type PlaylistFile struct {
	Workout  types.Workout   `yaml:"workout"`
	Playlist types.Playlist  `yaml:"playlist"`
	Summary  PlaylistSummary `yaml:"summary"`
}

// PlaylistSummary stores composition statistics and a timestamp.
type PlaylistSummary struct {
	Backend         string         `yaml:"backend"`
	Tracks          int            `yaml:"tracks"`
	DurationMin     float64        `yaml:"duration_min"`
	PhaseTracks     map[string]int `yaml:"phase_tracks"`
	BatchUsed       bool           `yaml:"batch_used"`
	FallbackPhases  []string       `yaml:"fallback_phases,omitempty"`
	BackendWarnings []string       `yaml:"backend_warnings,omitempty"`
	Timestamp       time.Time      `yaml:"timestamp"`
}

// NewPlaylistFile assembles the file record for a finished composition.
func NewPlaylistFile(backend string, w types.Workout, p types.Playlist, stats compose.ComposeStats) PlaylistFile {
	return PlaylistFile{
		Workout:  w,
		Playlist: p,
		Summary: PlaylistSummary{
			Backend:         backend,
			Tracks:          len(p.Tracks),
			DurationMin:     p.DurationMin(),
			PhaseTracks:     stats.PhaseTracks,
			BatchUsed:       stats.BatchUsed,
			FallbackPhases:  stats.FallbackPhases,
			BackendWarnings: stats.BackendWarnings,
			Timestamp:       time.Now().UTC(),
		},
	}
}

// WritePlaylistFile saves pf to path as YAML.
func WritePlaylistFile(path string, pf PlaylistFile) error {
	data, err := yaml.Marshal(&pf)
	if err != nil {
		return fmt.Errorf("marshaling playlist file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadPlaylistFile loads a previously saved playlist file.
func ReadPlaylistFile(path string) (*PlaylistFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playlist file: %w", err)
	}
	var pf PlaylistFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing playlist file: %w", err)
	}
	return &pf, nil
}
