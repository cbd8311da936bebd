// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one playlist of a user's history in export form.
type ExportEntry struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	WorkoutName string        `yaml:"workout_name"`
	CreatedAt   time.Time     `yaml:"created_at"`
	DurationMin float64       `yaml:"duration_min"`
	Tracks      []ExportTrack `yaml:"tracks"`
}

// ExportTrack carries the track fields worth reading back plus the
// user's current rating, if any.
type ExportTrack struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Artist string `yaml:"artist"`
	BPM    int    `yaml:"bpm"`
	Phase  string `yaml:"phase,omitempty"`
	Rating int    `yaml:"rating,omitempty"`
}

// ExportYAML writes userID's full history, newest first, to w.
func (s *Store) ExportYAML(ctx context.Context, userID string, w io.Writer) error {
	summaries, err := s.ListPlaylists(ctx, userID)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	ratings, err := s.ratings(ctx, userID)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, 0, len(summaries))
	for _, ps := range summaries {
		rec, err := s.GetPlaylist(ctx, ps.ID)
		if err != nil {
			return err
		}
		e := ExportEntry{
			ID:          ps.ID,
			Name:        ps.Name,
			WorkoutName: ps.WorkoutName,
			CreatedAt:   ps.CreatedAt,
			DurationMin: rec.Playlist.DurationMin(),
		}
		for _, t := range rec.Playlist.Tracks {
			e.Tracks = append(e.Tracks, ExportTrack{
				ID:     t.ID,
				Name:   t.Name,
				Artist: t.Artist,
				BPM:    t.BPM,
				Phase:  t.Phase,
				Rating: ratings[t.ID],
			})
		}
		entries = append(entries, e)
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
