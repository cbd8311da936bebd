// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"unicode"
)

// TrackCandidate is a track returned by a discovery backend before it is
// selected into a playlist. Candidates are built per search call and never
// persisted.
type TrackCandidate struct {
	Name       string  `json:"name" yaml:"name"`
	Artist     string  `json:"artist" yaml:"artist"`
	BPM        int     `json:"bpm" yaml:"bpm"`
	Energy     float64 `json:"energy" yaml:"energy"`
	DurationMs int     `json:"duration_ms" yaml:"duration_ms"`

	// Source names the backend that produced the candidate (e.g. "mock", "deezer", "claude").
	Source string `json:"source" yaml:"source"`

	// SourceID is the identifier in the source system, if it has one.
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	Album string `json:"album,omitempty" yaml:"album,omitempty"`
	Year  int    `json:"year,omitempty" yaml:"year,omitempty"`

	// VerifiedBPM is true only when the tempo came from an authoritative
	// source rather than an estimate or an AI suggestion.
	VerifiedBPM bool `json:"verified_bpm" yaml:"verified_bpm"`
}

// Track is a candidate promoted into a playlist. The Spotify fields are
// filled later by the resolve stage and may stay empty.
type Track struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Artist      string  `json:"artist" yaml:"artist"`
	BPM         int     `json:"bpm" yaml:"bpm"`
	Energy      float64 `json:"energy" yaml:"energy"`
	DurationMs  int     `json:"duration_ms" yaml:"duration_ms"`
	Source      string  `json:"source" yaml:"source"`
	Album       string  `json:"album,omitempty" yaml:"album,omitempty"`
	Year        int     `json:"year,omitempty" yaml:"year,omitempty"`
	VerifiedBPM bool    `json:"verified_bpm" yaml:"verified_bpm"`

	// Phase is the name of the workout phase the track was packed into.
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`

	SpotifyURI  string `json:"spotify_uri,omitempty" yaml:"spotify_uri,omitempty"`
	SpotifyURL  string `json:"spotify_url,omitempty" yaml:"spotify_url,omitempty"`
	AlbumArtURL string `json:"album_art_url,omitempty" yaml:"album_art_url,omitempty"`
}

// NewTrack promotes a candidate to a Track. The ID is the candidate's
// SourceID when present, otherwise a source-qualified slug of artist and name
// so that the same song from the same backend always maps to the same ID.
func NewTrack(c TrackCandidate) Track {
	id := c.SourceID
	if id == "" {
		id = c.Source + ":" + slug(c.Artist) + "-" + slug(c.Name)
	}
	return Track{
		ID:          id,
		Name:        c.Name,
		Artist:      c.Artist,
		BPM:         c.BPM,
		Energy:      c.Energy,
		DurationMs:  c.DurationMs,
		Source:      c.Source,
		Album:       c.Album,
		Year:        c.Year,
		VerifiedBPM: c.VerifiedBPM,
	}
}

// slug lowercases s and collapses every run of non-alphanumerics into one hyphen.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ScoredTrack pairs a track with its score from one scoring call. Scores are
// only comparable within the call that produced them.
type ScoredTrack struct {
	Track Track   `json:"track" yaml:"track"`
	Score float64 `json:"score" yaml:"score"`
}

// Playlist is the ordered result of composition. Tracks follow phase order,
// then selection order within a phase.
type Playlist struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Tracks []Track `json:"tracks" yaml:"tracks"`

	// ExternalURL stays empty until a publishing step creates the playlist remotely.
	ExternalURL string `json:"external_url,omitempty" yaml:"external_url,omitempty"`
}

// DurationMs returns the summed duration of all tracks.
func (p Playlist) DurationMs() int {
	total := 0
	for _, t := range p.Tracks {
		total += t.DurationMs
	}
	return total
}

// DurationMin returns the playlist duration in fractional minutes.
func (p Playlist) DurationMin() float64 {
	return float64(p.DurationMs()) / 60000
}
