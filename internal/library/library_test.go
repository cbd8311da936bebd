// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wodmix/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.LibraryConfig{DBPath: filepath.Join(t.TempDir(), "nested", "wodmix.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func fran() types.Workout {
	return types.Workout{
		Name:             "Fran",
		TotalDurationMin: 20,
		Phases: []types.Phase{
			{Name: "Warm-up", DurationMin: 5, Intensity: types.IntensityWarmUp, Tempo: types.TempoRange{Min: 100, Max: 120}},
			{Name: "Main WOD", DurationMin: 15, Intensity: types.IntensityVeryHigh, Tempo: types.TempoRange{Min: 160, Max: 175}},
		},
	}
}

func samplePlaylist(id string) types.Playlist {
	return types.Playlist{
		ID:   id,
		Name: "CrossFit: Fran",
		Tracks: []types.Track{
			{ID: "3", Name: "Fake Plastic Trees", Artist: "Radiohead", BPM: 110, Energy: 0.45, DurationMs: 290000, Source: "mock", Phase: "Warm-up"},
			{ID: "29", Name: "Basket Case", Artist: "Green Day", BPM: 167, Energy: 0.93, DurationMs: 183000, Source: "mock", Phase: "Main WOD"},
			{ID: "27", Name: "Blitzkrieg Bop", Artist: "Ramones", BPM: 165, Energy: 0.96, DurationMs: 133000, Source: "mock", Phase: "Main WOD", SpotifyURI: "spotify:track:abc"},
			{ID: "32", Name: "I Wanna Be Sedated", Artist: "Ramones", BPM: 174, Energy: 0.96, DurationMs: 150000, Source: "mock", Phase: "Main WOD"},
		},
	}
}

// --- playlists ---

func TestSaveAndGetPlaylist(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	p := samplePlaylist("p1")

	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), p))

	rec, err := s.GetPlaylist(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, fran(), rec.Workout)
	assert.Equal(t, p, rec.Playlist)
	assert.Equal(t, time.Date(2026, 3, 1, 6, 1, 0, 0, time.UTC), rec.CreatedAt)
}

func TestSavePlaylistReplacesTracks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	p := samplePlaylist("p1")
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), p))

	p.Tracks = p.Tracks[:2]
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), p))

	rec, err := s.GetPlaylist(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, rec.Playlist.Tracks, 2)
}

func TestSavePlaylistRequiresID(t *testing.T) {
	s := testStore(t)
	err := s.SavePlaylist(context.Background(), "user-1", fran(), types.Playlist{Name: "x"})
	assert.Error(t, err)
}

func TestGetPlaylistNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetPlaylist(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPlaylists(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), samplePlaylist("old")))
	require.NoError(t, s.SavePlaylist(ctx, "user-2", fran(), samplePlaylist("other")))
	short := samplePlaylist("new")
	short.Tracks = short.Tracks[:1]
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), short))

	got, err := s.ListPlaylists(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, 1, got[0].Tracks)
	assert.Equal(t, 290000, got[0].DurationMs)
	assert.Equal(t, "old", got[1].ID)
	assert.Equal(t, 4, got[1].Tracks)
	assert.Equal(t, "Fran", got[1].WorkoutName)

	none, err := s.ListPlaylists(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// --- feedback ---

func TestRecordFeedbackValidation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), samplePlaylist("p1")))

	tests := []struct {
		name string
		fb   Feedback
		want error
	}{
		{"zero rating", Feedback{UserID: "user-1", PlaylistID: "p1", TrackID: "3", Rating: 0}, ErrInvalidRating},
		{"out of range rating", Feedback{UserID: "user-1", PlaylistID: "p1", TrackID: "3", Rating: 5}, ErrInvalidRating},
		{"unknown track", Feedback{UserID: "user-1", PlaylistID: "p1", TrackID: "999", Rating: ThumbsUp}, ErrNotFound},
		{"unknown playlist", Feedback{UserID: "user-1", PlaylistID: "p9", TrackID: "3", Rating: ThumbsUp}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.RecordFeedback(ctx, tt.fb), tt.want)
		})
	}

	assert.Error(t, s.RecordFeedback(ctx, Feedback{PlaylistID: "p1", TrackID: "3", Rating: ThumbsUp}))
}

func TestPreferencesFromFeedback(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), samplePlaylist("p1")))

	rate := func(track string, rating int) {
		t.Helper()
		require.NoError(t, s.RecordFeedback(ctx, Feedback{UserID: "user-1", PlaylistID: "p1", TrackID: track, Rating: rating}))
	}
	rate("3", ThumbsUp)    // Radiohead +1
	rate("29", ThumbsDown) // Green Day -1
	rate("27", ThumbsUp)   // Ramones +1
	rate("32", ThumbsDown) // Ramones -1, net zero

	boost, hidden, err := s.Preferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Radiohead"}, boost.Sorted())
	assert.Equal(t, []string{"29", "32"}, hidden.Sorted())

	// A later rating replaces the earlier one.
	rate("32", ThumbsUp)
	boost, hidden, err = s.Preferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Radiohead", "Ramones"}, boost.Sorted())
	assert.Equal(t, []string{"29"}, hidden.Sorted())

	boost, hidden, err = s.Preferences(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, boost)
	assert.Empty(t, hidden)
}

// --- export ---

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePlaylist(ctx, "user-1", fran(), samplePlaylist("p1")))
	require.NoError(t, s.RecordFeedback(ctx, Feedback{UserID: "user-1", PlaylistID: "p1", TrackID: "29", Rating: ThumbsDown}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, "user-1", &buf))

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "p1", e.ID)
	assert.Equal(t, "Fran", e.WorkoutName)
	assert.InDelta(t, 12.6, e.DurationMin, 0.01)
	require.Len(t, e.Tracks, 4)
	assert.Equal(t, ThumbsDown, e.Tracks[1].Rating)
	assert.Zero(t, e.Tracks[0].Rating)
	assert.Equal(t, "Main WOD", e.Tracks[1].Phase)
}

func TestExportYAMLEmpty(t *testing.T) {
	s := testStore(t)
	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(context.Background(), "nobody", &buf))
	assert.Equal(t, "[]\n", buf.String())
}
