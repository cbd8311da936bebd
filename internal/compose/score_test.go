// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wodmix/pkg/types"
)

var highPhase = types.Phase{
	Name:        "Main WOD",
	DurationMin: 12,
	Intensity:   types.IntensityHigh,
	Tempo:       types.TempoRange{Min: 145, Max: 160},
}

func track(id, artist string, bpm int, energy float64, durationMs int) types.Track {
	return types.Track{ID: id, Name: "Song " + id, Artist: artist, BPM: bpm, Energy: energy, DurationMs: durationMs, Source: "test"}
}

func scoreOf(t *testing.T, scored []types.ScoredTrack, id string) float64 {
	t.Helper()
	for _, st := range scored {
		if st.Track.ID == id {
			return st.Score
		}
	}
	t.Fatalf("track %s not in scored output", id)
	return 0
}

func TestScoreCandidatesComponents(t *testing.T) {
	tests := []struct {
		name  string
		track types.Track
		want  float64
	}{
		// midpoint 152.5, width 15, target energy 0.75
		{"perfect fit", track("a", "A", 152, 0.75, 200000), 50 - 0.5/15*50 + 30 + 20},
		{"range edge", track("b", "B", 145, 0.75, 200000), 50 - 7.5/15*50 + 30 + 20},
		{"far outside range clamps tempo to zero", track("c", "C", 100, 0.75, 200000), 0 + 30 + 20},
		{"energy off by 0.25", track("d", "D", 152, 1.0, 200000), 50 - 0.5/15*50 + 30 - 7.5 + 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreCandidates([]types.Track{tt.track}, highPhase, nil, ScoreOptions{})
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[0].Score, 1e-9)
		})
	}
}

func TestScoreDiversityDelta(t *testing.T) {
	tr := track("1", "Foo Fighters", 150, 0.8, 200000)
	fresh := ScoreCandidates([]types.Track{tr}, highPhase, types.NewStringSet("Nirvana"), ScoreOptions{})
	repeat := ScoreCandidates([]types.Track{tr}, highPhase, types.NewStringSet("Nirvana", "Foo Fighters"), ScoreOptions{})

	assert.InDelta(t, fresh[0].Score-30, repeat[0].Score, 1e-9)
}

func TestScoreBoostAdditivity(t *testing.T) {
	tr := track("1", "Foo Fighters", 150, 0.8, 200000)
	plain := ScoreCandidates([]types.Track{tr}, highPhase, nil, ScoreOptions{})
	boosted := ScoreCandidates([]types.Track{tr}, highPhase, nil, ScoreOptions{Boost: types.NewStringSet("Foo Fighters")})

	assert.InDelta(t, plain[0].Score+15, boosted[0].Score, 1e-9)
}

func TestScoreHiddenExclusion(t *testing.T) {
	tracks := []types.Track{
		track("best", "A", 152, 0.75, 200000),
		track("ok", "B", 148, 0.7, 200000),
		track("meh", "C", 145, 0.5, 200000),
	}

	got := ScoreCandidates(tracks, highPhase, nil, ScoreOptions{Hidden: types.NewStringSet("best")})
	require.Len(t, got, 2)
	for _, st := range got {
		assert.NotEqual(t, "best", st.Track.ID)
	}

	none := ScoreCandidates(tracks, highPhase, nil, ScoreOptions{Hidden: types.NewStringSet("best", "ok", "meh")})
	assert.Empty(t, none)
}

func TestScoreMidpointMonotonicity(t *testing.T) {
	var tracks []types.Track
	for bpm := 140; bpm <= 165; bpm++ {
		tracks = append(tracks, track(string(rune('a'+bpm-140)), "Same", bpm, 0.8, 200000))
	}
	phase := highPhase
	phase.Tempo = types.TempoRange{Min: 144, Max: 160} // integer midpoint 152

	got := ScoreCandidates(tracks, phase, nil, ScoreOptions{})
	assert.Equal(t, 152, got[0].Track.BPM)
	for _, st := range got[1:] {
		assert.LessOrEqual(t, st.Score, got[0].Score)
	}
}

func TestScoreStableTies(t *testing.T) {
	tracks := []types.Track{
		track("first", "A", 150, 0.8, 200000),
		track("second", "B", 150, 0.8, 200000),
		track("third", "C", 150, 0.8, 200000),
	}
	got := ScoreCandidates(tracks, highPhase, nil, ScoreOptions{})
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Track.ID)
	assert.Equal(t, "second", got[1].Track.ID)
	assert.Equal(t, "third", got[2].Track.ID)
}

func TestScoreTargetEnergyOverride(t *testing.T) {
	tr := track("1", "A", 152, 0.5, 200000)
	def := ScoreCandidates([]types.Track{tr}, highPhase, nil, ScoreOptions{})
	over := ScoreCandidates([]types.Track{tr}, highPhase, nil, ScoreOptions{TargetEnergy: types.Float64(0.5)})

	assert.InDelta(t, def[0].Score+7.5, over[0].Score, 1e-9)
}

func TestScoreZeroTargetEnergy(t *testing.T) {
	tracks := []types.Track{
		track("loud", "A", 152, 0.85, 200000),
		track("quiet", "B", 152, 0.0, 200000),
	}
	got := ScoreCandidates(tracks, highPhase, nil, ScoreOptions{TargetEnergy: types.Float64(0)})

	require.Len(t, got, 2)
	assert.Equal(t, "quiet", got[0].Track.ID)
	assert.InDelta(t, got[0].Score-EnergyWeight*0.85, got[1].Score, 1e-9)
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	tracks := []types.Track{
		track("low", "A", 145, 0.5, 200000),
		track("high", "B", 152, 0.75, 200000),
	}
	used := types.NewStringSet("A")
	ScoreCandidates(tracks, highPhase, used, ScoreOptions{})

	assert.Equal(t, "low", tracks[0].ID)
	assert.Len(t, used, 1)
}
