// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		in      string
		want    Intensity
		wantErr bool
	}{
		{"warm_up", IntensityWarmUp, false},
		{" Very_High ", IntensityVeryHigh, false},
		{"cooldown", IntensityCooldown, false},
		{"warmup", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntensity(tt.in)
			if tt.wantErr {
				assert.ErrorContains(t, err, "want one of warm_up, low, moderate, high, very_high, cooldown")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntensityDefaults(t *testing.T) {
	for _, in := range Intensities {
		r, ok := in.DefaultTempo()
		require.True(t, ok, in)
		assert.Less(t, r.Min, r.Max, in)
		assert.Greater(t, in.DefaultMinEnergy(), 0.0, in)
	}

	assert.InDelta(t, 0.85, IntensityVeryHigh.DefaultMinEnergy(), 1e-9)
	assert.InDelta(t, 0.5, Intensity("bogus").DefaultMinEnergy(), 1e-9)
	_, ok := Intensity("bogus").DefaultTempo()
	assert.False(t, ok)
}

func TestTempoRange(t *testing.T) {
	r := TempoRange{Min: 160, Max: 175}
	assert.InDelta(t, 167.5, r.Mid(), 1e-9)
	assert.Equal(t, 15, r.Width())
	assert.True(t, r.Contains(160))
	assert.True(t, r.Contains(175))
	assert.False(t, r.Contains(176))
	assert.Equal(t, "160-175", r.String())
}

func TestWorkoutDurations(t *testing.T) {
	w := Workout{Phases: []Phase{{DurationMin: 5}, {DurationMin: 12}}}
	assert.Equal(t, 17, w.PhaseDurationSum())
	assert.Equal(t, 300000, w.Phases[0].DurationMs())
}

func TestNewTrack(t *testing.T) {
	withID := NewTrack(TrackCandidate{Name: "Basket Case", Artist: "Green Day", Source: "mock", SourceID: "29", BPM: 167})
	assert.Equal(t, "29", withID.ID)
	assert.Equal(t, 167, withID.BPM)
	assert.Empty(t, withID.Phase)

	noID := NewTrack(TrackCandidate{Name: "Don't Stop Me Now!", Artist: "Queen", Source: "claude"})
	assert.Equal(t, "claude:queen-don-t-stop-me-now", noID.ID)
}

func TestPlaylistDuration(t *testing.T) {
	p := Playlist{Tracks: []Track{{DurationMs: 180000}, {DurationMs: 90000}}}
	assert.Equal(t, 270000, p.DurationMs())
	assert.InDelta(t, 4.5, p.DurationMin(), 1e-9)
	assert.Zero(t, Playlist{}.DurationMs())
}

func TestStringSet(t *testing.T) {
	s := ParseStringSet(" Ramones, ,Green Day,Ramones")
	assert.Equal(t, []string{"Green Day", "Ramones"}, s.Sorted())
	assert.True(t, s.Has("Ramones"))
	assert.False(t, s.Has(" Ramones"))

	c := s.Clone()
	c.Add("Queen")
	assert.False(t, s.Has("Queen"))

	var nilSet StringSet
	assert.False(t, nilSet.Has("x"))
	assert.Empty(t, nilSet.Clone())
	assert.Empty(t, ParseStringSet("").Sorted())
}

func TestEnergyThreshold(t *testing.T) {
	assert.InDelta(t, 0.75, Preferences{}.EnergyThreshold(IntensityHigh), 1e-9)
	e := 0.2
	assert.InDelta(t, 0.2, Preferences{MinEnergy: &e}.EnergyThreshold(IntensityHigh), 1e-9)
}
