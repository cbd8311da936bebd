// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose turns a workout's phases into a playlist: it scores
// candidate tracks against each phase, packs them to fill the phase
// duration, and validates the assembled result.
package compose

import (
	"math"
	"sort"

	"github.com/pdiddy/wodmix/pkg/types"
)

// Score weights. A track at the tempo midpoint with the target energy by an
// unused, boosted artist scores the maximum of 115.
const (
	TempoWeight     = 50.0
	EnergyWeight    = 30.0
	NewArtistBonus  = 20.0
	RepeatPenalty   = 10.0
	BoostArtistGain = 15.0
)

// ScoreOptions carries the per-request overrides the scorer honors.
type ScoreOptions struct {
	// TargetEnergy replaces the intensity default when set. Zero is a valid
	// target.
	TargetEnergy *float64

	// Boost lists artists that earn BoostArtistGain.
	Boost types.StringSet

	// Hidden lists track IDs removed before scoring.
	Hidden types.StringSet
}

// ScoreCandidates ranks tracks for a phase, best first. Hidden tracks are
// dropped before scoring; equal scores keep pool order. The inputs are not
// modified.
func ScoreCandidates(tracks []types.Track, phase types.Phase, used types.StringSet, opts ScoreOptions) []types.ScoredTrack {
	target := phase.Intensity.DefaultMinEnergy()
	if opts.TargetEnergy != nil {
		target = *opts.TargetEnergy
	}

	scored := make([]types.ScoredTrack, 0, len(tracks))
	for _, t := range tracks {
		if opts.Hidden.Has(t.ID) {
			continue
		}
		s := tempoFit(t.BPM, phase.Tempo) + energyFit(t.Energy, target)
		if used.Has(t.Artist) {
			s -= RepeatPenalty
		} else {
			s += NewArtistBonus
		}
		if opts.Boost.Has(t.Artist) {
			s += BoostArtistGain
		}
		scored = append(scored, types.ScoredTrack{Track: t, Score: s})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// tempoFit is TempoWeight at the range midpoint, falling linearly to zero
// at the range edges.
func tempoFit(bpm int, r types.TempoRange) float64 {
	width := float64(r.Width())
	diff := math.Abs(float64(bpm) - r.Mid())
	if width <= 0 {
		if diff == 0 {
			return TempoWeight
		}
		return 0
	}
	return math.Max(0, TempoWeight-diff/width*TempoWeight)
}

func energyFit(energy, target float64) float64 {
	return math.Max(0, EnergyWeight-math.Abs(energy-target)*EnergyWeight)
}
