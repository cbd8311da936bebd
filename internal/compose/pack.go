// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"math/rand/v2"

	"github.com/pdiddy/wodmix/pkg/types"
)

const (
	// OvershootToleranceMs is how far past its target a phase may run.
	OvershootToleranceMs = 90_000

	// MinRemainingMs is the smallest leftover budget worth filling.
	MinRemainingMs = 60_000

	// weightedPool is how many top-ranked tracks WeightedPick samples from.
	weightedPool = 5
)

// PackPhase walks scored tracks in rank order and keeps those that fit the
// phase's duration budget. It stops as soon as targetMs is reached. A track
// that would run past targetMs+OvershootToleranceMs is skipped unless the
// phase is still empty, and when nothing fits the top-ranked track is taken
// anyway so a non-empty pool never yields an empty phase.
//
// Every accepted track's artist is added to used.
func PackPhase(phase types.Phase, targetMs int, scored []types.ScoredTrack, used types.StringSet) []types.Track {
	var out []types.Track
	accumulated := 0
	maxMs := targetMs + OvershootToleranceMs

	accept := func(t types.Track) {
		t.Phase = phase.Name
		out = append(out, t)
		used.Add(t.Artist)
		accumulated += t.DurationMs
	}

	for _, st := range scored {
		if accumulated >= targetMs || maxMs-accumulated < MinRemainingMs {
			break
		}
		if accumulated+st.Track.DurationMs > maxMs && len(out) > 0 {
			continue
		}
		accept(st.Track)
	}

	if len(out) == 0 && len(scored) > 0 {
		accept(scored[0].Track)
	}
	return out
}

// WeightedPick samples one of the top five scored tracks with probability
// proportional to score. Non-positive scores carry no weight; when the
// total weight is not positive the top-ranked track is returned. ok is
// false only for an empty list.
func WeightedPick(scored []types.ScoredTrack, rng *rand.Rand) (pick types.ScoredTrack, ok bool) {
	if len(scored) == 0 {
		return types.ScoredTrack{}, false
	}
	top := scored[:min(weightedPool, len(scored))]

	total := 0.0
	for _, st := range top {
		total += max(0, st.Score)
	}
	if total <= 0 {
		return top[0], true
	}

	r := rng.Float64() * total
	cumulative := 0.0
	last := 0
	for i, st := range top {
		if st.Score <= 0 {
			continue
		}
		cumulative += st.Score
		last = i
		if r < cumulative {
			return st, true
		}
	}
	return top[last], true
}
