// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/wodmix/internal/discovery"
	"github.com/pdiddy/wodmix/pkg/types"
)

// Composer defaults.
const (
	DefaultNamePrefix            = "CrossFit"
	DefaultGenre                 = "rock"
	DefaultBatchEnergyRelaxation = 0.2
	DefaultBatchEnergyFloor      = 0.3
	DefaultMaxFallbackIterations = 50
	DefaultFallbackSearchLimit   = 20
)

// ComposeStats describes how a playlist was assembled. It is for reporting
// only; the playlist does not depend on it.
type ComposeStats struct {
	BatchUsed       bool
	BatchElapsed    time.Duration
	BatchCandidates int

	// PhaseTracks counts selected tracks per phase name.
	PhaseTracks map[string]int

	// FallbackPhases lists phases filled by per-phase direct search.
	FallbackPhases []string

	// BackendWarnings collects backend errors that were treated as empty results.
	BackendWarnings []string
}

// Total returns the number of selected tracks.
func (s ComposeStats) Total() int {
	n := 0
	for _, c := range s.PhaseTracks {
		n += c
	}
	return n
}

// HasFailures reports whether any backend call failed.
func (s ComposeStats) HasFailures() bool {
	return len(s.BackendWarnings) > 0
}

// Composer builds playlists from workouts using one discovery backend.
// Each Compose call is independent, so a Composer may be shared.
type Composer struct {
	backend discovery.Backend
	cfg     types.ComposeConfig
	w       io.Writer

	// relaxation and floor are the resolved batch energy policy.
	relaxation float64
	floor      float64
}

// NewComposer returns a Composer that writes progress lines to w.
func NewComposer(backend discovery.Backend, cfg types.ComposeConfig, w io.Writer) *Composer {
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = DefaultNamePrefix
	}
	if cfg.Genre == "" {
		cfg.Genre = DefaultGenre
	}
	if cfg.Strategy == "" {
		cfg.Strategy = types.StrategyGreedy
	}
	if cfg.MaxFallbackIterations <= 0 {
		cfg.MaxFallbackIterations = DefaultMaxFallbackIterations
	}
	if cfg.FallbackSearchLimit <= 0 {
		cfg.FallbackSearchLimit = DefaultFallbackSearchLimit
	}
	if w == nil {
		w = io.Discard
	}
	return &Composer{
		backend:    backend,
		cfg:        cfg,
		w:          w,
		relaxation: orDefault(cfg.BatchEnergyRelaxation, DefaultBatchEnergyRelaxation),
		floor:      orDefault(cfg.BatchEnergyFloor, DefaultBatchEnergyFloor),
	}
}

// orDefault returns *v, or def when v is unset, negative or NaN.
func orDefault(v *float64, def float64) float64 {
	if v == nil || !(*v >= 0) {
		return def
	}
	return *v
}

// request is the state of one Compose call. used and chosen grow as tracks
// are accepted and are read by every later phase.
type request struct {
	workout types.Workout
	prefs   types.Preferences
	genre   string
	used    types.StringSet
	chosen  types.StringSet
	rng     *rand.Rand
	stats   ComposeStats
}

// Compose validates w and builds a playlist for it. Backend failures never
// abort composition: they are recorded in ComposeStats and the affected
// phase falls back or stays empty. A phase with no tracks is left for
// ValidatePlaylist to reject.
func (c *Composer) Compose(ctx context.Context, w types.Workout, prefs types.Preferences) (types.Playlist, ComposeStats, error) {
	if err := ValidateWorkout(w); err != nil {
		return types.Playlist{}, ComposeStats{}, err
	}

	req := &request{
		workout: w,
		prefs:   prefs,
		genre:   prefs.Genre,
		used:    prefs.ExcludeArtists.Clone(),
		chosen:  types.NewStringSet(),
		rng:     c.newRand(),
		stats:   ComposeStats{PhaseTracks: make(map[string]int, len(w.Phases))},
	}
	if req.genre == "" {
		req.genre = c.cfg.Genre
	}

	pools := c.prefetch(ctx, req)
	if err := ctx.Err(); err != nil {
		return types.Playlist{}, req.stats, err
	}

	var tracks []types.Track
	for i, phase := range w.Phases {
		phaseTracks := c.fromPool(req, phase, pools[phase.Name])
		if len(phaseTracks) == 0 {
			req.stats.FallbackPhases = append(req.stats.FallbackPhases, phase.Name)
			var err error
			phaseTracks, err = c.fallback(ctx, req, phase)
			if err != nil {
				return types.Playlist{}, req.stats, err
			}
		}
		for _, t := range phaseTracks {
			req.chosen.Add(t.ID)
		}
		tracks = append(tracks, phaseTracks...)
		req.stats.PhaseTracks[phase.Name] = len(phaseTracks)

		fmt.Fprintf(c.w, "phase %d/%d %s: %d tracks, %.1f/%d min\n",
			i+1, len(w.Phases), phase.Name, len(phaseTracks), float64(sumDuration(phaseTracks))/60000, phase.DurationMin)
	}

	p := types.Playlist{
		ID:     uuid.NewString(),
		Name:   fmt.Sprintf("%s: %s", c.cfg.NamePrefix, w.Name),
		Tracks: tracks,
	}
	fmt.Fprintf(c.w, "composed %q: %d tracks, %.1f min\n", p.Name, len(p.Tracks), p.DurationMin())
	return p, req.stats, nil
}

// ComposeAndValidate composes a playlist and runs ValidatePlaylist on it.
// A validation failure returns the playlist alongside an error wrapping
// ErrInvalidPlaylist.
func (c *Composer) ComposeAndValidate(ctx context.Context, w types.Workout, prefs types.Preferences) (types.Playlist, ComposeStats, error) {
	p, stats, err := c.Compose(ctx, w, prefs)
	if err != nil {
		return p, stats, err
	}
	if ok, reason := ValidatePlaylist(p, w, c.cfg.Validation, c.w); !ok {
		return p, stats, fmt.Errorf("%w: %s", ErrInvalidPlaylist, reason)
	}
	return p, stats, nil
}

// prefetch asks a batch-capable backend for every phase at once. A failed
// batch call leaves all pools empty.
func (c *Composer) prefetch(ctx context.Context, req *request) map[string][]types.TrackCandidate {
	bb, ok := discovery.SupportsBatch(c.backend)
	if !ok {
		return nil
	}

	br := discovery.BatchRequest{
		Genre:            req.genre,
		ExcludeArtists:   req.prefs.ExcludeArtists,
		BoostArtists:     req.prefs.BoostArtists,
		TasteDescription: req.prefs.TasteDescription,
	}
	for _, p := range req.workout.Phases {
		br.Phases = append(br.Phases, discovery.PhaseQuery{
			Name:        p.Name,
			BPMMin:      p.Tempo.Min,
			BPMMax:      p.Tempo.Max,
			DurationMin: p.DurationMin,
			MinEnergy:   req.prefs.EnergyThreshold(p.Intensity),
		})
	}

	start := time.Now()
	pools, err := bb.BatchSearch(ctx, br)
	req.stats.BatchElapsed = time.Since(start)
	if err != nil {
		c.warn(req, "batch search on %s failed: %v", c.backend.Name(), err)
		return nil
	}

	req.stats.BatchUsed = true
	for _, cands := range pools {
		req.stats.BatchCandidates += len(cands)
	}
	fmt.Fprintf(c.w, "batch search on %s: %d candidates across %d phases in %s\n",
		c.backend.Name(), req.stats.BatchCandidates, len(pools), req.stats.BatchElapsed.Round(time.Millisecond))
	return pools
}

// fromPool filters a batch pool with the relaxed energy threshold and packs it.
func (c *Composer) fromPool(req *request, phase types.Phase, pool []types.TrackCandidate) []types.Track {
	if len(pool) == 0 {
		return nil
	}
	base := req.prefs.EnergyThreshold(phase.Intensity)
	threshold := max(c.floor, base-c.relaxation)

	tracks := c.eligible(req, phase, pool, threshold, nil)
	if len(tracks) == 0 {
		return nil
	}

	opts := c.scoreOptions(req, base)
	if c.cfg.Strategy == types.StrategyWeighted {
		return c.packWeighted(req, phase, tracks, opts)
	}
	return PackPhase(phase, phase.DurationMs(), ScoreCandidates(tracks, phase, req.used, opts), req.used)
}

// packWeighted fills a phase by repeated WeightedPick draws, applying the
// same duration rules as PackPhase. Scores are recomputed after each pick
// so the diversity term sees the updated used-artist set.
func (c *Composer) packWeighted(req *request, phase types.Phase, tracks []types.Track, opts ScoreOptions) []types.Track {
	target := phase.DurationMs()
	maxMs := target + OvershootToleranceMs
	accumulated := 0
	var out []types.Track

	remaining := tracks
	for len(remaining) > 0 && accumulated < target && maxMs-accumulated >= MinRemainingMs {
		pick, ok := WeightedPick(ScoreCandidates(remaining, phase, req.used, opts), req.rng)
		if !ok {
			break
		}
		remaining = withoutID(remaining, pick.Track.ID)
		if accumulated+pick.Track.DurationMs > maxMs && len(out) > 0 {
			continue
		}
		t := pick.Track
		t.Phase = phase.Name
		out = append(out, t)
		req.used.Add(t.Artist)
		accumulated += t.DurationMs
	}
	return out
}

// fallback fills a phase one direct search at a time with the strict
// energy threshold. The loop is capped at MaxFallbackIterations.
func (c *Composer) fallback(ctx context.Context, req *request, phase types.Phase) ([]types.Track, error) {
	base := req.prefs.EnergyThreshold(phase.Intensity)
	opts := c.scoreOptions(req, base)
	target := phase.DurationMs()
	maxMs := target + OvershootToleranceMs
	accumulated := 0
	var out []types.Track
	taken := types.NewStringSet()

	for iter := 0; iter < c.cfg.MaxFallbackIterations; iter++ {
		if accumulated >= target || maxMs-accumulated < MinRemainingMs {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cands, err := c.backend.SearchByBPM(ctx, discovery.SearchRequest{
			BPMMin: phase.Tempo.Min,
			BPMMax: phase.Tempo.Max,
			Genre:  req.genre,
			Limit:  c.cfg.FallbackSearchLimit,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.warn(req, "search on %s for phase %s failed: %v", c.backend.Name(), phase.Name, err)
			break
		}

		scored := ScoreCandidates(c.eligible(req, phase, cands, base, taken), phase, req.used, opts)
		pick, ok := c.pickOne(req, scored)
		if !ok {
			if len(out) == 0 {
				fmt.Fprintf(c.w, "warning: no candidates for phase %s\n", phase.Name)
			}
			break
		}
		if accumulated+pick.DurationMs > maxMs && len(out) > 0 {
			break
		}

		pick.Phase = phase.Name
		out = append(out, pick)
		taken.Add(pick.ID)
		req.used.Add(pick.Artist)
		accumulated += pick.DurationMs
	}
	return out, nil
}

func (c *Composer) pickOne(req *request, scored []types.ScoredTrack) (types.Track, bool) {
	if c.cfg.Strategy == types.StrategyWeighted {
		st, ok := WeightedPick(scored, req.rng)
		return st.Track, ok
	}
	if len(scored) == 0 {
		return types.Track{}, false
	}
	return scored[0].Track, true
}

// eligible promotes candidates that sit inside the phase's tempo range,
// meet minEnergy and are not already in the playlist (or in skip).
// Duplicate IDs within the pool keep their first occurrence.
func (c *Composer) eligible(req *request, phase types.Phase, cands []types.TrackCandidate, minEnergy float64, skip types.StringSet) []types.Track {
	seen := types.NewStringSet()
	var out []types.Track
	for _, cand := range cands {
		if !phase.Tempo.Contains(cand.BPM) || cand.Energy < minEnergy {
			continue
		}
		t := types.NewTrack(cand)
		if req.chosen.Has(t.ID) || skip.Has(t.ID) || seen.Has(t.ID) {
			continue
		}
		seen.Add(t.ID)
		out = append(out, t)
	}
	return out
}

func (c *Composer) scoreOptions(req *request, targetEnergy float64) ScoreOptions {
	return ScoreOptions{
		TargetEnergy: &targetEnergy,
		Boost:        req.prefs.BoostArtists,
		Hidden:       req.prefs.HiddenTrackIDs,
	}
}

func (c *Composer) warn(req *request, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	req.stats.BackendWarnings = append(req.stats.BackendWarnings, msg)
	fmt.Fprintf(c.w, "warning: %s\n", msg)
}

func (c *Composer) newRand() *rand.Rand {
	if c.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(uint64(c.cfg.Seed), 0))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func withoutID(tracks []types.Track, id string) []types.Track {
	out := make([]types.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func sumDuration(tracks []types.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.DurationMs
	}
	return total
}
