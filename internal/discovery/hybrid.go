// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"

	"github.com/pdiddy/wodmix/pkg/types"
)

const (
	defaultHybridThreshold = 5
	hybridBatchLimit       = 20
)

// HybridBackend prefers a verified Primary source and tops up from
// Secondary when the primary comes back thin.
type HybridBackend struct {
	Primary   Backend
	Secondary Backend

	// Threshold is the per-phase primary count that BatchSearch accepts
	// without consulting Secondary (default 5).
	Threshold int
}

// Name returns the backend identifier.
func (h *HybridBackend) Name() string { return HybridName }

// SearchByBPM returns the primary's results when they cover at least half
// the limit. Otherwise secondary results by artists not yet present are
// appended and the merged list is truncated to the limit. A failing source
// counts as empty; an error is returned only when both fail.
func (h *HybridBackend) SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	return h.search(ctx, req, max(1, limit/2), limit)
}

// BatchSearch runs the hybrid search once per phase with a fixed limit.
func (h *HybridBackend) BatchSearch(ctx context.Context, req BatchRequest) (map[string][]types.TrackCandidate, error) {
	threshold := h.Threshold
	if threshold <= 0 {
		threshold = defaultHybridThreshold
	}
	out := make(map[string][]types.TrackCandidate, len(req.Phases))
	for _, p := range req.Phases {
		cands, err := h.search(ctx, SearchRequest{BPMMin: p.BPMMin, BPMMax: p.BPMMax, Genre: req.Genre, Limit: hybridBatchLimit}, threshold, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out[p.Name] = cands
	}
	return out, nil
}

// search merges primary and secondary results. truncate <= 0 keeps all.
func (h *HybridBackend) search(ctx context.Context, req SearchRequest, enough, truncate int) ([]types.TrackCandidate, error) {
	primary, perr := h.Primary.SearchByBPM(ctx, req)
	if perr == nil && len(primary) >= enough {
		return primary, nil
	}

	secondary, serr := h.Secondary.SearchByBPM(ctx, req)
	if perr != nil && serr != nil {
		return nil, fmt.Errorf("%s: %v; %s: %w", h.Primary.Name(), perr, h.Secondary.Name(), serr)
	}

	merged := append([]types.TrackCandidate(nil), primary...)
	seen := types.NewStringSet()
	for _, c := range merged {
		seen.Add(c.Artist)
	}
	for _, c := range secondary {
		if seen.Has(c.Artist) {
			continue
		}
		merged = append(merged, c)
		seen.Add(c.Artist)
	}
	if truncate > 0 && len(merged) > truncate {
		merged = merged[:truncate]
	}
	return merged, nil
}
