// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve matches composed tracks against a streaming catalog so
// they carry playable URIs, links and album art.
package resolve

import (
	"context"
	"fmt"

	"github.com/pdiddy/wodmix/pkg/types"
)

// Resolver fills catalog fields on tracks. Tracks that cannot be matched
// come back unchanged, in the same order.
type Resolver interface {
	Resolve(ctx context.Context, tracks []types.Track) ([]types.Track, ResolveSummary)
}

// ResolveSummary holds counts from one resolution run.
type ResolveSummary struct {
	Resolved   int
	Unresolved int
	Failed     int

	// Warnings describes each failed lookup.
	Warnings []string
}

// Total returns the number of tracks processed.
func (s ResolveSummary) Total() int {
	return s.Resolved + s.Unresolved + s.Failed
}

// HasFailures reports whether any lookup errored.
func (s ResolveSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s ResolveSummary) String() string {
	return fmt.Sprintf("resolved: %d, unresolved: %d, failed: %d", s.Resolved, s.Unresolved, s.Failed)
}

// Playlist resolves p's tracks in place and returns the summary.
func Playlist(ctx context.Context, r Resolver, p *types.Playlist) ResolveSummary {
	tracks, summary := r.Resolve(ctx, p.Tracks)
	p.Tracks = tracks
	return summary
}
