// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
)

// StringSet is an unordered set of strings (artist names or track IDs).
type StringSet map[string]struct{}

// NewStringSet builds a set from items, skipping blanks.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// ParseStringSet splits a comma-separated list into a set, trimming whitespace.
func ParseStringSet(csv string) StringSet {
	return NewStringSet(strings.Split(csv, ",")...)
}

// Add inserts v unless it is blank after trimming.
func (s StringSet) Add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports membership. A nil set contains nothing.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Clone returns an independent copy; cloning nil yields an empty set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Preferences are per-request overrides supplied by the caller. None of
// them are persisted by the composer.
type Preferences struct {
	// Genre overrides the configured default genre when non-empty.
	Genre string `json:"genre,omitempty" yaml:"genre,omitempty"`

	// MinEnergy overrides the per-intensity minimum energy when set.
	MinEnergy *float64 `json:"min_energy,omitempty" yaml:"min_energy,omitempty"`

	// ExcludeArtists seeds the used-artist set and is forwarded to batch backends.
	ExcludeArtists StringSet `json:"-" yaml:"-"`

	// BoostArtists come from positive feedback; each match earns a flat bonus.
	BoostArtists StringSet `json:"-" yaml:"-"`

	// HiddenTrackIDs come from negative feedback; matches are never selected.
	HiddenTrackIDs StringSet `json:"-" yaml:"-"`

	// TasteDescription is passed through to AI-suggestion backends only.
	TasteDescription string `json:"taste_description,omitempty" yaml:"taste_description,omitempty"`
}

// EnergyThreshold returns the minimum energy for a phase of the given intensity.
func (p Preferences) EnergyThreshold(in Intensity) float64 {
	if p.MinEnergy != nil {
		return *p.MinEnergy
	}
	return in.DefaultMinEnergy()
}
