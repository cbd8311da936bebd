// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the wodmix pipeline:
// workout phases produced by phase extraction, track candidates produced by
// discovery backends, and the playlists the composer assembles from them.
package types

import (
	"fmt"
	"strings"
)

// Intensity labels the effort level of a workout phase.
type Intensity string

const (
	IntensityWarmUp   Intensity = "warm_up"
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
	IntensityVeryHigh Intensity = "very_high"
	IntensityCooldown Intensity = "cooldown"
)

// Intensities lists every valid intensity in workout order.
var Intensities = []Intensity{
	IntensityWarmUp,
	IntensityLow,
	IntensityModerate,
	IntensityHigh,
	IntensityVeryHigh,
	IntensityCooldown,
}

// defaultMinEnergy is the minimum track energy expected for each intensity.
// The scorer also uses it as the energy target.
var defaultMinEnergy = map[Intensity]float64{
	IntensityWarmUp:   0.4,
	IntensityLow:      0.5,
	IntensityModerate: 0.6,
	IntensityHigh:     0.75,
	IntensityVeryHigh: 0.85,
	IntensityCooldown: 0.3,
}

// defaultTempo is the tempo range phase extraction must assign per intensity.
var defaultTempo = map[Intensity]TempoRange{
	IntensityWarmUp:   {Min: 100, Max: 120},
	IntensityLow:      {Min: 120, Max: 130},
	IntensityModerate: {Min: 130, Max: 145},
	IntensityHigh:     {Min: 145, Max: 160},
	IntensityVeryHigh: {Min: 160, Max: 175},
	IntensityCooldown: {Min: 80, Max: 100},
}

// ParseIntensity converts s to an Intensity, rejecting unknown labels.
func ParseIntensity(s string) (Intensity, error) {
	in := Intensity(strings.TrimSpace(strings.ToLower(s)))
	if in.Valid() {
		return in, nil
	}
	return "", fmt.Errorf("unknown intensity %q (want one of %s)", s, intensityList())
}

func intensityList() string {
	names := make([]string, len(Intensities))
	for i, in := range Intensities {
		names[i] = string(in)
	}
	return strings.Join(names, ", ")
}

// Valid reports whether i is one of the known intensities.
func (i Intensity) Valid() bool {
	_, ok := defaultMinEnergy[i]
	return ok
}

// DefaultMinEnergy returns the baseline minimum energy for i. Unknown
// intensities fall back to 0.5.
func (i Intensity) DefaultMinEnergy() float64 {
	if e, ok := defaultMinEnergy[i]; ok {
		return e
	}
	return 0.5
}

// DefaultTempo returns the canonical tempo range for i and whether one exists.
func (i Intensity) DefaultTempo() (TempoRange, bool) {
	r, ok := defaultTempo[i]
	return r, ok
}

// TempoRange is an inclusive BPM interval.
type TempoRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Mid returns the midpoint of the range.
func (r TempoRange) Mid() float64 {
	return float64(r.Min+r.Max) / 2
}

// Width returns Max - Min.
func (r TempoRange) Width() int {
	return r.Max - r.Min
}

// Contains reports whether bpm lies inside the range, bounds included.
func (r TempoRange) Contains(bpm int) bool {
	return bpm >= r.Min && bpm <= r.Max
}

func (r TempoRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Phase is one timed segment of a workout. Phases are created by phase
// extraction and never mutated by the composer.
type Phase struct {
	// Name is unique within a workout (e.g. "Warm-up", "Main WOD").
	Name string `json:"name" yaml:"name"`

	// DurationMin is the phase length in whole minutes.
	DurationMin int `json:"duration_min" yaml:"duration_min"`

	// Intensity is the effort label for the phase.
	Intensity Intensity `json:"intensity" yaml:"intensity"`

	// Tempo is the target BPM range for music in this phase.
	Tempo TempoRange `json:"bpm_range" yaml:"bpm_range"`
}

// DurationMs returns the phase duration in milliseconds.
func (p Phase) DurationMs() int {
	return p.DurationMin * 60 * 1000
}

// Workout is the structured result of phase extraction.
type Workout struct {
	Name             string  `json:"workout_name" yaml:"workout_name"`
	TotalDurationMin int     `json:"total_duration_min" yaml:"total_duration_min"`
	Phases           []Phase `json:"phases" yaml:"phases"`
}

// PhaseDurationSum returns the sum of all phase durations in minutes.
func (w Workout) PhaseDurationSum() int {
	total := 0
	for _, p := range w.Phases {
		total += p.DurationMin
	}
	return total
}
