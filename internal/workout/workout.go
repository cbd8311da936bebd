// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workout reads and writes the YAML files that carry structured
// workouts into the composer and composed playlists out of it.
package workout

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wodmix/pkg/types"
)

// Parse decodes a workout document and fills the fields phase extraction
// may leave out: intensities are normalized, a missing tempo range takes
// the intensity default, and a missing total is the sum of the phases.
// Parse does not validate; compose.ValidateWorkout does that.
func Parse(data []byte) (types.Workout, error) {
	var w types.Workout
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parsing workout: %w", err)
	}
	applyDefaults(&w)
	return w, nil
}

// ReadFile loads a workout from a YAML file.
func ReadFile(path string) (types.Workout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Workout{}, fmt.Errorf("reading workout file: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return w, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// WriteFile saves w as YAML.
func WriteFile(path string, w types.Workout) error {
	data, err := yaml.Marshal(&w)
	if err != nil {
		return fmt.Errorf("marshaling workout: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(w *types.Workout) {
	w.Name = strings.TrimSpace(w.Name)
	for i := range w.Phases {
		p := &w.Phases[i]
		p.Name = strings.TrimSpace(p.Name)
		if in, err := types.ParseIntensity(normalizeIntensity(string(p.Intensity))); err == nil {
			p.Intensity = in
		}
		if p.Tempo == (types.TempoRange{}) {
			if r, ok := p.Intensity.DefaultTempo(); ok {
				p.Tempo = r
			}
		}
	}
	if w.TotalDurationMin == 0 {
		w.TotalDurationMin = w.PhaseDurationSum()
	}
}

// normalizeIntensity accepts "Warm-up", "very high" and similar spellings.
func normalizeIntensity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "warmup" {
		return string(types.IntensityWarmUp)
	}
	if s == "cool_down" || s == "cooldown" {
		return string(types.IntensityCooldown)
	}
	return s
}
