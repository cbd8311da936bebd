// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "wodmix/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 and 5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds settings for backends that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the length of a single response (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// DiscoveryConfig holds settings for constructing a discovery backend.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend names the registered backend to use (default "mock").
	Backend string `json:"backend" yaml:"backend"`

	// Genre is the default genre when a request carries none (default "rock").
	Genre string `json:"genre" yaml:"genre"`

	// GetSongBPMAPIKey authenticates against the GetSongBPM tempo API.
	GetSongBPMAPIKey string `json:"getsongbpm_api_key,omitempty" yaml:"getsongbpm_api_key,omitempty"`

	// Claude configures the AI suggestion backend.
	Claude AIConfig `json:"claude" yaml:"claude"`

	// HybridThreshold is the minimum primary result count per phase before the
	// hybrid backend asks its secondary for more (default 5).
	HybridThreshold int `json:"hybrid_threshold" yaml:"hybrid_threshold"`
}

// Strategy selects how the phase packer picks among scored tracks.
type Strategy string

const (
	// StrategyGreedy walks candidates in score order.
	StrategyGreedy Strategy = "greedy"

	// StrategyWeighted samples from the top five with score-proportional weights.
	StrategyWeighted Strategy = "weighted"
)

// ComposeConfig holds settings for the composer.
type ComposeConfig struct {
	// NamePrefix is prepended to the workout name (default "CrossFit").
	NamePrefix string `json:"name_prefix" yaml:"name_prefix"`

	// Genre is used when Preferences.Genre is empty.
	Genre string `json:"genre" yaml:"genre"`

	// Strategy selects greedy or weighted packing (default greedy).
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// BatchEnergyRelaxation lowers the energy threshold for batch pools
	// (default 0.2). Zero keeps batch pools at the strict threshold.
	BatchEnergyRelaxation *float64 `json:"batch_energy_relaxation,omitempty" yaml:"batch_energy_relaxation,omitempty"`

	// BatchEnergyFloor is the lowest relaxed threshold allowed (default 0.3).
	BatchEnergyFloor *float64 `json:"batch_energy_floor,omitempty" yaml:"batch_energy_floor,omitempty"`

	// MaxFallbackIterations caps the direct-search loop per phase (default 50).
	MaxFallbackIterations int `json:"max_fallback_iterations" yaml:"max_fallback_iterations"`

	// FallbackSearchLimit is the limit passed to each direct search (default 20).
	FallbackSearchLimit int `json:"fallback_search_limit" yaml:"fallback_search_limit"`

	// Seed drives the weighted strategy. Zero means seed from the clock.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Validation ValidationConfig `json:"validation" yaml:"validation"`
}

// ValidationConfig holds settings for the playlist validator.
type ValidationConfig struct {
	// DurationToleranceMin is the allowed gap between playlist and workout
	// duration, in minutes (default 5). Zero demands an exact match.
	DurationToleranceMin *float64 `json:"duration_tolerance_min,omitempty" yaml:"duration_tolerance_min,omitempty"`

	// MaxTracks triggers a soft warning when exceeded (default 15).
	MaxTracks int `json:"max_tracks" yaml:"max_tracks"`

	// MinArtistDiversity is the unique-artist ratio below which a warning is
	// logged (default 0.7).
	MinArtistDiversity float64 `json:"min_artist_diversity" yaml:"min_artist_diversity"`

	// MaxBPMJump is the adjacent-track BPM delta that triggers a warning (default 30).
	MaxBPMJump int `json:"max_bpm_jump" yaml:"max_bpm_jump"`
}

// LibraryConfig holds settings for the playlist history store.
type LibraryConfig struct {
	// DBPath is the SQLite database file (default "data/wodmix.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// ResolveConfig holds settings for resolving tracks against Spotify.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// Market restricts the search to a Spotify market (e.g. "US").
	Market string `json:"market,omitempty" yaml:"market,omitempty"`

	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
}

// Config groups all component configurations.
type Config struct {
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Compose   ComposeConfig   `json:"compose" yaml:"compose"`
	Library   LibraryConfig   `json:"library" yaml:"library"`
	Resolve   ResolveConfig   `json:"resolve" yaml:"resolve"`
}

// Float64 returns a pointer to v, for optional settings where zero is a
// meaningful value.
func Float64(v float64) *float64 {
	return &v
}
