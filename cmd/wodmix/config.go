// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wodmix/internal/compose"
	"github.com/pdiddy/wodmix/internal/discovery"
	"github.com/pdiddy/wodmix/internal/library"
	"github.com/pdiddy/wodmix/internal/secrets"
	"github.com/pdiddy/wodmix/pkg/types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "wodmix/0.1"
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
)

func setConfigDefaults() {
	viper.SetDefault("discovery.backend", discovery.MockName)
	viper.SetDefault("discovery.genre", compose.DefaultGenre)
	viper.SetDefault("discovery.timeout", defaultTimeout)
	viper.SetDefault("discovery.user_agent", defaultUserAgent)
	viper.SetDefault("discovery.claude.model", defaultClaudeModel)
	viper.SetDefault("discovery.claude.max_tokens", 4096)
	viper.SetDefault("compose.name_prefix", compose.DefaultNamePrefix)
	viper.SetDefault("compose.strategy", string(types.StrategyGreedy))
	viper.SetDefault("compose.validation.duration_tolerance_min", compose.DefaultDurationToleranceMin)
	viper.SetDefault("library.db_path", library.DefaultDBPath)
	viper.SetDefault("resolve.timeout", defaultTimeout)
}

// loadConfig assembles the typed configuration from the config file,
// WODMIX_* environment variables and .secrets/. Values set explicitly in
// config or environment win over secrets files.
func loadConfig() types.Config {
	var cfg types.Config

	cfg.Discovery = types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    viper.GetDuration("discovery.timeout"),
			UserAgent:  viper.GetString("discovery.user_agent"),
			MaxRetries: viper.GetInt("discovery.max_retries"),
		},
		Backend:          viper.GetString("discovery.backend"),
		Genre:            viper.GetString("discovery.genre"),
		GetSongBPMAPIKey: secretDefault(secrets.GetSongBPMAPIKey, viper.GetString("discovery.getsongbpm_api_key")),
		Claude: types.AIConfig{
			Model:     viper.GetString("discovery.claude.model"),
			APIKey:    secretDefault(secrets.AnthropicAPIKey, viper.GetString("discovery.claude.api_key")),
			MaxTokens: viper.GetInt("discovery.claude.max_tokens"),
		},
		HybridThreshold: viper.GetInt("discovery.hybrid_threshold"),
	}

	cfg.Compose = types.ComposeConfig{
		NamePrefix:            viper.GetString("compose.name_prefix"),
		Genre:                 cfg.Discovery.Genre,
		Strategy:              types.Strategy(viper.GetString("compose.strategy")),
		BatchEnergyRelaxation: optionalFloat("compose.batch_energy_relaxation"),
		BatchEnergyFloor:      optionalFloat("compose.batch_energy_floor"),
		MaxFallbackIterations: viper.GetInt("compose.max_fallback_iterations"),
		FallbackSearchLimit:   viper.GetInt("compose.fallback_search_limit"),
		Seed:                  viper.GetInt64("compose.seed"),
		Validation: types.ValidationConfig{
			DurationToleranceMin: optionalFloat("compose.validation.duration_tolerance_min"),
			MaxTracks:            viper.GetInt("compose.validation.max_tracks"),
			MinArtistDiversity:   viper.GetFloat64("compose.validation.min_artist_diversity"),
			MaxBPMJump:           viper.GetInt("compose.validation.max_bpm_jump"),
		},
	}

	cfg.Library = types.LibraryConfig{
		DBPath: viper.GetString("library.db_path"),
	}

	cfg.Resolve = types.ResolveConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    viper.GetDuration("resolve.timeout"),
			UserAgent:  viper.GetString("discovery.user_agent"),
			MaxRetries: viper.GetInt("resolve.max_retries"),
		},
		Market:       viper.GetString("resolve.market"),
		ClientID:     secretDefault(secrets.SpotifyClientID, viper.GetString("resolve.client_id")),
		ClientSecret: secretDefault(secrets.SpotifyClientSecret, viper.GetString("resolve.client_secret")),
	}
	return cfg
}

// optionalFloat returns the value at key, or nil when neither config,
// environment nor a default sets it. An explicit zero is kept.
func optionalFloat(key string) *float64 {
	if !viper.IsSet(key) {
		return nil
	}
	return types.Float64(viper.GetFloat64(key))
}

// toleranceFlag returns --tolerance when it was given.
func toleranceFlag(cmd *cobra.Command) (*float64, error) {
	if !cmd.Flags().Changed("tolerance") {
		return nil, nil
	}
	v, _ := cmd.Flags().GetFloat64("tolerance")
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, fmt.Errorf("--tolerance must be a non-negative number of minutes, got %g", v)
	}
	return &v, nil
}

// sharedSecret returns the key used to verify signed user IDs.
func sharedSecret() string {
	return secretDefault(secrets.SharedSecret, viper.GetString("shared_secret"))
}

// addLibraryFlag registers --db on cmd.
func addLibraryFlag(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "playlist history database (default data/wodmix.db)")
}

// openLibrary opens the history store, honoring --db when set.
func openLibrary(cmd *cobra.Command, cfg types.LibraryConfig) (*library.Store, error) {
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}
	store, err := library.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	return store, nil
}
