// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wodmix CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wodmix/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// secretDefault returns fallback if it is set, otherwise the secret named key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Get(key)
}

// rootCmd is the base command for the wodmix CLI.
var rootCmd = &cobra.Command{
	Use:   "wodmix",
	Short: "Compose workout-matched playlists",
	Long: `wodmix turns a structured workout (phases with durations, intensities and
tempo ranges) into a playlist whose tracks fit each phase's tempo and energy
and whose total length matches the workout.

Tracks come from a pluggable discovery backend (mock, deezer, getsongbpm,
claude, hybrid). Composed playlists can be resolved against Spotify, saved to
a local history, and rated to steer later compositions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			var keys []string
			for _, k := range secrets.Known {
				if _, ok := s[k]; ok {
					keys = append(keys, k)
				}
			}
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wodmix.yaml or ~/.config/wodmix/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wodmix")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wodmix"))
		}
	}

	setConfigDefaults()

	viper.SetEnvPrefix("WODMIX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
