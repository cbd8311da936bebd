// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text
// files. The filename is the key name and the trimmed contents are the value.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Key names recognized by wodmix.
const (
	AnthropicAPIKey     = "anthropic-api-key"
	GetSongBPMAPIKey    = "getsongbpm-api-key"
	SpotifyClientID     = "spotify-client-id"
	SpotifyClientSecret = "spotify-client-secret"
	SharedSecret        = "wodmix-shared-secret"
)

// Known lists every key name in the order the CLI reports them.
var Known = []string{
	AnthropicAPIKey,
	GetSongBPMAPIKey,
	SpotifyClientID,
	SpotifyClientSecret,
	SharedSecret,
}

// Set maps key names to secret values.
type Set map[string]string

// Get returns the first non-empty value among the secret named key and the
// fallbacks, which are usually config or flag values.
func (s Set) Get(key string, fallbacks ...string) string {
	if v := s[key]; v != "" {
		return v
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

// Load reads all files in dir. A missing directory is not an error and
// yields an empty set. Unreadable files are reported on warn and skipped.
func Load(dir string, warn io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}
