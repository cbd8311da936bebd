// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pdiddy/wodmix/internal/httputil"
	"github.com/pdiddy/wodmix/pkg/types"
)

// Spotify endpoints. Declared as vars so tests can substitute an httptest server.
var (
	spotifyAPIBase  = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// preferredArtWidth is the album image size picked when Spotify offers several.
const preferredArtWidth = 300

// Spotify resolves tracks with the Spotify Web API search endpoint.
type Spotify struct {
	// Client must attach a bearer token; NewSpotify returns one that does.
	Client     *http.Client
	Market     string
	MaxRetries int
}

// NewSpotify returns a resolver authenticated with the client-credentials
// flow. Tokens are fetched lazily and refreshed by the oauth2 transport.
func NewSpotify(ctx context.Context, cfg types.ResolveConfig) (*Spotify, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("Spotify client ID and client secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := &http.Client{Timeout: timeout}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyTokenURL,
	}
	client := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	client.Timeout = timeout

	return &Spotify{Client: client, Market: cfg.Market, MaxRetries: cfg.MaxRetries}, nil
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyTrack struct {
	Name       string `json:"name"`
	URI        string `json:"uri"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL   string `json:"url"`
			Width int    `json:"width"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// Resolve looks up each track by name and artist. A failed lookup leaves the
// track untouched and is reported in the summary; cancellation stops the
// run and returns the remaining tracks unchanged.
func (s *Spotify) Resolve(ctx context.Context, tracks []types.Track) ([]types.Track, ResolveSummary) {
	out := make([]types.Track, len(tracks))
	copy(out, tracks)

	var summary ResolveSummary
	for i, t := range out {
		if ctx.Err() != nil {
			summary.Failed += len(out) - i
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("resolution cancelled: %v", ctx.Err()))
			break
		}

		match, err := s.search(ctx, t.Name, t.Artist)
		switch {
		case err != nil:
			summary.Failed++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s by %s: %v", t.Name, t.Artist, err))
		case match == nil:
			summary.Unresolved++
		default:
			out[i] = apply(t, match)
			summary.Resolved++
		}
	}
	return out, summary
}

// search tries a fielded track+artist query first, then the bare title,
// preferring a hit whose artist list mentions the wanted artist.
func (s *Spotify) search(ctx context.Context, name, artist string) (*spotifyTrack, error) {
	items, err := s.query(ctx, fmt.Sprintf("track:%s artist:%s", name, artist), 1)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return &items[0], nil
	}

	items, err = s.query(ctx, name, 5)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	want := strings.ToLower(artist)
	for i := range items {
		if strings.Contains(strings.ToLower(items[i].artistNames()), want) {
			return &items[i], nil
		}
	}
	return &items[0], nil
}

func (s *Spotify) query(ctx context.Context, q string, limit int) ([]spotifyTrack, error) {
	params := url.Values{
		"q":     {q},
		"type":  {"track"},
		"limit": {fmt.Sprint(limit)},
	}
	if s.Market != "" {
		params.Set("market", s.Market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyAPIBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Spotify search: HTTP %d", resp.StatusCode)
	}
	var sr spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Spotify response: %w", err)
	}
	return sr.Tracks.Items, nil
}

func (t spotifyTrack) artistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func (t spotifyTrack) albumArt() string {
	for _, img := range t.Album.Images {
		if img.Width == preferredArtWidth {
			return img.URL
		}
	}
	if len(t.Album.Images) > 0 {
		return t.Album.Images[0].URL
	}
	return ""
}

// apply copies catalog fields onto t. Spotify's duration replaces the
// backend's estimate when present.
func apply(t types.Track, m *spotifyTrack) types.Track {
	t.SpotifyURI = m.URI
	t.SpotifyURL = m.ExternalURLs.Spotify
	t.AlbumArtURL = m.albumArt()
	if m.DurationMs > 0 {
		t.DurationMs = m.DurationMs
	}
	return t
}
