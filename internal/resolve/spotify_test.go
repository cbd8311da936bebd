// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wodmix/internal/httputil"
	"github.com/pdiddy/wodmix/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func item(name, artist, uri string, durationMs int, widths ...int) map[string]any {
	var images []map[string]any
	for _, w := range widths {
		images = append(images, map[string]any{"url": "https://img/" + uri + "/" + strconv.Itoa(w), "width": w})
	}
	return map[string]any{
		"name":          name,
		"uri":           uri,
		"duration_ms":   durationMs,
		"artists":       []map[string]any{{"name": artist}},
		"album":         map[string]any{"images": images},
		"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/" + uri},
	}
}

func writeItems(w http.ResponseWriter, items ...map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": items}})
}

// spotifyServer serves the token endpoint and routes /search queries
// through handle. It swaps the package URLs for the test's lifetime.
func spotifyServer(t *testing.T, handle func(w http.ResponseWriter, q string)) (*atomic.Int32, *httptest.Server) {
	t.Helper()
	var tokens atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokens.Add(1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
		case "/v1/search":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "track", r.URL.Query().Get("type"))
			handle(w, r.URL.Query().Get("q"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	oldAPI, oldToken := spotifyAPIBase, spotifyTokenURL
	spotifyAPIBase, spotifyTokenURL = srv.URL+"/v1", srv.URL+"/token"
	t.Cleanup(func() { spotifyAPIBase, spotifyTokenURL = oldAPI, oldToken })
	return &tokens, srv
}

func newTestSpotify(t *testing.T) *Spotify {
	t.Helper()
	s, err := NewSpotify(context.Background(), types.ResolveConfig{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)
	return s
}

func TestNewSpotifyRequiresCredentials(t *testing.T) {
	_, err := NewSpotify(context.Background(), types.ResolveConfig{ClientID: "id"})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tokens, _ := spotifyServer(t, func(w http.ResponseWriter, q string) {
		switch q {
		case "track:Basket Case artist:Green Day":
			writeItems(w, item("Basket Case", "Green Day", "spotify:track:bc", 181000, 640, 300, 64))
		case "track:Blitzkrieg Bop artist:Ramones":
			writeItems(w)
		case "Blitzkrieg Bop":
			writeItems(w,
				item("Blitzkrieg Bop", "Cover Band", "spotify:track:cover", 0, 640),
				item("Blitzkrieg Bop - 2016 Remaster", "Ramones", "spotify:track:bb", 0),
			)
		default:
			writeItems(w)
		}
	})

	in := []types.Track{
		{ID: "29", Name: "Basket Case", Artist: "Green Day", BPM: 167, DurationMs: 183000},
		{ID: "27", Name: "Blitzkrieg Bop", Artist: "Ramones", BPM: 165, DurationMs: 133000},
		{ID: "x", Name: "Nothing Matches", Artist: "Nobody", BPM: 160, DurationMs: 200000},
	}
	out, summary := newTestSpotify(t).Resolve(context.Background(), in)

	require.Len(t, out, 3)
	assert.Equal(t, "spotify:track:bc", out[0].SpotifyURI)
	assert.Equal(t, "https://open.spotify.com/track/spotify:track:bc", out[0].SpotifyURL)
	assert.Equal(t, "https://img/spotify:track:bc/300", out[0].AlbumArtURL)
	assert.Equal(t, 181000, out[0].DurationMs, "Spotify duration wins")

	assert.Equal(t, "spotify:track:bb", out[1].SpotifyURI, "bare-title retry prefers the matching artist")
	assert.Empty(t, out[1].AlbumArtURL)
	assert.Equal(t, 133000, out[1].DurationMs, "zero Spotify duration keeps the catalog value")

	assert.Equal(t, in[2], out[2])
	assert.Empty(t, in[0].SpotifyURI, "input is not modified")

	assert.Equal(t, ResolveSummary{Resolved: 2, Unresolved: 1}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.False(t, summary.HasFailures())
	assert.Equal(t, int32(1), tokens.Load(), "token is fetched once and reused")
}

func TestResolveFirstResultWhenNoArtistMatches(t *testing.T) {
	spotifyServer(t, func(w http.ResponseWriter, q string) {
		if q == "Creep" {
			writeItems(w, item("Creep", "TLC", "spotify:track:tlc", 0, 640))
			return
		}
		writeItems(w)
	})

	out, summary := newTestSpotify(t).Resolve(context.Background(), []types.Track{{Name: "Creep", Artist: "Radiohead"}})
	assert.Equal(t, "spotify:track:tlc", out[0].SpotifyURI)
	assert.Equal(t, "https://img/spotify:track:tlc/640", out[0].AlbumArtURL)
	assert.Equal(t, 1, summary.Resolved)
}

func TestResolveFailureLeavesTrack(t *testing.T) {
	spotifyServer(t, func(w http.ResponseWriter, q string) {
		w.WriteHeader(http.StatusBadRequest)
	})

	in := []types.Track{{ID: "1", Name: "Hurt", Artist: "Johnny Cash"}}
	out, summary := newTestSpotify(t).Resolve(context.Background(), in)

	assert.Equal(t, in, out)
	assert.True(t, summary.HasFailures())
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "HTTP 400")
}

func TestResolveCancelled(t *testing.T) {
	spotifyServer(t, func(w http.ResponseWriter, q string) { writeItems(w) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := []types.Track{{Name: "a", Artist: "A"}, {Name: "b", Artist: "B"}}
	out, summary := newTestSpotify(t).Resolve(ctx, in)
	assert.Equal(t, in, out)
	assert.Equal(t, 2, summary.Failed)
}

// stubResolver marks every track with a fixed URI.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, tracks []types.Track) ([]types.Track, ResolveSummary) {
	out := make([]types.Track, len(tracks))
	for i, t := range tracks {
		t.SpotifyURI = "spotify:track:" + t.ID
		out[i] = t
	}
	return out, ResolveSummary{Resolved: len(out)}
}

func TestPlaylist(t *testing.T) {
	p := types.Playlist{Tracks: []types.Track{{ID: "1"}, {ID: "2"}}}
	summary := Playlist(context.Background(), stubResolver{}, &p)
	assert.Equal(t, 2, summary.Resolved)
	assert.Equal(t, "spotify:track:2", p.Tracks[1].SpotifyURI)
	assert.Equal(t, "resolved: 2, unresolved: 0, failed: 0", summary.String())
}
