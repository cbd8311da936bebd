// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/wodmix/internal/httputil"
	"github.com/pdiddy/wodmix/pkg/types"
)

// deezerAPIBase is the Deezer public API root. Declared as a var so tests
// can substitute an httptest server.
var deezerAPIBase = "https://api.deezer.com"

// DeezerBackend searches Deezer's unauthenticated catalog. Search results
// carry no tempo, so every hit costs one extra /track lookup; hits whose
// lookup fails or reports no BPM are skipped.
type DeezerBackend struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// Name returns the backend identifier.
func (b *DeezerBackend) Name() string { return DeezerName }

type deezerSearchResponse struct {
	Data []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Duration int    `json:"duration"`
		Rank     int    `json:"rank"`
		Artist   struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
		} `json:"album"`
	} `json:"data"`
}

type deezerTrack struct {
	BPM         float64 `json:"bpm"`
	ReleaseDate string  `json:"release_date"`
}

// SearchByBPM queries Deezer with its bpm_min/bpm_max search filters and
// verifies each hit's tempo.
func (b *DeezerBackend) SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	q := fmt.Sprintf("%s bpm_min:%q bpm_max:%q", req.Genre, strconv.Itoa(req.BPMMin), strconv.Itoa(req.BPMMax))
	params := url.Values{
		"q":     {q},
		"limit": {strconv.Itoa(min(limit*3, 100))},
	}

	var sr deezerSearchResponse
	if err := b.getJSON(ctx, deezerAPIBase+"/search?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("Deezer search: %w", err)
	}

	var out []types.TrackCandidate
	for _, hit := range sr.Data {
		if len(out) >= limit {
			break
		}
		if hit.ID == 0 {
			continue
		}
		var detail deezerTrack
		if err := b.getJSON(ctx, fmt.Sprintf("%s/track/%d", deezerAPIBase, hit.ID), &detail); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		bpm := int(detail.BPM)
		if detail.BPM <= 0 || bpm < req.BPMMin || bpm > req.BPMMax {
			continue
		}

		duration := hit.Duration
		if duration <= 0 {
			duration = 210
		}
		c := types.TrackCandidate{
			Name:        hit.Title,
			Artist:      hit.Artist.Name,
			BPM:         bpm,
			Energy:      rankEnergy(hit.Rank),
			DurationMs:  duration * 1000,
			Source:      DeezerName,
			SourceID:    strconv.FormatInt(hit.ID, 10),
			Album:       hit.Album.Title,
			VerifiedBPM: true,
		}
		if len(detail.ReleaseDate) >= 4 {
			c.Year, _ = strconv.Atoi(detail.ReleaseDate[:4])
		}
		out = append(out, c)
	}
	return out, nil
}

// rankEnergy maps Deezer's popularity rank onto an energy estimate in [0.3, 1].
func rankEnergy(rank int) float64 {
	return max(0.3, min(1.0, float64(rank)/1_000_000))
}

func (b *DeezerBackend) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client(), req, b.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (b *DeezerBackend) client() *http.Client {
	if b.Client == nil {
		return http.DefaultClient
	}
	return b.Client
}
