// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/wodmix/internal/httputil"
	"github.com/pdiddy/wodmix/pkg/types"
)

// getSongBPMAPIBase is the GetSongBPM API root. Package-level var for test substitution.
var getSongBPMAPIBase = "https://api.getsongbpm.com"

// getSongBPMDefaultDurationMs is used because the tempo endpoint has no durations.
const getSongBPMDefaultDurationMs = 210000

// GetSongBPMBackend searches the GetSongBPM tempo index at the range midpoint
// and keeps songs inside the range.
type GetSongBPMBackend struct {
	Client     *http.Client
	APIKey     string
	MaxRetries int
}

// Name returns the backend identifier.
func (b *GetSongBPMBackend) Name() string { return GetSongBPMName }

// looseInt decodes a JSON number or numeric string. GetSongBPM sends most
// numbers as strings.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseInt(f)
	return nil
}

type getSongBPMResponse struct {
	Tempo []struct {
		SongID    string   `json:"song_id"`
		SongTitle string   `json:"song_title"`
		SongTempo looseInt `json:"song_tempo"`
		Artist    struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
			Year  string `json:"year"`
		} `json:"album"`
	} `json:"tempo"`
}

// SearchByBPM calls /tempo/ with the integer midpoint of the range.
func (b *GetSongBPMBackend) SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"api_key": {b.APIKey},
		"bpm":     {strconv.Itoa((req.BPMMin + req.BPMMax) / 2)},
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, getSongBPMAPIBase+"/tempo/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, hreq, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GetSongBPM API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GetSongBPM API returned HTTP %d", resp.StatusCode)
	}

	var gr getSongBPMResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing GetSongBPM response: %w", err)
	}

	var out []types.TrackCandidate
	for _, s := range gr.Tempo {
		bpm := int(s.SongTempo)
		if bpm < req.BPMMin || bpm > req.BPMMax {
			continue
		}
		c := types.TrackCandidate{
			Name:        s.SongTitle,
			Artist:      s.Artist.Name,
			BPM:         bpm,
			Energy:      estimateEnergy(bpm),
			DurationMs:  getSongBPMDefaultDurationMs,
			Source:      GetSongBPMName,
			SourceID:    s.SongID,
			Album:       s.Album.Title,
			VerifiedBPM: true,
		}
		if len(s.Album.Year) >= 4 {
			c.Year, _ = strconv.Atoi(s.Album.Year[:4])
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// estimateEnergy is a coarse tempo-to-energy heuristic for sources that
// report no energy.
func estimateEnergy(bpm int) float64 {
	switch {
	case bpm < 100:
		return 0.3
	case bpm < 120:
		return 0.5
	case bpm < 140:
		return 0.65
	case bpm < 160:
		return 0.8
	default:
		return 0.9
	}
}
