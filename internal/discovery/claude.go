// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"text/template"

	"github.com/pdiddy/wodmix/internal/httputil"
	"github.com/pdiddy/wodmix/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	defaultClaudeModel     = "claude-sonnet-4-5-20250929"
	defaultBatchMaxTokens  = 4096
	singleSearchMaxTokens  = 1024
	defaultSuggestedEnergy = 0.7
	defaultSuggestedSec    = 210
)

var suggestionPromptTmpl = template.Must(template.New("suggest").Parse(`Suggest {{.Limit}} real songs that would work well for a CrossFit workout at {{.BPMMin}}-{{.BPMMax}} BPM.

Genre preference: {{.Genre}}

For each song, provide:
- Song title (must be a REAL song that exists)
- Artist name
- Approximate BPM (must be between {{.BPMMin}} and {{.BPMMax}})
- Energy level (0.0-1.0, where 1.0 is maximum energy)
- Approximate duration in seconds

Return ONLY a JSON array with this format:
[
  {"title": "Song Name", "artist": "Artist Name", "bpm": 150, "energy": 0.85, "duration_sec": 210}
]

Only suggest songs you are confident actually exist.
`))

var promptFuncs = template.FuncMap{
	"inc":         func(i int) int { return i + 1 },
	"songsNeeded": SongsNeeded,
}

var batchPromptTmpl = template.Must(template.New("batch").Funcs(promptFuncs).Parse(`Suggest real songs for a CrossFit workout playlist. The workout has {{len .Phases}} phases.

Genre preference: {{.Genre}}

RULES:
- Only suggest REAL songs that actually exist.
- Each artist may appear AT MOST ONCE across ALL phases.
- BPM must be within each phase's specified range.
- Energy level MUST be at least the minimum shown for each phase.
- You MUST suggest the exact number of songs requested for each phase.
{{- if .Exclude}}
- Do NOT suggest songs by: {{.Exclude}}
{{- end}}
{{- if .Boost}}
- PREFER songs by these artists when possible: {{.Boost}}
{{- end}}
{{- if .Taste}}
- The user's musical taste: {{.Taste}}
{{- end}}

PHASES:
{{range $i, $p := .Phases}}{{inc $i}}. {{$p.Name}} ({{$p.DurationMin}} min): BPM {{$p.BPMMin}}-{{$p.BPMMax}}, energy >= {{printf "%.1f" $p.MinEnergy}}, suggest exactly {{songsNeeded $p.DurationMin}} songs
{{end}}
Return ONLY a JSON object with phase numbers as keys (matching the numbers above):
{
  "1": [{"title": "Song Name", "artist": "Artist Name", "bpm": 150, "energy": 0.85, "duration_sec": 210}],
  "2": [...]
}
`))

// SongsNeeded is how many suggestions a batch request asks for per phase:
// one per three minutes plus a margin of four.
func SongsNeeded(durationMin int) int {
	return int(math.Ceil(float64(durationMin)/3)) + 4
}

// ClaudeBackend asks the Claude API to suggest songs. Suggested tempos are
// not measured, so every candidate has VerifiedBPM=false.
type ClaudeBackend struct {
	APIKey     string
	Model      string
	MaxTokens  int
	MaxRetries int
	Client     *http.Client
}

// Name returns the backend identifier.
func (c *ClaudeBackend) Name() string { return ClaudeName }

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// suggestedSong is one element of the model's JSON answer.
type suggestedSong struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	BPM         float64  `json:"bpm"`
	Energy      *float64 `json:"energy"`
	DurationSec *float64 `json:"duration_sec"`
}

func (s suggestedSong) candidate() types.TrackCandidate {
	c := types.TrackCandidate{
		Name:       s.Title,
		Artist:     s.Artist,
		BPM:        int(s.BPM),
		Energy:     defaultSuggestedEnergy,
		DurationMs: defaultSuggestedSec * 1000,
		Source:     ClaudeName,
	}
	if c.Name == "" {
		c.Name = "Unknown"
	}
	if c.Artist == "" {
		c.Artist = "Unknown"
	}
	if s.Energy != nil {
		c.Energy = *s.Energy
	}
	if s.DurationSec != nil && *s.DurationSec > 0 {
		c.DurationMs = int(*s.DurationSec) * 1000
	}
	return c
}

// SearchByBPM asks for req.Limit songs in the range and keeps those whose
// suggested tempo is inside it.
func (c *ClaudeBackend) SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	var buf bytes.Buffer
	err := suggestionPromptTmpl.Execute(&buf, struct {
		Limit, BPMMin, BPMMax int
		Genre                 string
	}{limit, req.BPMMin, req.BPMMax, req.Genre})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := c.complete(ctx, buf.String(), singleSearchMaxTokens)
	if err != nil {
		return nil, err
	}

	raw, ok := enclosed(text, '[', ']')
	if !ok {
		return nil, fmt.Errorf("Claude response contained no JSON array")
	}
	var songs []suggestedSong
	if err := json.Unmarshal([]byte(raw), &songs); err != nil {
		return nil, fmt.Errorf("parsing suggestions: %w", err)
	}
	if len(songs) > limit {
		songs = songs[:limit]
	}

	var out []types.TrackCandidate
	for _, s := range songs {
		cand := s.candidate()
		if cand.BPM >= req.BPMMin && cand.BPM <= req.BPMMax {
			out = append(out, cand)
		}
	}
	return out, nil
}

// BatchSearch asks for every phase in one prompt. The answer is keyed by
// 1-based phase number and mapped back to phase names; songs outside their
// phase's range are dropped.
func (c *ClaudeBackend) BatchSearch(ctx context.Context, req BatchRequest) (map[string][]types.TrackCandidate, error) {
	prompt, err := renderBatchPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultBatchMaxTokens
	}
	text, err := c.complete(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}

	raw, ok := enclosed(text, '{', '}')
	if !ok {
		return nil, fmt.Errorf("Claude batch response contained no JSON object")
	}
	var byKey map[string][]suggestedSong
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, fmt.Errorf("parsing batch suggestions: %w", err)
	}

	out := make(map[string][]types.TrackCandidate, len(byKey))
	for key, songs := range byKey {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 1 || idx > len(req.Phases) {
			continue
		}
		p := req.Phases[idx-1]
		var cands []types.TrackCandidate
		for _, s := range songs {
			cand := s.candidate()
			if cand.BPM >= p.BPMMin && cand.BPM <= p.BPMMax {
				cands = append(cands, cand)
			}
		}
		out[p.Name] = cands
	}
	return out, nil
}

func renderBatchPrompt(req BatchRequest) (string, error) {
	var buf bytes.Buffer
	err := batchPromptTmpl.Execute(&buf, struct {
		Phases                []PhaseQuery
		Genre                 string
		Exclude, Boost, Taste string
	}{
		Phases:  req.Phases,
		Genre:   req.Genre,
		Exclude: strings.Join(req.ExcludeArtists.Sorted(), ", "),
		Boost:   strings.Join(req.BoostArtists.Sorted(), ", "),
		Taste:   req.TasteDescription,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// complete sends a single-turn prompt and returns the first text block.
func (c *ClaudeBackend) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultClaudeModel
	}
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}
	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// enclosed returns the substring from the first open to the last close
// delimiter, which strips any prose the model wraps around its JSON.
func enclosed(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
