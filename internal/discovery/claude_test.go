// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wodmix/pkg/types"
)

// claudeStub serves a fixed model answer and records the last request.
func claudeStub(t *testing.T, answer string) (*ClaudeBackend, *claudeRequest, *http.Header) {
	t.Helper()
	var got claudeRequest
	var hdr http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": answer}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() { claudeAPIURL = old })

	return &ClaudeBackend{APIKey: "ak", Model: "test-model", Client: ts.Client()}, &got, &hdr
}

func TestClaudeSearchByBPM(t *testing.T) {
	answer := `Here you go:
[
 {"title":"Song A","artist":"Artist A","bpm":150,"energy":0.9,"duration_sec":200},
 {"title":"Song B","artist":"Artist B","bpm":120,"energy":0.5,"duration_sec":180},
 {"title":"Song C","artist":"Artist C","bpm":155}
]
Enjoy!`
	b, req, hdr := claudeStub(t, answer)

	got, err := b.SearchByBPM(context.Background(), SearchRequest{BPMMin: 145, BPMMax: 160, Genre: "punk", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "ak", hdr.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", hdr.Get("anthropic-version"))
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 1024, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Suggest 5 real songs")
	assert.Contains(t, req.Messages[0].Content, "145-160 BPM")
	assert.Contains(t, req.Messages[0].Content, "Genre preference: punk")

	require.Len(t, got, 2)
	assert.Equal(t, "Song A", got[0].Name)
	assert.Equal(t, 200000, got[0].DurationMs)
	assert.False(t, got[0].VerifiedBPM)
	assert.Equal(t, "claude", got[0].Source)

	assert.Equal(t, "Song C", got[1].Name)
	assert.InDelta(t, 0.7, got[1].Energy, 1e-9, "missing energy defaults to 0.7")
	assert.Equal(t, 210000, got[1].DurationMs, "missing duration defaults to 210 s")
}

func TestClaudeSearchNoJSON(t *testing.T) {
	b, _, _ := claudeStub(t, "I cannot help with that.")
	_, err := b.SearchByBPM(context.Background(), SearchRequest{BPMMin: 100, BPMMax: 120, Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON array")
}

func TestClaudeBatchSearch(t *testing.T) {
	answer := `{
 "1": [{"title":"Warm","artist":"W","bpm":110,"energy":0.5,"duration_sec":240},
       {"title":"Too Fast","artist":"F","bpm":150,"energy":0.9,"duration_sec":200}],
 "2": [{"title":"Hard","artist":"H","bpm":165,"energy":0.95,"duration_sec":190}],
 "9": [{"title":"Stray","artist":"S","bpm":165}],
 "x": []
}`
	b, req, _ := claudeStub(t, answer)

	got, err := b.BatchSearch(context.Background(), BatchRequest{
		Phases: []PhaseQuery{
			{Name: "Warm-up", BPMMin: 100, BPMMax: 120, DurationMin: 5, MinEnergy: 0.2},
			{Name: "Main WOD", BPMMin: 160, BPMMax: 175, DurationMin: 12, MinEnergy: 0.65},
		},
		Genre:            "rock",
		ExcludeArtists:   types.NewStringSet("Nickelback", "Creed"),
		BoostArtists:     types.NewStringSet("Foo Fighters"),
		TasteDescription: "90s alt rock",
	})
	require.NoError(t, err)

	assert.Equal(t, 4096, req.MaxTokens)
	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "The workout has 2 phases.")
	assert.Contains(t, prompt, "1. Warm-up (5 min): BPM 100-120, energy >= 0.2, suggest exactly 6 songs")
	assert.Contains(t, prompt, "2. Main WOD (12 min): BPM 160-175, energy >= 0.7, suggest exactly 8 songs")
	assert.Contains(t, prompt, "Do NOT suggest songs by: Creed, Nickelback")
	assert.Contains(t, prompt, "PREFER songs by these artists when possible: Foo Fighters")
	assert.Contains(t, prompt, "The user's musical taste: 90s alt rock")

	require.Len(t, got, 2)
	require.Len(t, got["Warm-up"], 1)
	assert.Equal(t, "Warm", got["Warm-up"][0].Name)
	require.Len(t, got["Main WOD"], 1)
	assert.Equal(t, "Hard", got["Main WOD"][0].Name)
}

func TestClaudeBatchPromptOmitsEmptyLines(t *testing.T) {
	prompt, err := renderBatchPrompt(BatchRequest{
		Phases: []PhaseQuery{{Name: "Only", BPMMin: 100, BPMMax: 120, DurationMin: 3, MinEnergy: 0.4}},
		Genre:  "rock",
	})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Do NOT suggest")
	assert.NotContains(t, prompt, "PREFER")
	assert.NotContains(t, prompt, "musical taste")
	assert.Contains(t, prompt, "suggest exactly 5 songs")
}

func TestClaudeAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad"}`))
	}))
	defer ts.Close()
	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "ak", Client: ts.Client()}
	_, err := b.BatchSearch(context.Background(), BatchRequest{Phases: []PhaseQuery{{Name: "P", BPMMin: 100, BPMMax: 120, DurationMin: 3}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Claude API returned 400")
}

func TestSongsNeeded(t *testing.T) {
	assert.Equal(t, 5, SongsNeeded(3))
	assert.Equal(t, 6, SongsNeeded(5))
	assert.Equal(t, 8, SongsNeeded(12))
	assert.Equal(t, 4, SongsNeeded(0))
}
