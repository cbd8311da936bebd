// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"os"
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

// stubBackend returns fixed results or a fixed error and counts calls.
type stubBackend struct {
	name    string
	results []types.TrackCandidate
	err     error
	calls   int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) SearchByBPM(_ context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := inRange(s.results, req.BPMMin, req.BPMMax)
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func cand(name, artist string, bpm int) types.TrackCandidate {
	return types.TrackCandidate{Name: name, Artist: artist, BPM: bpm, Energy: 0.8, DurationMs: 200000, Source: "stub"}
}

func TestNames(t *testing.T) {
	names := Names()
	for _, want := range []string{"claude", "deezer", "getsongbpm", "hybrid", "mock", "mock-direct"} {
		assert.Contains(t, names, want)
	}
	assert.IsNonDecreasing(t, names)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		cfg       types.DiscoveryConfig
		wantBatch bool
		wantErr   string
	}{
		{name: "mock supports batch", backend: "mock", wantBatch: true},
		{name: "mock-direct hides batch", backend: "mock-direct"},
		{name: "deezer needs no key", backend: "deezer"},
		{name: "claude requires key", backend: "claude", wantErr: "Anthropic API key is required"},
		{name: "claude with key", backend: "claude", cfg: types.DiscoveryConfig{Claude: types.AIConfig{APIKey: "k"}}, wantBatch: true},
		{name: "getsongbpm requires key", backend: "getsongbpm", wantErr: "GetSongBPM API key is required"},
		{name: "hybrid with key", backend: "hybrid", cfg: types.DiscoveryConfig{Claude: types.AIConfig{APIKey: "k"}}, wantBatch: true},
		{name: "unknown", backend: "spotify", wantErr: "unknown discovery backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.backend, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, ok := SupportsBatch(b)
			assert.Equal(t, tt.wantBatch, ok)
		})
	}
}

func TestNewUnknownIsSentinel(t *testing.T) {
	_, err := New("nope", types.DiscoveryConfig{})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestWithoutBatchKeepsName(t *testing.T) {
	b := WithoutBatch(NewMockBackend())
	assert.Equal(t, "mock", b.Name())

	got, err := b.SearchByBPM(context.Background(), SearchRequest{BPMMin: 160, BPMMax: 175, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
