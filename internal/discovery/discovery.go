// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery finds candidate tracks for a tempo range. Each source
// (in-memory catalog, Deezer, GetSongBPM, Claude suggestions, hybrid)
// implements Backend; sources that can answer for a whole workout in one
// request also implement BatchBackend.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/wodmix/pkg/types"
)

// ErrUnknownBackend is returned by New for an unregistered backend name.
var ErrUnknownBackend = errors.New("unknown discovery backend")

// SearchRequest describes a single tempo-range search.
type SearchRequest struct {
	BPMMin int
	BPMMax int
	Genre  string
	Limit  int
}

// Backend searches one music source by BPM range. Implementations must
// only return candidates with BPMMin <= BPM <= BPMMax and at most Limit
// of them.
type Backend interface {
	Name() string
	SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error)
}

// PhaseQuery is one phase of a batch request.
type PhaseQuery struct {
	Name        string
	BPMMin      int
	BPMMax      int
	DurationMin int
	MinEnergy   float64
}

// BatchRequest asks for candidates for every phase of a workout at once.
type BatchRequest struct {
	Phases           []PhaseQuery
	Genre            string
	ExcludeArtists   types.StringSet
	BoostArtists     types.StringSet
	TasteDescription string
}

// BatchBackend is implemented by backends that can serve all phases in a
// single call. The result is keyed by phase name; phases may be missing.
type BatchBackend interface {
	Backend
	BatchSearch(ctx context.Context, req BatchRequest) (map[string][]types.TrackCandidate, error)
}

// SupportsBatch returns b as a BatchBackend when it implements one.
func SupportsBatch(b Backend) (BatchBackend, bool) {
	bb, ok := b.(BatchBackend)
	return bb, ok
}

// directOnly hides any batch capability of the wrapped backend.
type directOnly struct {
	Backend
}

// WithoutBatch returns a Backend exposing only SearchByBPM from b, so the
// composer always takes the per-phase search path.
func WithoutBatch(b Backend) Backend {
	return directOnly{Backend: b}
}

// Factory builds a backend from configuration.
type Factory func(cfg types.DiscoveryConfig) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a named factory. Registering a name twice replaces the
// earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds the backend registered under name.
func New(name string, cfg types.DiscoveryConfig) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Names())
	}
	b, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", name, err)
	}
	return b, nil
}

// Names lists the registered backend names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(MockName, func(types.DiscoveryConfig) (Backend, error) {
		return NewMockBackend(), nil
	})
	Register(MockName+"-direct", func(types.DiscoveryConfig) (Backend, error) {
		return WithoutBatch(NewMockBackend()), nil
	})
	Register(DeezerName, func(cfg types.DiscoveryConfig) (Backend, error) {
		return &DeezerBackend{Client: newHTTPClient(cfg.HTTPConfig), UserAgent: cfg.UserAgent, MaxRetries: cfg.MaxRetries}, nil
	})
	Register(GetSongBPMName, func(cfg types.DiscoveryConfig) (Backend, error) {
		if cfg.GetSongBPMAPIKey == "" {
			return nil, errors.New("GetSongBPM API key is required")
		}
		return &GetSongBPMBackend{Client: newHTTPClient(cfg.HTTPConfig), APIKey: cfg.GetSongBPMAPIKey, MaxRetries: cfg.MaxRetries}, nil
	})
	Register(ClaudeName, func(cfg types.DiscoveryConfig) (Backend, error) {
		return newClaude(cfg)
	})
	Register(HybridName, func(cfg types.DiscoveryConfig) (Backend, error) {
		claude, err := newClaude(cfg)
		if err != nil {
			return nil, err
		}
		return &HybridBackend{
			Primary:   &DeezerBackend{Client: newHTTPClient(cfg.HTTPConfig), UserAgent: cfg.UserAgent, MaxRetries: cfg.MaxRetries},
			Secondary: claude,
			Threshold: cfg.HybridThreshold,
		}, nil
	})
}

func newClaude(cfg types.DiscoveryConfig) (*ClaudeBackend, error) {
	if cfg.Claude.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	return &ClaudeBackend{
		APIKey:     cfg.Claude.APIKey,
		Model:      cfg.Claude.Model,
		MaxTokens:  cfg.Claude.MaxTokens,
		MaxRetries: cfg.MaxRetries,
		Client:     newHTTPClient(cfg.HTTPConfig),
	}, nil
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// inRange keeps candidates whose BPM lies in [min, max], preserving order.
func inRange(cands []types.TrackCandidate, min, max int) []types.TrackCandidate {
	out := cands[:0:0]
	for _, c := range cands {
		if c.BPM >= min && c.BPM <= max {
			out = append(out, c)
		}
	}
	return out
}
