// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"math"
	"sort"

	"github.com/pdiddy/wodmix/pkg/types"
)

// Backend names.
const (
	MockName       = "mock"
	DeezerName     = "deezer"
	GetSongBPMName = "getsongbpm"
	ClaudeName     = "claude"
	HybridName     = "hybrid"
)

// mockBatchLimit is the per-phase search limit of MockBackend.BatchSearch.
const mockBatchLimit = 20

// MockBackend serves candidates from an in-memory rock catalog. It needs no
// network access and is the default for offline runs and tests.
type MockBackend struct {
	Catalog []types.TrackCandidate
}

// NewMockBackend returns a MockBackend over the built-in catalog.
func NewMockBackend() *MockBackend {
	cat := make([]types.TrackCandidate, len(rockCatalog))
	copy(cat, rockCatalog)
	return &MockBackend{Catalog: cat}
}

// Name returns the backend identifier.
func (m *MockBackend) Name() string { return MockName }

// SearchByBPM filters the catalog to the range, orders by distance from the
// range midpoint (catalog order breaks ties) and truncates to req.Limit.
func (m *MockBackend) SearchByBPM(ctx context.Context, req SearchRequest) ([]types.TrackCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches := inRange(m.Catalog, req.BPMMin, req.BPMMax)
	mid := float64(req.BPMMin+req.BPMMax) / 2
	sort.SliceStable(matches, func(i, j int) bool {
		return math.Abs(float64(matches[i].BPM)-mid) < math.Abs(float64(matches[j].BPM)-mid)
	})
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	return matches, nil
}

// BatchSearch runs one catalog search per phase and drops excluded artists.
func (m *MockBackend) BatchSearch(ctx context.Context, req BatchRequest) (map[string][]types.TrackCandidate, error) {
	out := make(map[string][]types.TrackCandidate, len(req.Phases))
	for _, p := range req.Phases {
		cands, err := m.SearchByBPM(ctx, SearchRequest{BPMMin: p.BPMMin, BPMMax: p.BPMMax, Genre: req.Genre, Limit: mockBatchLimit})
		if err != nil {
			return nil, err
		}
		kept := cands[:0]
		for _, c := range cands {
			if !req.ExcludeArtists.Has(c.Artist) {
				kept = append(kept, c)
			}
		}
		out[p.Name] = kept
	}
	return out, nil
}

func mockTrack(id, name, artist string, bpm int, energy float64, durationMs int) types.TrackCandidate {
	return types.TrackCandidate{
		Name:        name,
		Artist:      artist,
		BPM:         bpm,
		Energy:      energy,
		DurationMs:  durationMs,
		Source:      MockName,
		SourceID:    id,
		VerifiedBPM: true,
	}
}

// rockCatalog is grouped by the intensity band each block was picked for.
var rockCatalog = []types.TrackCandidate{
	// warm-up
	mockTrack("1", "Use Somebody", "Kings of Leon", 103, 0.52, 230000),
	mockTrack("2", "Wonderwall", "Oasis", 107, 0.48, 258000),
	mockTrack("3", "Fake Plastic Trees", "Radiohead", 110, 0.45, 290000),
	mockTrack("4", "Yellow", "Coldplay", 112, 0.55, 266000),
	mockTrack("5", "Soul Shine", "The Allman Brothers Band", 115, 0.58, 422000),

	// low
	mockTrack("6", "Are You Gonna Be My Girl", "Jet", 122, 0.65, 214000),
	mockTrack("7", "Float On", "Modest Mouse", 125, 0.62, 208000),
	mockTrack("8", "Seven Nation Army", "The White Stripes", 124, 0.68, 231000),
	mockTrack("9", "Learn to Fly", "Foo Fighters", 127, 0.70, 238000),
	mockTrack("10", "Kryptonite", "3 Doors Down", 126, 0.67, 233000),

	// moderate
	mockTrack("11", "Everlong", "Foo Fighters", 133, 0.75, 250000),
	mockTrack("12", "Plush", "Stone Temple Pilots", 135, 0.72, 310000),
	mockTrack("13", "Interstate Love Song", "Stone Temple Pilots", 138, 0.77, 194000),
	mockTrack("14", "Come As You Are", "Nirvana", 137, 0.74, 219000),
	mockTrack("15", "Black Hole Sun", "Soundgarden", 140, 0.70, 318000),
	mockTrack("16", "Cherub Rock", "The Smashing Pumpkins", 142, 0.80, 298000),
	mockTrack("17", "The Middle", "Jimmy Eat World", 144, 0.82, 166000),

	// high
	mockTrack("18", "Mr. Brightside", "The Killers", 148, 0.89, 223000),
	mockTrack("19", "Times Like These", "Foo Fighters", 147, 0.85, 266000),
	mockTrack("20", "In Bloom", "Nirvana", 150, 0.87, 255000),
	mockTrack("21", "Smells Like Teen Spirit", "Nirvana", 152, 0.91, 301000),
	mockTrack("22", "Song 2", "Blur", 155, 0.93, 122000),
	mockTrack("23", "All My Life", "Foo Fighters", 153, 0.90, 263000),
	mockTrack("24", "Sabotage", "Beastie Boys", 158, 0.95, 179000),
	mockTrack("25", "Bulls On Parade", "Rage Against The Machine", 157, 0.94, 229000),

	// very high
	mockTrack("26", "Killing in the Name", "Rage Against The Machine", 162, 0.97, 314000),
	mockTrack("27", "Blitzkrieg Bop", "Ramones", 165, 0.96, 133000),
	mockTrack("28", "Rock and Roll All Nite", "Kiss", 168, 0.95, 169000),
	mockTrack("29", "Basket Case", "Green Day", 167, 0.93, 183000),
	mockTrack("30", "Ace of Spades", "Motörhead", 170, 0.98, 169000),
	mockTrack("31", "Search and Destroy", "Iggy & The Stooges", 172, 0.97, 212000),
	mockTrack("32", "I Wanna Be Sedated", "Ramones", 174, 0.96, 150000),

	// cooldown
	mockTrack("33", "Where Is My Mind?", "Pixies", 85, 0.42, 232000),
	mockTrack("34", "Creep", "Radiohead", 92, 0.44, 238000),
	mockTrack("35", "Hurt", "Johnny Cash", 88, 0.38, 217000),
	mockTrack("36", "Under the Bridge", "Red Hot Chili Peppers", 90, 0.40, 264000),
	mockTrack("37", "The Man Who Sold the World", "Nirvana", 95, 0.43, 261000),

	// fillers across bands
	mockTrack("38", "Alive", "Pearl Jam", 145, 0.84, 341000),
	mockTrack("39", "My Hero", "Foo Fighters", 140, 0.81, 260000),
	mockTrack("40", "Even Flow", "Pearl Jam", 142, 0.82, 294000),
	mockTrack("41", "Break Stuff", "Limp Bizkit", 155, 0.92, 166000),
	mockTrack("42", "Walk", "Pantera", 120, 0.88, 317000),
	mockTrack("43", "Chop Suey!", "System Of A Down", 128, 0.91, 210000),
	mockTrack("44", "One", "Metallica", 120, 0.79, 446000),
	mockTrack("45", "Black", "Pearl Jam", 105, 0.51, 342000),
	mockTrack("46", "Today", "The Smashing Pumpkins", 136, 0.76, 213000),
	mockTrack("47", "No Rain", "Blind Melon", 118, 0.60, 217000),
	mockTrack("48", "Buddy Holly", "Weezer", 131, 0.78, 159000),
	mockTrack("49", "1979", "The Smashing Pumpkins", 132, 0.64, 260000),
	mockTrack("50", "Sex Type Thing", "Stone Temple Pilots", 148, 0.86, 222000),
}
