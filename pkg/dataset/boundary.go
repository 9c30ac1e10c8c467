package dataset

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/config"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// BoundaryKey maps a country display name to its boundary resource name:
// lowercased, spaces replaced by underscores, with a ".json" suffix.
//
//	BoundaryKey("United States of America") == "united_states_of_america.json"
func BoundaryKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + ".json"
}

// BoundarySource supplies the high-resolution outline of one country.
type BoundarySource interface {
	Boundary(ctx context.Context, country string) (orb.Geometry, error)
}

// Boundaries reads per-country boundary files from a Source and memoizes
// the parsed geometry.
type Boundaries struct {
	src    Source
	dir    string
	detail config.Detail

	mu   sync.Mutex
	memo map[string]orb.Geometry
}

// NewBoundaries returns a BoundarySource reading <dir>/<BoundaryKey> from src.
// Coordinate repair and polygon trimming follow detail.
func NewBoundaries(src Source, dir string, detail config.Detail) *Boundaries {
	return &Boundaries{src: src, dir: dir, detail: detail, memo: make(map[string]orb.Geometry)}
}

// Boundary returns the outline of country. A missing file yields an error
// with code BOUNDARY_NOT_FOUND.
func (b *Boundaries) Boundary(ctx context.Context, country string) (orb.Geometry, error) {
	if err := apperrors.ValidateCountryName(country); err != nil {
		return nil, err
	}

	b.mu.Lock()
	g, ok := b.memo[country]
	b.mu.Unlock()
	if ok {
		return g, nil
	}

	data, err := b.src.Open(ctx, path.Join(b.dir, BoundaryKey(country)))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrCodeBoundaryNotFound, err, "no boundary for %s", country)
	}
	if err != nil {
		return nil, err
	}

	g, err = ReadBoundary(data)
	if err != nil {
		return nil, err
	}
	if b.detail.IsSwapped(country) {
		g = SwapLonLat(g)
	}
	g = LargestPolygons(g, b.detail.MaxPolygons)

	b.mu.Lock()
	b.memo[country] = g
	b.mu.Unlock()
	return g, nil
}
