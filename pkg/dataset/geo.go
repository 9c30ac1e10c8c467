package dataset

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// nameKeys are the feature properties tried, in order, for a country name.
var nameKeys = []string{"name", "NAME", "ADMIN", "admin", "name_long"}

// ReadFeatures parses the world map. Features without a name or geometry
// are dropped; order is preserved.
func ReadFeatures(data []byte) ([]GeoFeature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatasetLoad, err, "world: parse geojson")
	}

	out := make([]GeoFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		name := featureName(f)
		if name == "" || f.Geometry == nil {
			continue
		}
		out = append(out, GeoFeature{Name: name, Boundary: f.Geometry})
	}
	return out, nil
}

func featureName(f *geojson.Feature) string {
	for _, k := range nameKeys {
		if s, ok := f.Properties[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ReadBoundary parses a per-country boundary file. It accepts a
// FeatureCollection, a single Feature, or a bare geometry; all polygons are
// merged into one MultiPolygon.
func ReadBoundary(data []byte) (orb.Geometry, error) {
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		geoms = append(geoms, f.Geometry)
	} else if g, err := geojson.UnmarshalGeometry(data); err == nil && g.Geometry() != nil {
		geoms = append(geoms, g.Geometry())
	}
	if len(geoms) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeDatasetLoad, "boundary: no geometry")
	}
	return merge(geoms), nil
}

func merge(geoms []orb.Geometry) orb.Geometry {
	if len(geoms) == 1 {
		return geoms[0]
	}
	var mp orb.MultiPolygon
	var rest orb.Collection
	for _, g := range geoms {
		switch g := g.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		default:
			rest = append(rest, g)
		}
	}
	if len(rest) == 0 {
		return mp
	}
	if len(mp) > 0 {
		rest = append(rest, mp)
	}
	return rest
}

// Polygons flattens g into its polygons.
func Polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return g
	case orb.Collection:
		var out []orb.Polygon
		for _, c := range g {
			out = append(out, Polygons(c)...)
		}
		return out
	}
	return nil
}

// LargestPolygons keeps the n largest polygons of g by Mercator area.
// n <= 0 keeps everything.
func LargestPolygons(g orb.Geometry, n int) orb.Geometry {
	polys := Polygons(g)
	if n <= 0 || len(polys) <= n {
		return g
	}

	type sized struct {
		poly orb.Polygon
		area float64
	}
	ranked := make([]sized, len(polys))
	for i, p := range polys {
		projected := project.Polygon(p.Clone(), project.WGS84.ToMercator)
		ranked[i] = sized{p, math.Abs(planar.Area(projected))}
	}
	slices.SortStableFunc(ranked, func(a, b sized) int { return cmp.Compare(b.area, a.area) })

	out := make(orb.MultiPolygon, n)
	for i := range out {
		out[i] = ranked[i].poly
	}
	return out
}

// SwapLonLat returns a copy of g with each point's coordinates exchanged,
// repairing files stored as lat/lon.
func SwapLonLat(g orb.Geometry) orb.Geometry {
	swap := func(p orb.Point) orb.Point { return orb.Point{p[1], p[0]} }
	ring := func(r orb.Ring) orb.Ring {
		out := make(orb.Ring, len(r))
		for i, p := range r {
			out[i] = swap(p)
		}
		return out
	}
	poly := func(p orb.Polygon) orb.Polygon {
		out := make(orb.Polygon, len(p))
		for i, r := range p {
			out[i] = ring(r)
		}
		return out
	}

	switch g := g.(type) {
	case orb.Point:
		return swap(g)
	case orb.LineString:
		return orb.LineString(ring(orb.Ring(g)))
	case orb.Polygon:
		return poly(g)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = poly(p)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, c := range g {
			out[i] = SwapLonLat(c)
		}
		return out
	}
	return g
}

// LonSpan returns the width of g's bounding box in degrees.
func LonSpan(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	b := g.Bound()
	return b.Max.Lon() - b.Min.Lon()
}
