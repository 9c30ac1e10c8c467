package projection

import (
	"math"

	"github.com/paulmach/orb"
)

// FitExtent returns a Mercator projection with the given longitude rotation
// that fits g inside a width x height box inset by padding on every side,
// centred on both axes.
func FitExtent(width, height, padding float64, rotation float64, g orb.Geometry) Projection {
	p := Projection{Kind: Mercator, Scale: 1, Rotation: [2]float64{rotation, 0}}

	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	eachPoint(g, func(pt orb.Point) {
		x, y := p.mercatorRaw(pt.Lon(), pt.Lat())
		y = -y
		x0, x1 = math.Min(x0, x), math.Max(x1, x)
		y0, y1 = math.Min(y0, y), math.Max(y1, y)
	})
	if math.IsInf(x0, 1) {
		p.Scale = 0
		p.Translate = [2]float64{width / 2, height / 2}
		return p
	}

	w, h := width-2*padding, height-2*padding
	dx, dy := x1-x0, y1-y0
	k := math.Inf(1)
	if dx > 0 {
		k = w / dx
	}
	if dy > 0 {
		k = math.Min(k, h/dy)
	}
	if math.IsInf(k, 1) {
		k = 1
	}

	p.Scale = k
	p.Translate = [2]float64{
		padding + (w-k*(x0+x1))/2,
		padding + (h-k*(y0+y1))/2,
	}
	return p
}

func eachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			eachPoint(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			eachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			eachPoint(poly, fn)
		}
	case orb.Collection:
		for _, c := range g {
			eachPoint(c, fn)
		}
	}
}
