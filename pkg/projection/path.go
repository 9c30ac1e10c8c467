package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// PathFor returns SVG path data for g. Polygon rings are closed with Z;
// line strings are left open; points produce nothing. An empty string means
// nothing of g is visible.
//
// On the globe, vertices behind the horizon are pushed onto the horizon
// circle so filled rings stay closed, and rings with no visible vertex are
// dropped. On the flat map a ring that jumps across the antimeridian is
// split into separate subpaths.
func (p Projection) PathFor(g orb.Geometry) string {
	var b strings.Builder
	p.appendGeometry(&b, g)
	return b.String()
}

func (p Projection) appendGeometry(b *strings.Builder, g orb.Geometry) {
	switch g := g.(type) {
	case orb.Polygon:
		for _, r := range g {
			p.appendLine(b, r, true)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, r := range poly {
				p.appendLine(b, r, true)
			}
		}
	case orb.Ring:
		p.appendLine(b, g, true)
	case orb.LineString:
		p.appendLine(b, g, false)
	case orb.MultiLineString:
		for _, ls := range g {
			p.appendLine(b, ls, false)
		}
	case orb.Collection:
		for _, c := range g {
			p.appendGeometry(b, c)
		}
	}
}

func (p Projection) appendLine(b *strings.Builder, pts []orb.Point, closed bool) {
	if len(pts) == 0 {
		return
	}
	if p.Kind == Orthographic {
		p.appendGlobeLine(b, pts, closed)
		return
	}

	prevLon := 0.0
	for i, pt := range pts {
		lon := wrapDegrees(pt.Lon() + p.Rotation[0])
		x, y, _ := p.Project(pt.Lon(), pt.Lat())
		cmd := byte('L')
		if i == 0 || math.Abs(lon-prevLon) > 180 {
			cmd = 'M'
		}
		appendPoint(b, cmd, x, y)
		prevLon = lon
	}
	if closed {
		b.WriteByte('Z')
	}
}

func (p Projection) appendGlobeLine(b *strings.Builder, pts []orb.Point, closed bool) {
	type vertex struct{ x, y float64 }
	out := make([]vertex, 0, len(pts))
	visible := false
	for _, pt := range pts {
		rx, ry, front := p.orthoRaw(pt.Lon(), pt.Lat())
		if front {
			visible = true
		} else {
			rx, ry = toHorizon(rx, ry)
		}
		out = append(out, vertex{p.Translate[0] + p.Scale*rx, p.Translate[1] - p.Scale*ry})
	}
	if !visible {
		return
	}
	for i, v := range out {
		cmd := byte('L')
		if i == 0 {
			cmd = 'M'
		}
		appendPoint(b, cmd, v.x, v.y)
	}
	if closed {
		b.WriteByte('Z')
	}
}

// toHorizon scales (x, y) onto the unit circle.
func toHorizon(x, y float64) (float64, float64) {
	n := math.Hypot(x, y)
	if n == 0 {
		return 1, 0
	}
	return x / n, y / n
}

func appendPoint(b *strings.Builder, cmd byte, x, y float64) {
	b.WriteByte(cmd)
	b.WriteString(formatCoord(x))
	b.WriteByte(',')
	b.WriteString(formatCoord(y))
}

// formatCoord prints v with at most two decimals.
func formatCoord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
