// Package projection maps geographic coordinates to screen space for the
// flat map (Mercator) and the globe (Orthographic).
//
// A [Projection] is an immutable value: Project and PathFor never change
// it. Gesture handling lives in [Manager], which owns one state slot per
// kind and exposes the mutators the view layer drives.
package projection

import (
	"fmt"
	"math"
)

// Kind selects the projection formula.
type Kind int

const (
	Mercator Kind = iota
	Orthographic
)

func (k Kind) String() string {
	switch k {
	case Mercator:
		return "mercator"
	case Orthographic:
		return "orthographic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// maxMercatorLat is the latitude at which Mercator becomes square.
const maxMercatorLat = 85.0511287798

const radians = math.Pi / 180

// Projection is a projection kind with its scale, rotation and translate.
// Rotation is (lambda, phi) in degrees; Mercator ignores phi.
type Projection struct {
	Kind      Kind       `json:"kind"`
	Scale     float64    `json:"scale"`
	Rotation  [2]float64 `json:"rotation"`
	Translate [2]float64 `json:"translate"`
}

// Project maps (lon, lat) in degrees to screen coordinates. visible is
// false for points on the far side of the globe; Mercator points are always
// visible.
func (p Projection) Project(lon, lat float64) (x, y float64, visible bool) {
	switch p.Kind {
	case Orthographic:
		rx, ry, front := p.orthoRaw(lon, lat)
		return p.Translate[0] + p.Scale*rx, p.Translate[1] - p.Scale*ry, front
	default:
		rx, ry := p.mercatorRaw(lon, lat)
		return p.Translate[0] + p.Scale*rx, p.Translate[1] - p.Scale*ry, true
	}
}

// mercatorRaw returns unit-scale Mercator coordinates with y pointing north.
func (p Projection) mercatorRaw(lon, lat float64) (x, y float64) {
	lambda := wrapDegrees(lon+p.Rotation[0]) * radians
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	phi := lat * radians
	return lambda, math.Log(math.Tan(math.Pi/4 + phi/2))
}

// orthoRaw rotates (lon, lat) so the view centre is (-rotation) and returns
// unit-scale orthographic coordinates with y pointing north.
func (p Projection) orthoRaw(lon, lat float64) (x, y float64, front bool) {
	lambda := (lon + p.Rotation[0]) * radians
	phi := lat * radians
	dphi := p.Rotation[1] * radians

	cosPhi := math.Cos(phi)
	cx := math.Cos(lambda) * cosPhi
	cy := math.Sin(lambda) * cosPhi
	cz := math.Sin(phi)

	// Rotate about the y axis by dphi.
	depth := cx*math.Cos(dphi) - cz*math.Sin(dphi)
	north := cz*math.Cos(dphi) + cx*math.Sin(dphi)
	return cy, north, depth > 0
}

// Disc is a circle in screen space.
type Disc struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

// Horizon returns the outline of the visible hemisphere. Only meaningful
// for Orthographic.
func (p Projection) Horizon() Disc {
	return Disc{CX: p.Translate[0], CY: p.Translate[1], R: p.Scale}
}

func wrapDegrees(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
