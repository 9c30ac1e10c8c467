package detail

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	"github.com/matzehuels/energyatlas/pkg/observability"
	"github.com/matzehuels/energyatlas/pkg/projection"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

// Marker radii and styles.
const (
	MarkerRadius      = 5
	MarkerHoverRadius = 7
	OutlineFill       = "grey"
	CellStroke        = "#333"
	MarkerFill        = "black"
)

// Options configure the panel.
type Options struct {
	Width, Height float64
	Padding       float64
	ReferenceYear int
	// Antimeridian lists countries that are always rotated by 180°.
	Antimeridian []string
	// Overlay enables the temperature cells.
	Overlay bool
}

// OptionsFrom converts the detail section of the configuration.
func OptionsFrom(c config.Detail) Options {
	return Options{
		Width:         float64(c.Width),
		Height:        float64(c.Height),
		Padding:       c.Padding,
		ReferenceYear: c.ReferenceYear,
		Antimeridian:  c.Antimeridian,
		Overlay:       c.Overlay,
	}
}

// Scene is the built drill-down panel.
type Scene struct {
	Country       string                `json:"country"`
	Width         float64               `json:"width"`
	Height        float64               `json:"height"`
	Projection    projection.Projection `json:"projection"`
	Rotated       bool                  `json:"rotated,omitempty"`
	Outline       string                `json:"outline"`
	OutlineFill   string                `json:"outline_fill"`
	ClipID        string                `json:"clip_id"`
	ReferenceYear int                   `json:"reference_year"`
	Markers       []Marker              `json:"markers"`
	Cells         []Cell                `json:"cells,omitempty"`
}

// Marker is one city dot.
type Marker struct {
	City      string  `json:"city"`
	StationID string  `json:"station_id,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	R         float64 `json:"r"`
}

// Cell is the part of the panel closest to one city. Colored is false when
// the city's station has no observation in the reference year; the cell is
// then drawn unfilled.
type Cell struct {
	City    string  `json:"city"`
	Path    string  `json:"path"`
	Fill    string  `json:"fill,omitempty"`
	Stroke  string  `json:"stroke"`
	Colored bool    `json:"colored"`
	TempC   float64 `json:"temp_c,omitempty"`
}

// Build lays out the panel for country. cities are filtered to those whose
// Country equals country exactly. A city without weather data never fails
// the build.
func Build(country string, boundary orb.Geometry, cities []dataset.CityRecord, weather WeatherIndex, opts Options) *Scene {
	rotation := 0.0
	rotated := dataset.LonSpan(boundary) > 180 || slices.Contains(opts.Antimeridian, country)
	if rotated {
		rotation = 180
	}
	proj := projection.FitExtent(opts.Width, opts.Height, opts.Padding, rotation, boundary)

	sc := &Scene{
		Country:       country,
		Width:         opts.Width,
		Height:        opts.Height,
		Projection:    proj,
		Rotated:       rotated,
		Outline:       proj.PathFor(boundary),
		OutlineFill:   OutlineFill,
		ClipID:        ClipID(country),
		ReferenceYear: weather.Year(),
	}

	var seeds []point
	var seeded []dataset.CityRecord
	for _, c := range cities {
		if c.Country != country {
			continue
		}
		x, y, _ := proj.Project(c.Lon, c.Lat)
		sc.Markers = append(sc.Markers, Marker{City: c.Name, StationID: c.StationID, X: x, Y: y, R: MarkerRadius})
		seeds = append(seeds, point{x, y})
		seeded = append(seeded, c)
	}

	if !opts.Overlay {
		return sc
	}
	for i, poly := range voronoi(seeds, opts.Width, opts.Height) {
		if poly == nil {
			continue
		}
		cell := Cell{City: seeded[i].Name, Path: polygonPath(poly), Stroke: CellStroke}
		if t, ok := weather.Mean(seeded[i].StationID); ok {
			cell.Colored, cell.TempC = true, t
			cell.Fill = HSL(Hue(t))
		}
		sc.Cells = append(sc.Cells, cell)
	}
	return sc
}

// HSL formats a fill colour with the panel's fixed saturation and lightness.
func HSL(hue float64) string {
	return "hsl(" + strconv.FormatFloat(math.Round(hue*100)/100, 'f', -1, 64) + ", 70%, 50%)"
}

// ClipID returns an SVG-safe element id for the country's clip path.
func ClipID(country string) string {
	var b strings.Builder
	b.WriteString("clip-")
	for _, r := range strings.ToLower(country) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Marker returns the marker of city.
func (s *Scene) Marker(city string) (Marker, bool) {
	for _, m := range s.Markers {
		if m.City == city {
			return m, true
		}
	}
	return Marker{}, false
}

// Hover enlarges the marker of city and shows "City: <name>" next to the
// pointer.
func (s *Scene) Hover(city string, px, py float64) []scene.Instruction {
	if _, ok := s.Marker(city); !ok {
		return nil
	}
	return []scene.Instruction{
		{Op: scene.OpMarkerRadius, Target: city, Radius: MarkerHoverRadius},
		{Op: scene.OpShowTooltip, Target: city, Text: "City: " + city, X: px + 10, Y: py + 10},
	}
}

// Leave restores the marker of city and hides the tooltip.
func (s *Scene) Leave(city string) []scene.Instruction {
	return []scene.Instruction{
		{Op: scene.OpMarkerRadius, Target: city, Radius: MarkerRadius},
		{Op: scene.OpHideTooltip},
	}
}

// Renderer fetches boundaries and builds panels.
type Renderer struct {
	src  dataset.BoundarySource
	opts Options
}

// NewRenderer creates a Renderer.
func NewRenderer(src dataset.BoundarySource, opts Options) *Renderer {
	return &Renderer{src: src, opts: opts}
}

// RenderCountryDetail loads the boundary of country and builds its panel
// with the weather of the configured reference year.
func (r *Renderer) RenderCountryDetail(ctx context.Context, country string, cities []dataset.CityRecord, weather []dataset.WeatherObservation) (*Scene, error) {
	observability.Scene().OnRenderStart(ctx, "detail", "", r.opts.ReferenceYear)
	start := time.Now()

	boundary, err := r.src.Boundary(ctx, country)
	if err != nil {
		observability.Scene().OnRenderComplete(ctx, "detail", 0, time.Since(start), err)
		return nil, err
	}
	sc := Build(country, boundary, cities, NewWeatherIndex(weather, r.opts.ReferenceYear), r.opts)
	observability.Scene().OnRenderComplete(ctx, "detail", len(sc.Markers)+len(sc.Cells), time.Since(start), nil)
	return sc, nil
}

func polygonPath(poly []point) string {
	var b strings.Builder
	for i, p := range poly {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(coord(p.x))
		b.WriteByte(',')
		b.WriteString(coord(p.y))
	}
	b.WriteByte('Z')
	return b.String()
}

func coord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
