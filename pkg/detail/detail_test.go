package detail

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

var brazil = orb.Polygon{{{-70, -30}, {-35, -30}, {-35, 5}, {-70, 5}, {-70, -30}}}

var cities = []dataset.CityRecord{
	{Country: "Brazil", Name: "Sao Paulo", Lon: -46.6, Lat: -23.5, StationID: "83781"},
	{Country: "Brazil", Name: "Manaus", Lon: -60.0, Lat: -3.1, StationID: "82332"},
	{Country: "Brazil", Name: "Recife", Lon: -34.9, Lat: -8.0, StationID: "none"},
	{Country: "Brazilia", Name: "Elsewhere", Lon: -50, Lat: -10, StationID: "1"},
}

var weather = []dataset.WeatherObservation{
	{StationID: "83781", Date: "2020-01-01", AvgTempC: 24},
	{StationID: "83781", Date: "2020-07-01", AvgTempC: 16},
	{StationID: "83781", Date: "2019-01-01", AvgTempC: 40},
	{StationID: "82332", Date: "2020-03-01", AvgTempC: 30},
}

func testOptions() Options {
	return OptionsFrom(config.Default().Detail)
}

func TestHue(t *testing.T) {
	tests := []struct {
		temp, want float64
	}{
		{30, 30},
		{0, 150},
		{-30, 270},
		{20, 70},
	}
	for _, tt := range tests {
		if got := Hue(tt.temp); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Hue(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
	if got := HSL(70); got != "hsl(70, 70%, 50%)" {
		t.Errorf("HSL(70) = %q", got)
	}
}

func TestWeatherIndex(t *testing.T) {
	w := NewWeatherIndex(weather, 2020)
	if v, ok := w.Mean("83781"); !ok || v != 20 {
		t.Errorf("Mean(83781) = %v, %v, want 20, true", v, ok)
	}
	if _, ok := w.Mean("none"); ok {
		t.Error("Mean(none) should be absent")
	}
}

func TestBuild(t *testing.T) {
	sc := Build("Brazil", brazil, cities, NewWeatherIndex(weather, 2020), testOptions())

	if len(sc.Markers) != 3 {
		t.Fatalf("markers = %d, want 3", len(sc.Markers))
	}
	for _, m := range sc.Markers {
		if m.R != MarkerRadius {
			t.Errorf("%s radius = %v, want %v", m.City, m.R, MarkerRadius)
		}
		if m.X < 10 || m.X > 590 || m.Y < 10 || m.Y > 390 {
			t.Errorf("%s at (%v, %v) outside the padded panel", m.City, m.X, m.Y)
		}
	}
	if sc.Rotated {
		t.Error("Brazil should not be rotated")
	}
	if sc.OutlineFill != "grey" || sc.Outline == "" {
		t.Errorf("outline = %q fill %q", sc.Outline, sc.OutlineFill)
	}

	if len(sc.Cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(sc.Cells))
	}
	byCity := map[string]Cell{}
	for _, c := range sc.Cells {
		byCity[c.City] = c
		if c.Stroke != "#333" {
			t.Errorf("%s stroke = %q", c.City, c.Stroke)
		}
	}
	if c := byCity["Sao Paulo"]; !c.Colored || c.Fill != "hsl(70, 70%, 50%)" {
		t.Errorf("Sao Paulo cell = %+v, want hue 70", c)
	}
	if c := byCity["Recife"]; c.Colored || c.Fill != "" {
		t.Errorf("Recife cell = %+v, want uncoloured", c)
	}
}

func TestBuildWithoutOverlay(t *testing.T) {
	opts := testOptions()
	opts.Overlay = false
	sc := Build("Brazil", brazil, cities, NewWeatherIndex(weather, 2020), opts)
	if len(sc.Cells) != 0 || len(sc.Markers) != 3 {
		t.Errorf("cells = %d markers = %d, want 0 and 3", len(sc.Cells), len(sc.Markers))
	}
}

func TestBuildAntimeridian(t *testing.T) {
	fiji := orb.MultiPolygon{
		{{{177, -19}, {180, -19}, {180, -16}, {177, -16}, {177, -19}}},
		{{{-180, -17}, {-179, -17}, {-179, -16}, {-180, -16}, {-180, -17}}},
	}
	opts := testOptions()
	opts.Antimeridian = nil

	sc := Build("Fiji", fiji, nil, WeatherIndex{}, opts)
	if !sc.Rotated || sc.Projection.Rotation[0] != 180 {
		t.Errorf("Rotated = %v rotation = %v, want 180", sc.Rotated, sc.Projection.Rotation)
	}

	sc = Build("Kiribati", brazil, nil, WeatherIndex{}, testOptions())
	if !sc.Rotated {
		t.Error("configured country should be rotated")
	}
}

func TestVoronoiPartitionsPanel(t *testing.T) {
	seeds := []point{{100, 100}, {300, 100}, {200, 300}, {100, 100}}
	cells := voronoi(seeds, 400, 400)
	if cells[3] != nil {
		t.Error("duplicate seed should have no cell")
	}
	var total float64
	for _, c := range cells {
		if c != nil {
			total += area(c)
		}
	}
	if math.Abs(total-400*400) > 1e-6 {
		t.Errorf("total area = %v, want %v", total, 400*400)
	}

	// The midpoint between the first two seeds lies on their shared edge.
	left := cells[0]
	maxX := 0.0
	for _, p := range left {
		maxX = math.Max(maxX, p.x)
	}
	if math.Abs(maxX-200) > 1e-9 {
		t.Errorf("left cell right edge = %v, want 200", maxX)
	}
}

func TestVoronoiSingleSeed(t *testing.T) {
	cells := voronoi([]point{{10, 10}}, 50, 20)
	if len(cells) != 1 || area(cells[0]) != 1000 {
		t.Errorf("single seed cell = %v", cells)
	}
}

func TestHoverLeave(t *testing.T) {
	sc := Build("Brazil", brazil, cities, WeatherIndex{}, testOptions())
	ins := sc.Hover("Manaus", 50, 60)
	if len(ins) != 2 || ins[0].Radius != 7 || ins[1].Text != "City: Manaus" || ins[1].X != 60 || ins[1].Y != 70 {
		t.Errorf("Hover = %+v", ins)
	}
	ins = sc.Leave("Manaus")
	if ins[0].Radius != 5 || ins[1].Op != scene.OpHideTooltip {
		t.Errorf("Leave = %+v", ins)
	}
	if sc.Hover("Nowhere", 0, 0) != nil {
		t.Error("Hover on unknown city should do nothing")
	}
}

func TestClipID(t *testing.T) {
	if got := ClipID("Côte d'Ivoire"); strings.ContainsAny(got, "ô' ") {
		t.Errorf("ClipID = %q contains unsafe characters", got)
	}
	if got := ClipID("New Zealand"); got != "clip-new_zealand" {
		t.Errorf("ClipID = %q, want clip-new_zealand", got)
	}
}

type fakeBoundaries map[string]orb.Geometry

func (f fakeBoundaries) Boundary(_ context.Context, country string) (orb.Geometry, error) {
	g, ok := f[country]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeBoundaryNotFound, "no boundary for %s", country)
	}
	return g, nil
}

func TestRenderer(t *testing.T) {
	r := NewRenderer(fakeBoundaries{"Brazil": brazil}, testOptions())

	sc, err := r.RenderCountryDetail(context.Background(), "Brazil", cities, weather)
	if err != nil {
		t.Fatalf("RenderCountryDetail: %v", err)
	}
	if sc.ReferenceYear != 2020 || len(sc.Markers) != 3 {
		t.Errorf("scene = year %d, %d markers", sc.ReferenceYear, len(sc.Markers))
	}

	_, err = r.RenderCountryDetail(context.Background(), "France", cities, weather)
	if !apperrors.Is(err, apperrors.ErrCodeBoundaryNotFound) {
		t.Errorf("error = %v, want %v", err, apperrors.ErrCodeBoundaryNotFound)
	}
}
