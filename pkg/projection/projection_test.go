package projection

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestMercatorProject(t *testing.T) {
	p := Projection{Kind: Mercator, Scale: 100, Translate: [2]float64{500, 300}}

	x, y, ok := p.Project(0, 0)
	if !ok || !near(x, 500) || !near(y, 300) {
		t.Errorf("Project(0,0) = %v,%v,%v, want 500,300,true", x, y, ok)
	}

	x, _, _ = p.Project(180, 0)
	if !near(x, 500+100*math.Pi) {
		t.Errorf("Project(180,0).x = %v, want %v", x, 500+100*math.Pi)
	}

	_, yNorth, _ := p.Project(0, 45)
	if yNorth >= 300 {
		t.Errorf("north should be up, got y=%v", yNorth)
	}

	_, yPole, _ := p.Project(0, 90)
	_, yClamp, _ := p.Project(0, maxMercatorLat)
	if !near(yPole, yClamp) {
		t.Errorf("pole y = %v, want clamped %v", yPole, yClamp)
	}
}

func TestMercatorRotation(t *testing.T) {
	p := Projection{Kind: Mercator, Scale: 1, Rotation: [2]float64{180, 0}}
	x, _, _ := p.Project(179, 60)
	if !near(x, -1*radians) {
		t.Errorf("Project(179).x = %v, want %v", x, -1*radians)
	}
	x, _, _ = p.Project(-170, 60)
	if !near(x, 10*radians) {
		t.Errorf("Project(-170).x = %v, want %v", x, 10*radians)
	}
}

func TestOrthographicProject(t *testing.T) {
	p := Projection{Kind: Orthographic, Scale: 200, Translate: [2]float64{400, 400}}

	tests := []struct {
		name         string
		lon, lat     float64
		wantX, wantY float64
		wantVisible  bool
	}{
		{"centre", 0, 0, 400, 400, true},
		{"behind east limb", 100, 0, 400 + 200*math.Sin(100*radians), 400, false},
		{"north 80", 0, 80, 400, 400 - 200*math.Sin(80*radians), true},
		{"east 30", 30, 0, 400 + 200*math.Sin(30*radians), 400, true},
		{"far side", 180, 0, 400, 400, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := p.Project(tt.lon, tt.lat)
			if ok != tt.wantVisible {
				t.Errorf("visible = %v, want %v", ok, tt.wantVisible)
			}
			if !near(x, tt.wantX) || !near(y, tt.wantY) {
				t.Errorf("Project = %v,%v, want %v,%v", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestOrthographicRotationCentre(t *testing.T) {
	p := Projection{Kind: Orthographic, Scale: 100, Rotation: [2]float64{-10, -20}, Translate: [2]float64{0, 0}}
	x, y, ok := p.Project(10, 20)
	if !ok || !near(x, 0) || !near(y, 0) {
		t.Errorf("Project(view centre) = %v,%v,%v, want 0,0,true", x, y, ok)
	}
}

func TestPathForMercator(t *testing.T) {
	p := Projection{Kind: Mercator, Scale: 1 / radians, Translate: [2]float64{0, 0}}
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 0}, {0, 0}}}
	got := p.PathFor(square)
	want := "M0,0L10,0L10,0L0,0Z"
	if got != want {
		t.Errorf("PathFor = %q, want %q", got, want)
	}

	if p.PathFor(orb.Point{1, 1}) != "" {
		t.Error("points should produce no path")
	}
	if got := p.PathFor(orb.LineString{{0, 0}, {10, 0}}); strings.HasSuffix(got, "Z") {
		t.Errorf("line string closed: %q", got)
	}
}

func TestPathForAntimeridianSplit(t *testing.T) {
	p := Projection{Kind: Mercator, Scale: 1}
	ring := orb.Polygon{{{170, 0}, {-170, 0}, {-170, 10}, {170, 10}, {170, 0}}}
	got := p.PathFor(ring)
	if n := strings.Count(got, "M"); n != 3 {
		t.Errorf("subpaths = %d, want 3 in %q", n, got)
	}
}

func TestPathForGlobe(t *testing.T) {
	p := Projection{Kind: Orthographic, Scale: 100, Translate: [2]float64{0, 0}}

	hidden := orb.Polygon{{{170, 0}, {175, 0}, {175, 5}, {170, 0}}}
	if got := p.PathFor(hidden); got != "" {
		t.Errorf("hidden polygon path = %q, want empty", got)
	}

	straddling := orb.Polygon{{{60, 0}, {120, 0}, {120, 10}, {60, 10}, {60, 0}}}
	got := p.PathFor(straddling)
	if !strings.HasPrefix(got, "M") || !strings.HasSuffix(got, "Z") {
		t.Fatalf("PathFor = %q, want closed path", got)
	}
	// Every vertex must lie within the horizon circle.
	for _, seg := range strings.FieldsFunc(got, func(r rune) bool { return r == 'M' || r == 'L' || r == 'Z' }) {
		parts := strings.Split(seg, ",")
		x, y := parse(t, parts[0]), parse(t, parts[1])
		if math.Hypot(x, y) > 100.01 {
			t.Errorf("vertex %v,%v outside horizon", x, y)
		}
	}
}

func parse(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestFitExtent(t *testing.T) {
	g := orb.Polygon{{{-60, -30}, {-35, -30}, {-35, 5}, {-60, 5}, {-60, -30}}}
	p := FitExtent(600, 400, 10, 0, g)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range g[0] {
		x, y, _ := p.Project(pt.Lon(), pt.Lat())
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if minX < 10-eps || maxX > 590+eps || minY < 10-eps || maxY > 390+eps {
		t.Errorf("bounds [%v,%v]x[%v,%v] exceed padded box", minX, maxX, minY, maxY)
	}
	// The limiting axis (height) touches both padded edges.
	if !near(minY, 10) || !near(maxY, 390) {
		t.Errorf("y range = [%v,%v], want [10,390]", minY, maxY)
	}
	if !near((minX+maxX)/2, 300) {
		t.Errorf("x centre = %v, want 300", (minX+maxX)/2)
	}
}

func TestFitExtentEmpty(t *testing.T) {
	p := FitExtent(600, 400, 10, 0, orb.Collection{})
	if p.Translate != [2]float64{300, 200} {
		t.Errorf("Translate = %v, want centre", p.Translate)
	}
}
