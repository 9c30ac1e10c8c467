package app

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/playback"
	"github.com/matzehuels/energyatlas/pkg/scene"
	"github.com/matzehuels/energyatlas/pkg/view"
)

func square(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}
}

func testBundle() *dataset.Bundle {
	b := &dataset.Bundle{
		Features: []dataset.GeoFeature{
			{Name: "Brazil", Boundary: square(-60, -20, 10)},
			{Name: "Peru", Boundary: square(-78, -15, 5)},
			{Name: "Chile", Boundary: square(-72, -40, 5)},
		},
		Meta: []dataset.CountryMeta{
			{Country: "Brazil", Continent: "Americas", Region: "South America"},
			{Country: "Peru", Continent: "Americas", Region: "South America"},
			{Country: "Chile", Continent: "Americas", Region: "South America"},
		},
		Cities: []dataset.CityRecord{
			{Country: "Peru", Name: "Lima", Lon: -77, Lat: -12, StationID: "LIM"},
			{Country: "Peru", Name: "Cusco", Lon: -74, Lat: -13.5, StationID: "CUZ"},
		},
		Weather: []dataset.WeatherObservation{
			{StationID: "LIM", Date: "2020-01-01", AvgTempC: 20},
		},
	}
	for y := 2000; y <= 2020; y++ {
		b.Metrics = append(b.Metrics,
			dataset.MetricRecord{Country: "Brazil", Year: y, Metrics: map[string]float64{
				"population": float64(170e6 + (y-2000)*1e6), "gdp": float64(y - 1999),
			}},
			dataset.MetricRecord{Country: "Peru", Year: y, Metrics: map[string]float64{
				"population": float64(26e6 + (y-2000)*1e5),
			}},
		)
	}
	return b
}

// stubBoundaries serves square boundaries. Countries listed in block wait
// for their context to be cancelled.
type stubBoundaries struct {
	features []dataset.GeoFeature
	block    map[string]bool
}

func (s stubBoundaries) Boundary(ctx context.Context, country string) (orb.Geometry, error) {
	if s.block[country] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	for _, f := range s.features {
		if f.Name == country && country != "Brazil" {
			return f.Boundary, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeBoundaryNotFound, "no boundary for %s", country)
}

func newTestApp(t *testing.T, block ...string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Playback.Interval = time.Hour
	b := testBundle()
	src := stubBoundaries{features: b.Features, block: map[string]bool{}}
	for _, c := range block {
		src.block[c] = true
	}
	a, err := New(context.Background(), Options{Config: cfg, Bundle: b, Boundaries: src})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func detailEvents(a *App) <-chan Event {
	ch := make(chan Event, 8)
	a.Subscribe(func(ev Event) {
		if ev.Kind == EventDetail {
			ch <- ev
		}
	})
	return ch
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNewDefaults(t *testing.T) {
	a := newTestApp(t)
	st := a.State()
	if st.Year != 2000 || st.Metric != "population" || st.Mode != view.FlatMap {
		t.Errorf("State() = %+v, want 2000/population/flat", st)
	}
	if len(a.Frame().Shapes) != 3 {
		t.Errorf("initial frame has %d shapes, want 3", len(a.Frame().Shapes))
	}
}

func TestNewRequiresBundle(t *testing.T) {
	if _, err := New(context.Background(), Options{Config: config.Default()}); err == nil {
		t.Error("New() without bundle = nil error")
	}
}

func TestSetYearClamps(t *testing.T) {
	a := newTestApp(t)

	out, err := a.SetYear(1990)
	if err != nil || out.Year != 2000 {
		t.Errorf("SetYear(1990) = %d, %v; want 2000", out.Year, err)
	}
	out, _ = a.SetYear(2030)
	if out.Year != 2020 {
		t.Errorf("SetYear(2030) = %d, want 2020", out.Year)
	}

}

func TestSetMetricKeepsYear(t *testing.T) {
	a := newTestApp(t)
	a.SetYear(2005)

	out, err := a.SetMetric("gdp")
	if err != nil {
		t.Fatal(err)
	}
	if out.Year != 2005 || a.State().Year != 2005 {
		t.Errorf("year after switching to gdp = %d, want 2005", out.Year)
	}
	if out.Diff == nil {
		t.Error("SetMetric should re-render the map")
	}

	if st, _ := a.TogglePlay(); st != playback.Playing {
		t.Fatalf("TogglePlay() = %v, want playing", st)
	}
	if y := a.State().Year; y != 2010 {
		t.Errorf("year after starting playback = %d, want 2010 (window start)", y)
	}
	a.TogglePlay()
}

func TestSetMetricInvalid(t *testing.T) {
	a := newTestApp(t)
	_, err := a.SetMetric("happiness")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidMetric) {
		t.Errorf("SetMetric(unknown) error = %v, want %v", err, apperrors.ErrCodeInvalidMetric)
	}
}

func TestHover(t *testing.T) {
	a := newTestApp(t)
	out := a.Hover("Brazil", 100, 100)
	if len(out.Instructions) != 2 {
		t.Fatalf("Hover() = %v", out.Instructions)
	}
	tip := out.Instructions[1]
	if tip.Text != "Brazil - population: 170000000" || tip.X != 110 || tip.Y != 72 {
		t.Errorf("tooltip = %+v", tip)
	}
	if got := a.Hover("Chile", 0, 0).Instructions[1].Text; got != "Chile - population: N/A" {
		t.Errorf("no-data tooltip = %q", got)
	}
}

func TestSwitchView(t *testing.T) {
	a := newTestApp(t)

	out, err := a.SwitchView(view.Globe)
	if err != nil {
		t.Fatal(err)
	}
	if out.View == nil || !out.View.Changed() || out.Diff == nil {
		t.Fatalf("SwitchView(Globe) = %+v", out)
	}
	f := a.Frame()
	if f.View != "globe" || f.Ocean == nil || f.Ocean.Disc == nil {
		t.Errorf("globe frame ocean = %+v", f.Ocean)
	}

	out, _ = a.SwitchView(view.Globe)
	if out.View != nil {
		t.Error("switching to the current view should be a no-op")
	}

	out, _ = a.SwitchView(view.Treemap)
	if out.Treemap == nil {
		t.Fatal("treemap switch should produce a treemap transition")
	}
	if f := a.Frame(); len(f.Tiles) == 0 || f.Shapes != nil {
		t.Errorf("treemap frame: %d tiles, %d shapes", len(f.Tiles), len(f.Shapes))
	}
	if !strings.Contains(string(a.SVG(false)), `id="treemap"`) {
		t.Error("SVG() in treemap mode should draw the treemap")
	}

	if _, err := a.SwitchView(view.Mode(7)); !apperrors.Is(err, apperrors.ErrCodeInvalidView) {
		t.Errorf("SwitchView(7) error = %v", err)
	}
}

func leafCount(a *App) int {
	n := 0
	for _, tile := range a.Frame().Tiles {
		if tile.Leaf {
			n++
		}
	}
	return n
}

func TestSetTopN(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.SetTopN(0); err == nil {
		t.Error("SetTopN(0) = nil error")
	}

	out, _ := a.SetTopN(1)
	if out.Treemap != nil {
		t.Error("SetTopN should not render while the map is visible")
	}
	a.SwitchView(view.Treemap)
	if got := leafCount(a); got != 1 {
		t.Errorf("leaves = %d, want 1", got)
	}
	a.SetTopN(10)
	if got := leafCount(a); got != 3 {
		t.Errorf("leaves = %d, want 3", got)
	}
}

func TestPlayback(t *testing.T) {
	a := newTestApp(t)
	a.SetMetric("gdp")
	a.SetYear(2018)

	var frames []int
	var stops int
	a.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventFrame:
			frames = append(frames, ev.Output.Year)
		case EventPlayback:
			stops++
		}
	})

	st, err := a.TogglePlay()
	if err != nil || st != playback.Playing {
		t.Fatalf("TogglePlay() = %v, %v", st, err)
	}
	if !a.Tick() || !a.Tick() {
		t.Fatal("playback stopped early")
	}
	if a.Tick() {
		t.Error("playback should stop at the window end")
	}
	if a.Tick() {
		t.Error("tick while stopped should report stopped")
	}

	if len(frames) != 2 || frames[0] != 2018 || frames[1] != 2019 {
		t.Errorf("frames = %v, want [2018 2019]", frames)
	}
	if stops != 1 {
		t.Errorf("stop events = %d, want 1", stops)
	}
	if a.State().Playing {
		t.Error("State().Playing = true after auto-stop")
	}
}

func TestPlaybackLandsOnWindowEnd(t *testing.T) {
	a := newTestApp(t)
	a.SetMetric("gdp")
	a.SetYear(2015)
	a.TogglePlay()

	for i := 1; i <= 5; i++ {
		if !a.Tick() {
			t.Fatalf("tick %d stopped playback", i)
		}
		if y := a.State().Year; y != 2015+i {
			t.Errorf("year after tick %d = %d, want %d", i, y, 2015+i)
		}
	}
	if a.Tick() {
		t.Error("tick 6 should auto-stop")
	}
	st := a.State()
	if st.Year != 2020 || st.Playing {
		t.Errorf("after tick 6: year = %d, playing = %v; want 2020, false", st.Year, st.Playing)
	}

	var frames int
	a.Subscribe(func(ev Event) {
		if ev.Kind == EventFrame {
			frames++
		}
	})
	a.Tick()
	if frames != 0 || a.State().Year != 2020 {
		t.Errorf("tick 7: frames = %d, year = %d; want 0, 2020", frames, a.State().Year)
	}
}

func TestStaleTimerTickDropped(t *testing.T) {
	a := newTestApp(t)
	a.SetMetric("gdp")
	a.SetYear(2012)
	a.TogglePlay()

	a.mu.Lock()
	stale := a.playGen
	a.mu.Unlock()

	a.TogglePlay()
	a.TogglePlay()
	if a.tick(stale) {
		t.Error("tick from a stopped timer reported playing")
	}
	if y := a.State().Year; y != 2012 {
		t.Errorf("year after stale tick = %d, want 2012", y)
	}
	if !a.Tick() || a.State().Year != 2013 {
		t.Errorf("current tick: year = %d, want 2013", a.State().Year)
	}
	a.TogglePlay()
}

func TestTreemapFollowsHiddenRenders(t *testing.T) {
	a := newTestApp(t)
	a.SetYear(2020)

	out, err := a.SwitchView(view.Treemap)
	if err != nil || out.Treemap == nil {
		t.Fatalf("SwitchView(Treemap) = %+v, %v", out, err)
	}
	for _, c := range out.Treemap.Changes {
		if c.Kind != hierarchy.Update {
			t.Errorf("%s: kind = %v, want update", c.Key, c.Kind)
			continue
		}
		if c.From.X0 != c.To.X0 || c.From.X1 != c.To.X1 || c.From.Value != c.To.Value {
			t.Errorf("%s: from %+v, want current-year tile %+v", c.Key, c.From, c.To)
		}
	}
}

func TestTogglePlayStops(t *testing.T) {
	a := newTestApp(t)
	a.TogglePlay()
	st, _ := a.TogglePlay()
	if st != playback.Stopped {
		t.Errorf("second TogglePlay() = %v, want stopped", st)
	}
}

func TestSelectCountry(t *testing.T) {
	a := newTestApp(t)
	events := detailEvents(a)

	out, err := a.SelectCountry("Peru")
	if err != nil {
		t.Fatal(err)
	}
	var opened bool
	for _, in := range out.Instructions {
		opened = opened || in.Op == scene.OpOpenDetail
	}
	if !opened {
		t.Errorf("SelectCountry() instructions = %v, want detail.open", out.Instructions)
	}

	ev := waitEvent(t, events)
	if ev.Country != "Peru" || ev.Detail != DetailReady {
		t.Fatalf("event = %+v, want Peru ready", ev)
	}
	status, country, panel := a.Detail()
	if status != DetailReady || country != "Peru" || len(panel.Markers) != 2 {
		t.Errorf("Detail() = %v, %q, %+v", status, country, panel)
	}
	if svg, err := a.DetailSVG(false); err != nil || !strings.Contains(string(svg), "clip-peru") {
		t.Errorf("DetailSVG() error = %v", err)
	}
	if got := a.HoverCity("Lima", 0, 0).Instructions; len(got) != 2 || got[1].Text != "City: Lima" {
		t.Errorf("HoverCity() = %v", got)
	}
	if !a.Frame().Blurred {
		t.Error("map should be blurred while the panel is open")
	}

	out = a.DismissDetail()
	if len(out.Instructions) == 0 || out.Instructions[0].Op != scene.OpCloseDetail {
		t.Errorf("DismissDetail() = %v", out.Instructions)
	}
	if status, _, _ := a.Detail(); status != DetailNone {
		t.Errorf("status after dismiss = %v", status)
	}
}

func TestSelectCountryMissingBoundary(t *testing.T) {
	a := newTestApp(t)
	events := detailEvents(a)

	a.SelectCountry("Brazil")
	ev := waitEvent(t, events)
	if ev.Detail != DetailEmpty {
		t.Errorf("status = %v, want empty", ev.Detail)
	}
	if _, err := a.DetailSVG(false); err == nil {
		t.Error("DetailSVG() on empty panel = nil error")
	}
	// The base map is unaffected.
	if len(a.Frame().Shapes) != 3 {
		t.Error("base map changed after a failed drill-down")
	}
}

func TestSelectCountryDropsStale(t *testing.T) {
	a := newTestApp(t, "Peru")
	events := detailEvents(a)

	a.SelectCountry("Peru")
	a.SelectCountry("Chile")

	ev := waitEvent(t, events)
	if ev.Country != "Chile" {
		t.Fatalf("first event for %q, want Chile", ev.Country)
	}
	select {
	case ev := <-events:
		t.Errorf("unexpected event for %q", ev.Country)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSelectUnknownCountry(t *testing.T) {
	a := newTestApp(t)
	_, err := a.SelectCountry("Atlantis")
	if !apperrors.Is(err, apperrors.ErrCodeCountryNotFound) {
		t.Errorf("error = %v, want %v", err, apperrors.ErrCodeCountryNotFound)
	}
}

func TestPlotFeaturesAndFormulas(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.PlotFeatures([]string{"gdp"}); err == nil {
		t.Error("PlotFeatures() without selection = nil error")
	}

	a.SelectCountry("Brazil")
	if err := a.SetSeriesRange(2010, 2012); err != nil {
		t.Fatal(err)
	}
	out, err := a.PlotFeatures([]string{"gdp"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "Brazil - gdp" || len(out.Series) != 1 || len(out.Series[0].Points) != 3 {
		t.Errorf("PlotFeatures() = %q %+v", out.Title, out.Series)
	}

	a.AddFormula("(d.gdp + d.population) / 2")
	out = a.PlotFormulas()
	if len(out.Instructions) != 0 {
		t.Fatalf("PlotFormulas() notified: %v", out.Instructions)
	}
	if out.Title != "Brazil - Formulas Result" || out.Series[0].Name != "Formula 1" {
		t.Errorf("PlotFormulas() = %q %+v", out.Title, out.Series)
	}
	want := (12.0 + 181e6) / 2
	if got := out.Series[0].Points[1].Y; math.Abs(got-want) > 1e-6 {
		t.Errorf("Formula 1 at 2011 = %v, want %v", got, want)
	}

	a.AddFormula("gdp +")
	out = a.PlotFormulas()
	if len(out.Instructions) != 1 || out.Instructions[0].Op != scene.OpNotify {
		t.Fatalf("invalid formula should notify, got %v", out.Instructions)
	}
	series, title := a.Series()
	if title != "Brazil - Formulas Result" || len(series) != 1 {
		t.Errorf("series replaced after a failed plot: %q %v", title, series)
	}

	if err := a.SetSeriesRange(2015, 2010); !apperrors.Is(err, apperrors.ErrCodeInvalidYear) {
		t.Errorf("SetSeriesRange(reversed) error = %v", err)
	}
}

func TestResize(t *testing.T) {
	a := newTestApp(t)
	if out := a.Resize(1280, 720); len(out.Instructions) != 0 {
		t.Errorf("Resize(same) = %v", out.Instructions)
	}
	out := a.Resize(800, 600)
	if len(out.Instructions) != 1 || out.Instructions[0].Op != scene.OpReloadPrompt {
		t.Fatalf("Resize() = %v", out.Instructions)
	}
	out, _ = a.SetYear(2010)
	if len(out.Instructions) != 1 || out.Instructions[0].Op != scene.OpReloadPrompt || out.Diff != nil {
		t.Errorf("render after resize = %+v, want reload prompt", out)
	}
	if !a.State().ReloadRequired {
		t.Error("ReloadRequired = false")
	}
}

func TestDragZoom(t *testing.T) {
	a := newTestApp(t)
	a.SwitchView(view.Globe)

	before := a.Frame().Projection.Rotation
	a.Drag(50, 0)
	if after := a.Frame().Projection.Rotation; after == before {
		t.Error("Drag() did not rotate the globe")
	}
	a.Zoom(100)
	if z := a.State().Zoom; math.Abs(z-10) > 1e-9 {
		t.Errorf("Zoom(100) factor = %v, want 10", z)
	}

	a.SwitchView(view.Treemap)
	if out := a.Drag(10, 10); out.Diff != nil {
		t.Error("Drag() on the treemap should not render")
	}
}

func TestClose(t *testing.T) {
	a := newTestApp(t)
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := a.SetYear(2010); err == nil {
		t.Error("SetYear() after Close = nil error")
	}
	if a.Tick() {
		t.Error("Tick() after Close = true")
	}
}
