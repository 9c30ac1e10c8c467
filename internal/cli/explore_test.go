package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/app"
	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	"github.com/matzehuels/energyatlas/pkg/view"
)

func square(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	b := &dataset.Bundle{
		Features: []dataset.GeoFeature{
			{Name: "Brazil", Boundary: square(-60, -20, 10)},
			{Name: "Kenya", Boundary: square(34, -4, 5)},
			{Name: "Peru", Boundary: square(-78, -15, 5)},
		},
		Meta: []dataset.CountryMeta{
			{Country: "Brazil", Continent: "Americas", Region: "South America"},
			{Country: "Kenya", Continent: "Africa", Region: "Eastern Africa"},
			{Country: "Peru", Continent: "Americas", Region: "South America"},
		},
	}
	for y := 2000; y <= 2020; y++ {
		b.Metrics = append(b.Metrics,
			dataset.MetricRecord{Country: "Brazil", Year: y, Metrics: map[string]float64{"population": 170e6, "gdp": 1e12}},
			dataset.MetricRecord{Country: "Kenya", Year: y, Metrics: map[string]float64{"population": 50e6, "gdp": 9e10}},
			dataset.MetricRecord{Country: "Peru", Year: y, Metrics: map[string]float64{"population": 30e6, "gdp": 2e11}},
		)
	}

	cfg := config.Default()
	cfg.Playback.Interval = time.Hour
	a, err := app.New(context.Background(), app.Options{Config: cfg, Bundle: b, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func press(t *testing.T, m ExploreModel, keys ...string) ExploreModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ExploreModel)
	}
	return m
}

func TestExploreRanking(t *testing.T) {
	m := NewExploreModel(newTestApp(t), t.TempDir())

	var got []string
	for _, r := range m.Ranking {
		got = append(got, r.Country)
	}
	want := "Brazil,Kenya,Peru"
	if strings.Join(got, ",") != want {
		t.Errorf("Ranking = %v, want %s", got, want)
	}
}

func TestExploreKeys(t *testing.T) {
	m := NewExploreModel(newTestApp(t), t.TempDir())
	start := m.State.Year

	m = press(t, m, "right", "right", "left")
	if m.State.Year != start+1 {
		t.Errorf("Year = %d, want %d", m.State.Year, start+1)
	}

	metric := m.State.Metric
	m = press(t, m, "m")
	if m.State.Metric == metric {
		t.Errorf("Metric = %q after m, want a different metric", m.State.Metric)
	}

	m = press(t, m, "v")
	if m.State.Mode != view.Globe {
		t.Errorf("Mode = %v, want globe", m.State.Mode)
	}

	topN := m.State.TopN
	m = press(t, m, "-")
	if m.State.TopN != topN-1 {
		t.Errorf("TopN = %d, want %d", m.State.TopN, topN-1)
	}

	m = press(t, m, "space")
	if !m.State.Playing {
		t.Error("Playing = false after space, want true")
	}
	m = press(t, m, "space")
	if m.State.Playing {
		t.Error("Playing = true after second space, want false")
	}
}

func TestExploreCursor(t *testing.T) {
	m := NewExploreModel(newTestApp(t), t.TempDir())
	m = press(t, m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}
	if !strings.Contains(m.View(), "Peru") {
		t.Error("View() missing Peru")
	}
}

func TestExploreSnapshot(t *testing.T) {
	dir := t.TempDir()
	m := NewExploreModel(newTestApp(t), dir)
	m = press(t, m, "s")

	want := filepath.Join(dir, "population-2000-flat.svg")
	if m.LastSnapshot != want {
		t.Fatalf("LastSnapshot = %q, want %q", m.LastSnapshot, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("snapshot does not start with <svg: %.40q", data)
	}
}

func TestExploreQuit(t *testing.T) {
	m := NewExploreModel(newTestApp(t), t.TempDir())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned nil command, want tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q command did not produce tea.QuitMsg")
	}
}

func TestNextMetric(t *testing.T) {
	keys := []string{"population", "gdp"}
	tests := []struct{ in, want string }{
		{"population", "gdp"},
		{"gdp", "population"},
		{"unknown", "population"},
	}
	for _, tt := range tests {
		if got := nextMetric(keys, tt.in); got != tt.want {
			t.Errorf("nextMetric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{170e6, "170.0M"},
		{1.2e12, "1200.0B"},
		{2500, "2.5k"},
		{12, "12"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
