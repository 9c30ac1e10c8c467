package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

const worldJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"name":"Brazil"},"geometry":{"type":"Polygon","coordinates":[[[-60,-10],[-40,-10],[-40,0],[-60,0],[-60,-10]]]}},
{"type":"Feature","properties":{"name":"France"},"geometry":{"type":"Polygon","coordinates":[[[0,45],[5,45],[5,50],[0,50],[0,45]]]}}
]}`

const metricsCSV = `country,year,population,gdp
Brazil,2019,211000000,
Brazil,2020,212559000,1.4e12
France,2020,67000000,2.6e12
`

const citiesCSV = `country,city_name,longitude,latitude,station_id
Brazil,Sao Paulo,-46.6,-23.5,83781
Brazil,Manaus,-50,-3,82332
France,Paris,2.35,48.85,07150
`

const weatherCSV = `station_id,date,avg_temp_c
83781,2020-01-01,24.5
83781,2020-07-01,18.5
`

const metaCSV = `country,continent,region
Brazil,South America,South America
France,Europe,Western Europe
`

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"map/world.geojson":         worldJSON,
		"data/filtered_df.csv":      metricsCSV,
		"data/cities.csv":           citiesCSV,
		"data/weather.csv":          weatherCSV,
		"data/countries_meta.csv":   metaCSV,
		"map/countries/brazil.json": `{"type":"Polygon","coordinates":[[[-60,-10],[-40,-10],[-40,0],[-60,0],[-60,-10]]]}`,
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Data.Dir = dir
	r := NewRunner(cfg, dataset.NewSource(cfg.Data, nil), c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	cfg := config.Default()
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatalf("empty options should pass: %v", err)
	}
	if opts.View != "flat" {
		t.Errorf("View = %q, want flat", opts.View)
	}
	if opts.Metric != "population" {
		t.Errorf("Metric = %q, want population", opts.Metric)
	}
	if opts.Year != 2000 {
		t.Errorf("Year = %d, want 2000", opts.Year)
	}
	if opts.TopN != cfg.Treemap.TopN {
		t.Errorf("TopN = %d, want %d", opts.TopN, cfg.Treemap.TopN)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultPNGScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultPNGScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// gdp has a later window
	opts = Options{Metric: "gdp", View: "map"}
	if err := opts.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	if opts.Year != 2010 || opts.View != "flat" {
		t.Errorf("gdp defaults = %d/%s, want 2010/flat", opts.Year, opts.View)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want apperrors.Code
	}{
		{"unknown view", Options{View: "cube"}, apperrors.ErrCodeInvalidView},
		{"unknown metric", Options{Metric: "happiness"}, apperrors.ErrCodeInvalidMetric},
		{"year before window", Options{Metric: "gdp", Year: 2005}, apperrors.ErrCodeInvalidYear},
		{"year after window", Options{Year: 2031}, apperrors.ErrCodeInvalidYear},
		{"negative top n", Options{TopN: -1}, apperrors.ErrCodeInvalidInput},
		{"bad format", Options{Formats: []string{"gif"}}, apperrors.ErrCodeInvalidFormat},
		{"bad country", Options{Country: "../etc"}, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults(config.Default())
			if !apperrors.Is(err, tt.want) {
				t.Errorf("error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Interactive: true, Detailed: true, Scale: 3}
	if k := opts.ArtifactKeyOpts(FormatSVG); !k.Interactive || k.Detailed || k.Scale != 0 {
		t.Errorf("svg key = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatPNG); k.Interactive || k.Scale != 3 {
		t.Errorf("png key = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatDOT); !k.Detailed {
		t.Errorf("dot key = %+v", k)
	}
}

func TestSceneKeyOpts(t *testing.T) {
	cfg := config.Default()

	flat := Options{TopN: 5}
	if err := flat.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	if k := flat.SceneKeyOpts(cfg); k.TopN != 0 || k.Width != cfg.Viewport.Width {
		t.Errorf("flat key = %+v, want viewport size without top n", k)
	}

	tm := Options{View: "treemap", TopN: 5}
	if err := tm.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	if k := tm.SceneKeyOpts(cfg); k.TopN != 5 || k.Width != cfg.Treemap.Width {
		t.Errorf("treemap key = %+v, want treemap size with top n", k)
	}
}

func TestExecute(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, fc)
	ctx := context.Background()

	opts := Options{Year: 2020, Formats: []string{FormatSVG, FormatJSON, FormatDOT}}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.LoadHit || res.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", res.CacheInfo)
	}
	if res.Year != 2020 || res.Metric != "population" || res.View != "flat" {
		t.Errorf("result = %d/%s/%s", res.Year, res.Metric, res.View)
	}
	if res.Stats.Countries != 2 {
		t.Errorf("Countries = %d, want 2", res.Stats.Countries)
	}
	if res.Frame == nil || len(res.Frame.Shapes) != 2 {
		t.Fatalf("Frame = %+v, want 2 shapes", res.Frame)
	}

	svg := string(res.Artifacts[FormatSVG])
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, "Brazil") {
		t.Errorf("svg missing map: %.80s", svg)
	}

	var frame struct {
		View   string `json:"view"`
		Year   int    `json:"year"`
		Metric string `json:"metric"`
	}
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &frame); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if frame.View != "flat" || frame.Year != 2020 || frame.Metric != "population" {
		t.Errorf("json frame = %+v", frame)
	}

	dot := string(res.Artifacts[FormatDOT])
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"root/Europe/Western Europe/France"`) {
		t.Errorf("dot missing hierarchy:\n%s", dot)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LoadHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if again.Frame != nil {
		t.Error("cached run should not build a frame")
	}
	if string(again.Artifacts[FormatSVG]) != svg {
		t.Error("cached svg differs")
	}
	if again.SceneHash != res.SceneHash {
		t.Errorf("SceneHash changed: %s != %s", again.SceneHash, res.SceneHash)
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo.RenderHit {
		t.Error("Refresh should bypass the artifact cache")
	}
}

func TestExecuteTreemap(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{View: "treemap", Year: 2020, TopN: 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Frame == nil {
		t.Fatal("Frame is nil")
	}
	var leaves []string
	for _, tile := range res.Frame.Tiles {
		if tile.Leaf {
			leaves = append(leaves, tile.Name)
		}
	}
	if len(leaves) != 1 || leaves[0] != "Brazil" {
		t.Errorf("leaves = %v, want [Brazil]", leaves)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "Brazil") {
		t.Error("treemap svg missing Brazil")
	}
}

func TestExecuteDetail(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Country: "Brazil", Formats: []string{FormatSVG, FormatJSON}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	svg := string(res.Artifacts[FormatSVG])
	if !strings.Contains(svg, `<clipPath id="clip-brazil">`) {
		t.Errorf("detail svg missing clip path: %.200s", svg)
	}
	if res.Frame.Detail == nil || res.Frame.Detail.Country != "Brazil" || !res.Frame.Blurred {
		t.Fatalf("frame detail = %+v, blurred %v", res.Frame.Detail, res.Frame.Blurred)
	}
	if len(res.Frame.Detail.Markers) != 2 {
		t.Errorf("markers = %d, want 2", len(res.Frame.Detail.Markers))
	}
}

func TestExecuteDetailErrors(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{Country: "France"})
	if !apperrors.Is(err, apperrors.ErrCodeBoundaryNotFound) {
		t.Errorf("France error = %v, want BOUNDARY_NOT_FOUND", err)
	}
	_, err = r.Execute(ctx, Options{Country: "Atlantis"})
	if !apperrors.Is(err, apperrors.ErrCodeCountryNotFound) {
		t.Errorf("Atlantis error = %v, want COUNTRY_NOT_FOUND", err)
	}
}

func TestLoadOnce(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	b1, hit, err := r.LoadWithCacheInfo(ctx)
	if err != nil || hit {
		t.Fatalf("first load: hit=%v err=%v", hit, err)
	}
	b2, hit, err := r.LoadWithCacheInfo(ctx)
	if err != nil || !hit || b1 != b2 {
		t.Errorf("second load: hit=%v same=%v err=%v", hit, b1 == b2, err)
	}
	r.Reload()
	if _, hit, _ := r.LoadWithCacheInfo(ctx); hit {
		t.Error("Reload should force a fresh load")
	}
}
