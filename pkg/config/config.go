// Package config loads energyatlas settings from a TOML file, a .env file,
// and ENERGYATLAS_* environment variables, in that order of precedence
// (environment wins).
//
// Every field has a default, so an empty or missing config file is valid:
//
//	cfg, err := config.Load("energyatlas.toml", ".env")
//	start, end, ok := cfg.Window("gdp") // 2010, 2020, true
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// Config is the complete application configuration.
type Config struct {
	Viewport Viewport `toml:"viewport"`
	Data     Data     `toml:"data"`
	Map      Map      `toml:"map"`
	Globe    Globe    `toml:"globe"`
	Treemap  Treemap  `toml:"treemap"`
	Playback Playback `toml:"playback"`
	Detail   Detail   `toml:"detail"`
	Metrics  []Metric `toml:"metric"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Viewport is the size of the main map surface. Layout is computed once
// from it; a resize requires a reload.
type Viewport struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Data locates the five startup datasets and the per-country boundaries.
// When BaseURL is set, paths are resolved against it instead of Dir.
type Data struct {
	Dir        string `toml:"dir"`
	BaseURL    string `toml:"base_url"`
	World      string `toml:"world"`
	Metrics    string `toml:"metrics"`
	Cities     string `toml:"cities"`
	Weather    string `toml:"weather"`
	Meta       string `toml:"meta"`
	Boundaries string `toml:"boundaries"`
}

// Map configures the choropleth colour encoding.
type Map struct {
	DomainMax float64  `toml:"domain_max"`
	Palette   []string `toml:"palette"`
	Fallback  string   `toml:"fallback"`
	Ocean     string   `toml:"ocean"`
}

// Globe configures orthographic gestures.
type Globe struct {
	Sensitivity float64 `toml:"sensitivity"`
	MinZoom     float64 `toml:"min_zoom"`
	MaxZoom     float64 `toml:"max_zoom"`
}

// Treemap configures the aggregation view.
type Treemap struct {
	TopN       int           `toml:"top_n"`
	Width      int           `toml:"width"`
	Height     int           `toml:"height"`
	Padding    float64       `toml:"padding"`
	Transition time.Duration `toml:"transition"`
}

// Playback configures the year animation.
type Playback struct {
	Interval time.Duration `toml:"interval"`
}

// Detail configures the drill-down panel.
type Detail struct {
	Width         int      `toml:"width"`
	Height        int      `toml:"height"`
	Padding       float64  `toml:"padding"`
	ReferenceYear int      `toml:"reference_year"`
	Antimeridian  []string `toml:"antimeridian"`
	Swapped       []string `toml:"swapped"`
	MaxPolygons   int      `toml:"max_polygons"`
	Overlay       bool     `toml:"overlay"`
	SeriesStart   int      `toml:"series_start"`
	SeriesEnd     int      `toml:"series_end"`
}

// Metric is one selectable metric column and its playback window.
type Metric struct {
	Key   string `toml:"key"`
	Start int    `toml:"start"`
	End   int    `toml:"end"`
}

// Cache selects the artifact cache backend.
type Cache struct {
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// Server configures `energyatlas serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Palette is the 9-bucket choropleth palette.
var Palette = []string{
	"#ffedea", "#ffcec5", "#ffad9f", "#ff8a75", "#ff5533",
	"#e2492d", "#be3d26", "#9a311f", "#782618",
}

// MetricKeys lists the metric columns of the energy dataset.
var MetricKeys = []string{
	"population", "gdp",
	"biofuel_share_elec", "biofuel_share_energy",
	"coal_share_elec", "coal_share_energy",
	"electricity_share_energy",
	"fossil_share_elec", "fossil_share_energy",
	"gas_share_elec", "gas_share_energy",
	"hydro_share_elec", "hydro_share_energy",
	"low_carbon_share_elec", "low_carbon_share_energy",
	"nuclear_share_elec", "nuclear_share_energy",
	"oil_share_elec", "oil_share_energy",
	"other_renewables_share_elec", "other_renewables_share_elec_exc_biofuel",
	"other_renewables_share_energy",
	"renewables_share_elec", "renewables_share_energy",
	"solar_share_elec", "solar_share_energy",
	"wind_share_elec", "wind_share_energy",
}

// Default returns the built-in configuration.
func Default() *Config {
	metrics := make([]Metric, 0, len(MetricKeys))
	for _, k := range MetricKeys {
		m := Metric{Key: k, Start: 2000, End: 2020}
		if k == "gdp" {
			m.Start = 2010
		}
		metrics = append(metrics, m)
	}
	return &Config{
		Viewport: Viewport{Width: 1280, Height: 720},
		Data: Data{
			Dir:        ".",
			World:      "map/world.geojson",
			Metrics:    "data/filtered_df.csv",
			Cities:     "data/cities.csv",
			Weather:    "data/weather.csv",
			Meta:       "data/countries_meta.csv",
			Boundaries: "map/countries",
		},
		Map: Map{
			DomainMax: 1e8,
			Palette:   slices.Clone(Palette),
			Fallback:  "#ccc",
			Ocean:     "#a2d5f2",
		},
		Globe:    Globe{Sensitivity: 75, MinZoom: 0.3, MaxZoom: 10},
		Treemap:  Treemap{TopN: 10, Width: 960, Height: 600, Padding: 1, Transition: 750 * time.Millisecond},
		Playback: Playback{Interval: time.Second},
		Detail: Detail{
			Width:         600,
			Height:        400,
			Padding:       10,
			ReferenceYear: 2020,
			Antimeridian:  []string{"Russia", "Fiji", "Kiribati", "New Zealand", "United States of America"},
			Overlay:       true,
			SeriesStart:   2000,
			SeriesEnd:     2020,
		},
		Metrics: metrics,
		Server:  Server{Addr: ":8080"},
	}
}

// Load reads path (TOML) over the defaults, then applies envFile and the
// process environment. A missing config or env file is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read config %s", path)
		default:
			if err := Parse(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read env file %s", envFile)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML data into cfg. Keys absent from data keep their value;
// [[metric]] tables override or extend the metric list by key.
func Parse(data []byte, cfg *Config) error {
	var file struct {
		Metrics []Metric `toml:"metric"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse config")
	}

	metrics := cfg.Metrics
	if err := toml.Unmarshal(data, cfg); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse config")
	}
	cfg.Metrics = metrics
	for _, m := range file.Metrics {
		cfg.setMetric(m)
	}
	return nil
}

// setMetric replaces the window of an existing metric or appends a new one.
func (c *Config) setMetric(m Metric) {
	for i := range c.Metrics {
		if c.Metrics[i].Key == m.Key {
			c.Metrics[i] = m
			return
		}
	}
	c.Metrics = append(c.Metrics, m)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ENERGYATLAS_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := getenv("ENERGYATLAS_DATA_URL"); v != "" {
		c.Data.BaseURL = v
	}
	if v := getenv("ENERGYATLAS_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := getenv("ENERGYATLAS_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := getenv("ENERGYATLAS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("ENERGYATLAS_REFERENCE_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "ENERGYATLAS_REFERENCE_YEAR")
		}
		c.Detail.ReferenceYear = year
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if len(c.Map.Palette) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "map palette cannot be empty")
	}
	if c.Map.DomainMax <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "map domain_max must be positive")
	}
	if c.Globe.MinZoom <= 0 || c.Globe.MaxZoom < c.Globe.MinZoom {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid zoom bounds [%g, %g]", c.Globe.MinZoom, c.Globe.MaxZoom)
	}
	if c.Treemap.TopN <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "treemap top_n must be positive")
	}
	if c.Playback.Interval <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "playback interval must be positive")
	}
	if len(c.Metrics) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "at least one metric is required")
	}
	for _, m := range c.Metrics {
		if err := apperrors.ValidateMetricKey(m.Key); err != nil {
			return err
		}
		if m.End < m.Start {
			return apperrors.New(apperrors.ErrCodeInvalidYear, "metric %s: end %d before start %d", m.Key, m.End, m.Start)
		}
	}
	if c.Data.BaseURL != "" {
		if err := apperrors.ValidateURL(c.Data.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

// Window returns the playback window of metric.
func (c *Config) Window(metric string) (start, end int, ok bool) {
	for _, m := range c.Metrics {
		if m.Key == metric {
			return m.Start, m.End, true
		}
	}
	return 0, 0, false
}

// Keys returns the configured metric keys in order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.Metrics))
	for i, m := range c.Metrics {
		keys[i] = m.Key
	}
	return keys
}

// YearRange returns the union of all metric windows.
func (c *Config) YearRange() (start, end int) {
	for i, m := range c.Metrics {
		if i == 0 || m.Start < start {
			start = m.Start
		}
		if i == 0 || m.End > end {
			end = m.End
		}
	}
	return start, end
}

// IsAntimeridian reports whether country is configured for a 180° rotation.
func (d Detail) IsAntimeridian(country string) bool {
	return slices.Contains(d.Antimeridian, country)
}

// IsSwapped reports whether country's boundary file stores lat/lon pairs.
func (d Detail) IsSwapped(country string) bool {
	return slices.Contains(d.Swapped, country)
}
