// Package pipeline renders energyatlas frames in batch: it loads the
// startup datasets, builds the requested scene and writes it out in one or
// more formats.
//
// # Pipeline Stages
//
//  1. Load: read the five startup datasets ([dataset.LoadAll]). The bundle
//     is loaded once per [Runner] and reused by later runs.
//  2. Scene: build an [app.App] at the requested year, metric and view,
//     optionally opening the drill-down panel of one country.
//  3. Render: write the scene as SVG, PNG, PDF, JSON or (for the treemap
//     hierarchy) Graphviz DOT.
//
// Rendered artifacts are cached under a key derived from the dataset
// fingerprint and the scene options, so an unchanged dataset renders each
// frame only once.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, dataset.NewSource(cfg.Data, nil), cache, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    View:    "globe",
//	    Metric:  "gdp",
//	    Year:    2015,
//	    Formats: []string{"svg", "png"},
//	})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/render/sink"
	"github.com/matzehuels/energyatlas/pkg/view"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultView     = "flat"
	DefaultPNGScale = 2.0
	// DefaultDetailTimeout bounds the wait for a drill-down boundary.
	DefaultDetailTimeout = 30 * time.Second
)

// =============================================================================
// Output Formats
// =============================================================================

const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	// FormatDOT is the treemap hierarchy as a Graphviz digraph.
	FormatDOT = "dot"
)

// ValidFormats is the set of valid output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// Options selects one frame and how to write it.
type Options struct {
	// Scene
	View    string `json:"view,omitempty"`    // "flat", "globe" or "treemap"
	Year    int    `json:"year,omitempty"`    // 0 = start of the metric window
	Metric  string `json:"metric,omitempty"`  // "" = first configured metric
	TopN    int    `json:"top_n,omitempty"`   // treemap only; 0 = configured
	Country string `json:"country,omitempty"` // render this country's drill-down panel

	// Render
	Formats     []string `json:"formats,omitempty"`
	Interactive bool     `json:"interactive,omitempty"` // embed hover CSS/JS in SVG
	Detailed    bool     `json:"detailed,omitempty"`    // DOT labels carry metric sums
	Scale       float64  `json:"scale,omitempty"`       // PNG scale factor

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime (not serialized)
	Logger *log.Logger `json:"-"`

	mode      view.Mode
	validated bool
}

// Result holds the output of a pipeline run.
type Result struct {
	Year      int               `json:"year"`
	Metric    string            `json:"metric"`
	View      string            `json:"view"`
	SceneHash string            `json:"scene_hash"`
	Frame     *sink.Frame       `json:"frame,omitempty"` // nil when every artifact was cached
	Artifacts map[string][]byte `json:"-"`
	Stats     Stats             `json:"stats"`
	CacheInfo CacheInfo         `json:"cache_info"`
}

// Stats contains timing and size statistics.
type Stats struct {
	LoadTime   time.Duration `json:"load_time"`
	SceneTime  time.Duration `json:"scene_time"`
	RenderTime time.Duration `json:"render_time"`
	Countries  int           `json:"countries"`
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	LoadHit   bool `json:"load_hit"`   // Whether the dataset bundle was already loaded
	RenderHit bool `json:"render_hit"` // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options against cfg and fills in
// defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults(cfg *config.Config) error {
	if o.validated {
		return nil
	}
	if o.View == "" {
		o.View = DefaultView
	}
	mode, err := view.ParseMode(o.View)
	if err != nil {
		return err
	}
	o.mode = mode
	o.View = mode.String()

	if o.Metric == "" {
		if keys := cfg.Keys(); len(keys) > 0 {
			o.Metric = keys[0]
		}
	}
	start, end, ok := cfg.Window(o.Metric)
	if !ok {
		return apperrors.New(apperrors.ErrCodeInvalidMetric, "unknown metric %q", o.Metric)
	}
	if o.Year == 0 {
		o.Year = start
	}
	if o.Year < start || o.Year > end {
		return apperrors.New(apperrors.ErrCodeInvalidYear, "year %d outside %s window %d-%d", o.Year, o.Metric, start, end)
	}
	if o.TopN < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "top_n must be positive, got %d", o.TopN)
	}
	if o.TopN == 0 {
		o.TopN = cfg.Treemap.TopN
	}
	if o.Country != "" {
		if err := apperrors.ValidateCountryName(o.Country); err != nil {
			return err
		}
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		o.Scale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Mode returns the parsed view. Valid after ValidateAndSetDefaults.
func (o *Options) Mode() view.Mode { return o.mode }

// SceneKeyOpts returns cache key options for the scene. Sizes come from cfg
// because layout depends on them.
func (o *Options) SceneKeyOpts(cfg *config.Config) cache.SceneKeyOpts {
	k := cache.SceneKeyOpts{
		View:    o.View,
		Metric:  o.Metric,
		Year:    o.Year,
		Country: o.Country,
		Width:   cfg.Viewport.Width,
		Height:  cfg.Viewport.Height,
	}
	switch {
	case o.Country != "":
		k.Width, k.Height = cfg.Detail.Width, cfg.Detail.Height
	case o.mode == view.Treemap:
		k.TopN = o.TopN
		k.Width, k.Height = cfg.Treemap.Width, cfg.Treemap.Height
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		k.Interactive = o.Interactive
	case FormatPNG:
		k.Scale = o.Scale
	case FormatDOT:
		k.Detailed = o.Detailed
	}
	return k
}
