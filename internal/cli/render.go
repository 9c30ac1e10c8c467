package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/energyatlas/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	view        string
	year        int
	metric      string
	topN        int
	country     string
	formats     string
	output      string
	interactive bool
	detailed    bool
	scale       float64
	refresh     bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame of the atlas",
		Long: `Render one frame of the atlas to files.

The view is the flat map, the globe or the continent treemap. With --country
the drill-down panel of that country is rendered instead, with its cities
and the reference-year temperature overlay.`,
		Example: `  energyatlas render --metric gdp --year 2015
  energyatlas render --view treemap --top 15 -f svg,json
  energyatlas render --country Brazil -f svg,png -o out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runRender(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.view, "view", pipeline.DefaultView, "view: flat, globe or treemap")
	f.IntVar(&opts.year, "year", 0, "year to render (default: start of the metric window)")
	f.StringVarP(&opts.metric, "metric", "m", "", "metric key (default: first configured metric)")
	f.IntVar(&opts.topN, "top", 0, "countries in the treemap (default: config)")
	f.StringVar(&opts.country, "country", "", "render the drill-down panel of this country")
	f.StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "output formats: svg, png, pdf, json, dot")
	f.StringVarP(&opts.output, "output", "o", ".", "output directory")
	f.BoolVar(&opts.interactive, "interactive", false, "embed hover tooltips in SVG output")
	f.BoolVar(&opts.detailed, "detailed", false, "label DOT hierarchy nodes with values")
	f.Float64Var(&opts.scale, "scale", pipeline.DefaultPNGScale, "PNG scale factor")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		View:        opts.view,
		Year:        opts.year,
		Metric:      opts.metric,
		TopN:        opts.topN,
		Country:     opts.country,
		Formats:     parseFormats(opts.formats),
		Interactive: opts.interactive,
		Detailed:    opts.detailed,
		Scale:       opts.scale,
		Refresh:     opts.refresh,
		Logger:      logger,
	}
	if err := popts.ValidateAndSetDefaults(cfg); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s %s %d", result.View, result.Metric, result.Year))

	paths, err := writeArtifacts(opts.output, artifactBase(result, opts.country), result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(describeRender(result, opts.country)))
	printStats(result.Stats.Countries, result.Year, result.Metric, result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	if opts.country == "" && result.View != "treemap" {
		printNextStep("Explore interactively", "energyatlas explore --metric "+result.Metric)
	}
	return nil
}

// artifactBase names output files "<metric>-<year>-<view>" or, for a
// drill-down, "<metric>-<year>-<country>".
func artifactBase(r *pipeline.Result, country string) string {
	last := r.View
	if country != "" {
		last = slug(country)
	}
	return fmt.Sprintf("%s-%d-%s", slug(r.Metric), r.Year, last)
}

func describeRender(r *pipeline.Result, country string) string {
	if country != "" {
		return fmt.Sprintf("%s detail (%s %d)", country, r.Metric, r.Year)
	}
	return fmt.Sprintf("%s view (%s %d)", r.View, r.Metric, r.Year)
}

// writeArtifacts writes each artifact to dir/base.<format> in a stable
// order and returns the written paths.
func writeArtifacts(dir, base string, artifacts map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := filepath.Join(dir, base+"."+f)
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// slug lowercases s and replaces anything outside [a-z0-9] with '-'.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
