package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/energyatlas/pkg/app"
	"github.com/matzehuels/energyatlas/pkg/chart"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/formula"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

type seriesOpts struct {
	country  string
	features string
	formulas []string
	from, to int
	output   string
	width    int
	height   int
	table    bool
}

// seriesCommand creates the series command.
func (c *CLI) seriesCommand() *cobra.Command {
	var opts seriesOpts

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Plot a country's indicators over time",
		Long: `Plot one country's indicators over a year range as an SVG line chart.

Without --formula each feature in --features gets its own line. Formulas
combine features and the year with + - * / and parentheses, for example
"gdp / population".`,
		Example: `  energyatlas series --country Brazil --features gdp,population
  energyatlas series --country Brazil --formula "gdp / population" --from 1990 --to 2020`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runSeries(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.country, "country", "", "country to plot (required)")
	f.StringVar(&opts.features, "features", "", "comma-separated features (default: all metrics)")
	f.StringArrayVar(&opts.formulas, "formula", nil, "formula to plot (repeatable)")
	f.IntVar(&opts.from, "from", 0, "first year (default: config detail.series_start)")
	f.IntVar(&opts.to, "to", 0, "last year (default: config detail.series_end)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: <country>-series.svg)")
	f.IntVar(&opts.width, "width", 0, "chart width")
	f.IntVar(&opts.height, "height", 0, "chart height")
	f.BoolVar(&opts.table, "table", false, "print the series as a table")
	_ = cmd.MarkFlagRequired("country")

	return cmd
}

func (c *CLI) runSeries(ctx context.Context, opts seriesOpts) error {
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

	if opts.from == 0 {
		opts.from = cfg.Detail.SeriesStart
	}
	if opts.to == 0 {
		opts.to = cfg.Detail.SeriesEnd
	}

	prog := newProgress(logger)
	a, err := runner.NewApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	series, title, err := plotSeries(a, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Plotted %d series", len(series)))

	out := opts.output
	if out == "" {
		out = slug(opts.country) + "-series.svg"
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := a.ChartSVG(f, chart.Options{Width: opts.width, Height: opts.height}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printSuccess("Plotted %s", StyleHighlight.Render(title))
	printFile(out)
	if opts.table {
		fmt.Println(seriesTable(series))
	}
	return nil
}

// plotSeries selects the country, applies the year range and plots either
// the formulas or the features.
func plotSeries(a *app.App, opts seriesOpts) ([]formula.Series, string, error) {
	if _, err := a.SelectCountry(opts.country); err != nil {
		return nil, "", err
	}
	if err := a.SetSeriesRange(opts.from, opts.to); err != nil {
		return nil, "", err
	}

	if len(opts.formulas) == 0 {
		out, err := a.PlotFeatures(parseList(opts.features))
		if err != nil {
			return nil, "", err
		}
		return out.Series, out.Title, nil
	}

	for _, src := range opts.formulas {
		if _, err := a.AddFormula(src); err != nil {
			return nil, "", err
		}
	}
	out := a.PlotFormulas()
	for _, in := range out.Instructions {
		if in.Op == scene.OpNotify {
			return nil, "", apperrors.New(apperrors.ErrCodeInvalidFormula, "%s", in.Text)
		}
	}
	return out.Series, out.Title, nil
}

// seriesTable renders series as one row per year and one column per series.
func seriesTable(series []formula.Series) string {
	headers := []string{"Year"}
	rows := map[int][]string{}
	var years []int
	for i, s := range series {
		headers = append(headers, s.Name)
		for _, p := range s.Points {
			row, ok := rows[p.X]
			if !ok {
				row = make([]string, len(series)+1)
				row[0] = strconv.Itoa(p.X)
				years = append(years, p.X)
			}
			row[i+1] = strconv.FormatFloat(p.Y, 'g', 6, 64)
			rows[p.X] = row
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleTitle.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})
	slices.Sort(years)
	for _, y := range years {
		t.Row(rows[y]...)
	}
	return t.Render()
}
