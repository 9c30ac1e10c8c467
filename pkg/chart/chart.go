// Package chart draws year/value series as an SVG line chart using go-gg.
//
// The core hands over []formula.Series; chart flattens them into a table
// with one row per point and lets go-gg group, scale and draw them:
//
//	var buf bytes.Buffer
//	err := chart.WriteSVG(&buf, chart.Title("Brazil", []string{"gdp"}), series, chart.Options{})
package chart

import (
	"fmt"
	"io"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/formula"
)

// Column names double as axis labels.
const (
	ColYear   = "Year"
	ColValue  = "Value"
	ColSeries = "Series"
	ColLabel  = "Label"
)

// Options sizes the chart. Zero values use 800x400.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 400
	}
	return w, h
}

// Title returns "<country> - <feature>" for a single feature and the bare
// country name otherwise.
func Title(country string, features []string) string {
	if len(features) == 1 {
		return country + " - " + features[0]
	}
	return country
}

// FormulaTitle is the title of a formula chart.
func FormulaTitle(country string) string {
	return country + " - Formulas Result"
}

// Table flattens series into one row per point.
func Table(series []formula.Series) *table.Table {
	var (
		years  []int
		values []float64
		names  []string
		labels []string
	)
	for _, s := range series {
		for _, p := range s.Points {
			years = append(years, p.X)
			values = append(values, p.Y)
			names = append(names, s.Name)
			labels = append(labels, fmt.Sprintf("%s %d: %g", s.Name, p.X, p.Y))
		}
	}
	return new(table.Builder).
		Add(ColYear, years).
		Add(ColValue, values).
		Add(ColSeries, names).
		Add(ColLabel, labels).
		Done()
}

// Plot builds the go-gg plot: one coloured line plus points per series.
func Plot(title string, series []formula.Series) (*gg.Plot, error) {
	t := Table(series)
	if t.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "nothing to plot")
	}

	p := gg.NewPlot(t)
	p.GroupBy(ColSeries)
	p.Add(gg.LayerLines{X: ColYear, Y: ColValue, Color: ColSeries})
	p.Add(gg.LayerPoints{X: ColYear, Y: ColValue, Color: ColSeries})
	p.Add(gg.LayerTooltips{X: ColYear, Y: ColValue, Label: ColLabel})
	if title != "" {
		p.Add(gg.Title(title))
	}
	return p, nil
}

// WriteSVG renders series to w.
func WriteSVG(w io.Writer, title string, series []formula.Series, opts Options) error {
	p, err := Plot(title, series)
	if err != nil {
		return err
	}
	width, height := opts.size()
	return p.WriteSVG(w, width, height)
}
