package formula

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/energyatlas/pkg/dataset"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// Point is one (year, value) sample.
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Series is an ordered run of points for one feature or formula.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// RowEnv returns the environment for a single metric row, exposing its metrics
// and its year.
func RowEnv(r dataset.MetricRecord) Env {
	return func(field string) (float64, bool) {
		if field == YearField {
			return float64(r.Year), true
		}
		return r.Value(field)
	}
}

// FeatureSeries builds one series per feature from rows ordered by year.
// Rows where the feature is absent are skipped.
func FeatureSeries(rows []dataset.MetricRecord, features []string) []Series {
	out := make([]Series, 0, len(features))
	for _, f := range features {
		s := Series{Name: f}
		for _, r := range rows {
			if v, ok := r.Value(f); ok {
				s.Points = append(s.Points, Point{X: r.Year, Y: v})
			}
		}
		out = append(out, s)
	}
	return out
}

// FormulaSeries evaluates each formula over rows. Series are named
// "Formula 1".."Formula n" in the order given. Rows missing a referenced
// field are skipped; any other evaluation error aborts the whole call.
func FormulaSeries(rows []dataset.MetricRecord, formulas []*Formula) ([]Series, error) {
	out := make([]Series, 0, len(formulas))
	for i, f := range formulas {
		s := Series{Name: fmt.Sprintf("Formula %d", i+1)}
		for _, r := range rows {
			v, err := f.Eval(RowEnv(r))
			if IsAbsent(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s.Points = append(s.Points, Point{X: r.Year, Y: v})
		}
		out = append(out, s)
	}
	return out, nil
}

// List holds the formulas entered during one drill-down session. Entries
// are kept as typed and parsed only by Compile, so a bad formula surfaces
// when it is plotted.
type List struct {
	fields   []string
	items    []string
	selected []bool
}

// NewList returns an empty list accepting the given fields.
func NewList(fields []string) *List {
	return &List{fields: fields}
}

// Add appends src, selected, and returns its index. Blank input is rejected.
func (l *List) Add(src string) (int, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return -1, apperrors.New(apperrors.ErrCodeInvalidFormula, "formula is empty")
	}
	l.items = append(l.items, src)
	l.selected = append(l.selected, true)
	return len(l.items) - 1, nil
}

// Select marks formula i as selected or not. Out-of-range indices are ignored.
func (l *List) Select(i int, on bool) {
	if i >= 0 && i < len(l.selected) {
		l.selected[i] = on
	}
}

// Len returns the number of formulas.
func (l *List) Len() int { return len(l.items) }

// Items returns the source text of every formula.
func (l *List) Items() []string { return slices.Clone(l.items) }

// Compile parses the selected formulas in entry order. The first invalid
// formula fails the whole call.
func (l *List) Compile() ([]*Formula, error) {
	var out []*Formula
	for i, src := range l.items {
		if !l.selected[i] {
			continue
		}
		f, err := Parse(src, l.fields)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Reset removes every formula.
func (l *List) Reset() {
	l.items = nil
	l.selected = nil
}
