// Package join attaches the metrics of one year to the world map features.
//
// Rows are indexed once by (year, country) with [NewIndex]; each year or
// metric change is then a single pass over the features with
// [Index.Join]. Matching is exact on the display name. A feature without a
// row is still emitted, with HasData false, so the map can draw it in the
// fallback colour.
package join

import (
	"github.com/paulmach/orb"

	"github.com/matzehuels/energyatlas/pkg/dataset"
)

// Country is a world map feature joined with its metrics for one year.
// It is rebuilt on every change and never mutated afterwards.
type Country struct {
	Name      string
	Boundary  orb.Geometry
	Year      int
	Continent string
	Region    string

	// HasData reports whether a metric row exists for (Name, Year).
	HasData bool
	metrics map[string]float64
}

// Value returns the metric and whether it is present. An absent metric is
// distinct from a zero value.
func (c Country) Value(metric string) (float64, bool) {
	if !c.HasData {
		return 0, false
	}
	v, ok := c.metrics[metric]
	return v, ok
}

// Metrics returns a copy of the present metrics.
func (c Country) Metrics() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for k, v := range c.metrics {
		out[k] = v
	}
	return out
}

type rowKey struct {
	year    int
	country string
}

// Index holds rows keyed by (year, country) and metadata keyed by country.
type Index struct {
	rows map[rowKey]map[string]float64
	meta map[string]dataset.CountryMeta
}

// NewIndex indexes rows and meta. For duplicate (country, year) rows the
// first one wins.
func NewIndex(rows []dataset.MetricRecord, meta []dataset.CountryMeta) *Index {
	idx := &Index{
		rows: make(map[rowKey]map[string]float64, len(rows)),
		meta: make(map[string]dataset.CountryMeta, len(meta)),
	}
	for _, r := range rows {
		k := rowKey{r.Year, r.Country}
		if _, dup := idx.rows[k]; !dup {
			idx.rows[k] = r.Metrics
		}
	}
	for _, m := range meta {
		if _, dup := idx.meta[m.Country]; !dup {
			idx.meta[m.Country] = m
		}
	}
	return idx
}

// Join returns one Country per feature, in feature order.
func (idx *Index) Join(features []dataset.GeoFeature, year int) []Country {
	out := make([]Country, len(features))
	for i, f := range features {
		c := Country{Name: f.Name, Boundary: f.Boundary, Year: year}
		if m, ok := idx.meta[f.Name]; ok {
			c.Continent, c.Region = m.Continent, m.Region
		}
		if metrics, ok := idx.rows[rowKey{year, f.Name}]; ok {
			c.HasData = true
			c.metrics = metrics
		}
		out[i] = c
	}
	return out
}

// Meta returns the metadata of country.
func (idx *Index) Meta(country string) (dataset.CountryMeta, bool) {
	m, ok := idx.meta[country]
	return m, ok
}

// Join is the one-shot form of NewIndex followed by Index.Join.
func Join(features []dataset.GeoFeature, rows []dataset.MetricRecord, meta []dataset.CountryMeta, year int) []Country {
	return NewIndex(rows, meta).Join(features, year)
}
