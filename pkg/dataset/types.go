package dataset

import (
	"github.com/paulmach/orb"
)

// GeoFeature is one country outline of the world map.
type GeoFeature struct {
	Name     string
	Boundary orb.Geometry
}

// MetricRecord holds the metrics of one country in one year.
// A metric missing from Metrics is absent.
type MetricRecord struct {
	Country string
	Year    int
	Metrics map[string]float64
}

// Value returns the metric and whether it is present.
func (r MetricRecord) Value(metric string) (float64, bool) {
	v, ok := r.Metrics[metric]
	return v, ok
}

// CountryMeta places a country in the continent/region hierarchy.
type CountryMeta struct {
	Country   string
	Continent string
	Region    string
}

// CityRecord is a city with the weather station that reports for it.
type CityRecord struct {
	Country   string
	Name      string
	Lon       float64
	Lat       float64
	StationID string
}

// WeatherObservation is one daily (or annual) station reading.
type WeatherObservation struct {
	StationID string
	Date      string
	AvgTempC  float64
}

// Year returns the year prefix of Date, or 0 if Date does not start with one.
func (o WeatherObservation) Year() int {
	if len(o.Date) < 4 {
		return 0
	}
	y := 0
	for _, c := range o.Date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		y = y*10 + int(c-'0')
	}
	return y
}

// Bundle is the complete startup dataset.
type Bundle struct {
	Features    []GeoFeature
	Metrics     []MetricRecord
	Cities      []CityRecord
	Weather     []WeatherObservation
	Meta        []CountryMeta
	Fingerprint string
}

// CitiesIn returns the cities whose country equals country exactly.
func (b *Bundle) CitiesIn(country string) []CityRecord {
	var out []CityRecord
	for _, c := range b.Cities {
		if c.Country == country {
			out = append(out, c)
		}
	}
	return out
}

// Series returns the rows of country within [from, to], ordered by year.
func (b *Bundle) Series(country string, from, to int) []MetricRecord {
	var out []MetricRecord
	for _, r := range b.Metrics {
		if r.Country == country && r.Year >= from && r.Year <= to {
			out = append(out, r)
		}
	}
	sortByYear(out)
	return out
}

// HasFeature reports whether the world map contains country.
func (b *Bundle) HasFeature(country string) bool {
	for _, f := range b.Features {
		if f.Name == country {
			return true
		}
	}
	return false
}
