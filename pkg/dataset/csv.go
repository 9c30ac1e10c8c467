package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// table is a CSV file with a header row, addressed by column name.
type table struct {
	cols map[string]int
	rows [][]string
	name string
}

func readTable(r io.Reader, name string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.New(apperrors.ErrCodeDatasetLoad, "%s: empty file", name)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatasetLoad, err, "%s: read header", name)
	}

	t := &table{cols: make(map[string]int, len(header)), name: name}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.cols[strings.ToLower(h)] = i
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatasetLoad, err, "%s: read rows", name)
	}
	t.rows = rows
	return t, nil
}

// column returns the index of the first header matching one of names.
func (t *table) column(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.cols[n]; ok {
			return i, nil
		}
	}
	return 0, apperrors.New(apperrors.ErrCodeDatasetLoad, "%s: missing column %q", t.name, names[0])
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a cell; empty and non-numeric cells are absent.
func number(row []string, i int) (float64, bool) {
	s := cell(row, i)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadMetrics parses the yearly metrics table. Columns "country" and "year"
// are required; each key in metrics is read when its column exists.
func ReadMetrics(r io.Reader, metrics []string) ([]MetricRecord, error) {
	t, err := readTable(r, "metrics")
	if err != nil {
		return nil, err
	}
	countryCol, err := t.column("country")
	if err != nil {
		return nil, err
	}
	yearCol, err := t.column("year")
	if err != nil {
		return nil, err
	}

	type metricCol struct {
		key string
		idx int
	}
	var mcols []metricCol
	for _, k := range metrics {
		if i, ok := t.cols[k]; ok {
			mcols = append(mcols, metricCol{k, i})
		}
	}

	out := make([]MetricRecord, 0, len(t.rows))
	for line, row := range t.rows {
		country := cell(row, countryCol)
		if country == "" {
			continue
		}
		year, err := strconv.Atoi(cell(row, yearCol))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeDatasetLoad, err, "metrics: line %d: bad year", line+2)
		}
		rec := MetricRecord{Country: country, Year: year, Metrics: make(map[string]float64, len(mcols))}
		for _, mc := range mcols {
			if v, ok := number(row, mc.idx); ok {
				rec.Metrics[mc.key] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadMeta parses the country metadata table (country, continent, region).
func ReadMeta(r io.Reader) ([]CountryMeta, error) {
	t, err := readTable(r, "meta")
	if err != nil {
		return nil, err
	}
	countryCol, err := t.column("country", "name")
	if err != nil {
		return nil, err
	}
	continentCol, err := t.column("continent")
	if err != nil {
		return nil, err
	}
	regionCol, err := t.column("region", "sub-region", "subregion")
	if err != nil {
		return nil, err
	}

	out := make([]CountryMeta, 0, len(t.rows))
	for _, row := range t.rows {
		m := CountryMeta{
			Country:   cell(row, countryCol),
			Continent: cell(row, continentCol),
			Region:    cell(row, regionCol),
		}
		if m.Country != "" {
			out = append(out, m)
		}
	}
	return out, nil
}

// ReadCities parses the city table. Rows with unparsable coordinates are
// skipped.
func ReadCities(r io.Reader) ([]CityRecord, error) {
	t, err := readTable(r, "cities")
	if err != nil {
		return nil, err
	}
	countryCol, err := t.column("country")
	if err != nil {
		return nil, err
	}
	nameCol, err := t.column("city_name", "city", "name")
	if err != nil {
		return nil, err
	}
	lonCol, err := t.column("longitude", "lon", "lng")
	if err != nil {
		return nil, err
	}
	latCol, err := t.column("latitude", "lat")
	if err != nil {
		return nil, err
	}
	stationCol, err := t.column("station_id", "station")
	if err != nil {
		return nil, err
	}

	out := make([]CityRecord, 0, len(t.rows))
	for _, row := range t.rows {
		lon, okLon := number(row, lonCol)
		lat, okLat := number(row, latCol)
		if !okLon || !okLat {
			continue
		}
		out = append(out, CityRecord{
			Country:   cell(row, countryCol),
			Name:      cell(row, nameCol),
			Lon:       lon,
			Lat:       lat,
			StationID: cell(row, stationCol),
		})
	}
	return out, nil
}

// ReadWeather parses station observations. Rows without a temperature are
// skipped.
func ReadWeather(r io.Reader) ([]WeatherObservation, error) {
	t, err := readTable(r, "weather")
	if err != nil {
		return nil, err
	}
	stationCol, err := t.column("station_id", "station")
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column("date", "time")
	if err != nil {
		return nil, err
	}
	tempCol, err := t.column("avg_temp_c", "tavg", "avg_temp")
	if err != nil {
		return nil, err
	}

	out := make([]WeatherObservation, 0, len(t.rows))
	for _, row := range t.rows {
		temp, ok := number(row, tempCol)
		if !ok {
			continue
		}
		out = append(out, WeatherObservation{
			StationID: cell(row, stationCol),
			Date:      cell(row, dateCol),
			AvgTempC:  temp,
		})
	}
	return out, nil
}

func sortByYear(rows []MetricRecord) {
	slices.SortStableFunc(rows, func(a, b MetricRecord) int { return a.Year - b.Year })
}
