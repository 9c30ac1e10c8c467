package detail

import (
	"github.com/aclements/go-moremath/stats"

	"github.com/matzehuels/energyatlas/pkg/dataset"
)

// WeatherIndex holds the annual mean temperature per station for one year.
type WeatherIndex struct {
	year  int
	means map[string]float64
}

// NewWeatherIndex averages the observations of year per station.
func NewWeatherIndex(obs []dataset.WeatherObservation, year int) WeatherIndex {
	byStation := make(map[string][]float64)
	for _, o := range obs {
		if o.Year() == year {
			byStation[o.StationID] = append(byStation[o.StationID], o.AvgTempC)
		}
	}
	means := make(map[string]float64, len(byStation))
	for id, temps := range byStation {
		means[id] = stats.Mean(temps)
	}
	return WeatherIndex{year: year, means: means}
}

// Year returns the reference year.
func (w WeatherIndex) Year() int { return w.year }

// Mean returns the annual mean of station.
func (w WeatherIndex) Mean(station string) (float64, bool) {
	v, ok := w.means[station]
	return v, ok
}

// Hue maps a temperature to an HSL hue: 30°C and above is orange-red,
// -30°C is blue.
func Hue(tempC float64) float64 {
	return 30 + 240*(30-tempC)/60
}
