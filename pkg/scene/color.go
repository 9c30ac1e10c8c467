package scene

import (
	"math"
)

// Quantize maps v onto one of palette's colours over [0, domainMax] split
// into len(palette) equal buckets. Values above the domain use the top
// bucket and negative values the bottom one. Zero and NaN are not data
// and yield ok == false.
func Quantize(v, domainMax float64, palette []string) (color string, ok bool) {
	if v == 0 || math.IsNaN(v) || len(palette) == 0 || domainMax <= 0 {
		return "", false
	}
	n := len(palette)
	// Clamp before converting: int(+Inf) is undefined.
	f := math.Floor(float64(n) * v / domainMax)
	i := int(max(0, min(float64(n-1), f)))
	return palette[i], true
}
