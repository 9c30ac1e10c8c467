package dataset

import (
	"github.com/biter777/countries"
)

const unknownMeta = "Unknown"

// BuiltinMeta derives continent metadata for the world map features from
// the ISO country database. It is used when no metadata file is configured.
// The database has no sub-regions, so Region repeats the continent.
func BuiltinMeta(features []GeoFeature) []CountryMeta {
	out := make([]CountryMeta, 0, len(features))
	for _, f := range features {
		continent := unknownMeta
		if code := countries.ByName(f.Name); code != countries.Unknown {
			if r := code.Region().String(); r != countries.UnknownMsg && r != "None" {
				continent = r
			}
		}
		out = append(out, CountryMeta{Country: f.Name, Continent: continent, Region: continent})
	}
	return out
}
