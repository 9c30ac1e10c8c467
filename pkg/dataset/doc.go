// Package dataset loads and parses the inputs of the energy atlas.
//
// Five datasets are loaded once at startup by [LoadAll]:
//   - world boundaries (GeoJSON, one feature per country, keyed by display name)
//   - yearly metrics (CSV keyed by country and year)
//   - cities (CSV: country, name, coordinates, weather station)
//   - weather observations (CSV keyed by station and date)
//   - country metadata (CSV: continent and region)
//
// Per-country high-resolution boundaries are fetched on demand through a
// [BoundarySource]. All inputs are read through a [Source], which is either
// a local directory or a remote base URL served through the cached HTTP
// client.
//
// An empty metric cell is absent, not zero: [MetricRecord.Metrics] simply
// has no entry for it.
package dataset
