// Package detail builds the drill-down panel of one country: its outline
// fitted to the panel, one marker per city, and a Voronoi partition of the
// panel coloured by each city's annual mean temperature.
//
// [Build] is pure and works on an already loaded boundary. [Renderer]
// fetches the boundary from a [dataset.BoundarySource] first.
package detail
