// Package render turns retained scenes into output artifacts.
//
// # Overview
//
// The core packages ([scene], [detail], [hierarchy]) produce plain Go
// structs. This package and its subpackages serialise them:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - SVG and JSON sinks for the map, globe, treemap and drill-down panel
//     (in [sink])
//   - Node-link diagrams of the continent/region/country hierarchy (in
//     [nodelink])
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg := sink.RenderMap(ctrl.Frame(), sink.WithSize(1280, 720))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the treemap hierarchy as a Graphviz
// tree:
//
//	dot := nodelink.ToDOT(root, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [scene]: github.com/matzehuels/energyatlas/pkg/scene
// [detail]: github.com/matzehuels/energyatlas/pkg/detail
// [hierarchy]: github.com/matzehuels/energyatlas/pkg/hierarchy
// [sink]: github.com/matzehuels/energyatlas/pkg/render/sink
// [nodelink]: github.com/matzehuels/energyatlas/pkg/render/nodelink
package render
