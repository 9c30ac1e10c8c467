// Package nodelink renders the treemap hierarchy as a node-link diagram.
//
// The continent → region → country tree behind the treemap is drawn left to
// right with Graphviz, one box per node. It is an alternative export for
// readers who want the grouping rather than the areas.
//
//	root := hierarchy.BuildHierarchy(countries, "gdp", 10)
//	dot := nodelink.ToDOT(root, nodelink.Options{Detailed: true, Metric: "gdp"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG output go through rsvg-convert (see [RenderPDF] and
// [RenderPNG]).
package nodelink
