// Package sink serialises retained scenes to SVG and JSON.
//
// Each Render function takes the plain structs produced by the core
// packages and writes a standalone document. SVG output embeds a small
// stylesheet and script so hover and click behave in a browser the same way
// the instruction stream describes them:
//
//	svg := sink.RenderMap(ctrl.Frame(),
//		sink.WithSize(1280, 720),
//		sink.WithOcean("#a2d5f2", nil),
//		sink.WithTooltips(ctrl.Tooltip),
//	)
//
// Functions here never fail; JSON encoding is the only fallible path and
// returns its error.
package sink
