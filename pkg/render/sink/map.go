package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/energyatlas/pkg/projection"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

// MapOption configures RenderMap.
type MapOption func(*mapRenderer)

type mapRenderer struct {
	width, height float64
	ocean         string
	disc          *projection.Disc
	tooltip       func(string) string
	blur          float64
	title         string
	interactive   bool
}

// WithSize sets the document size. Default 960x500.
func WithSize(w, h int) MapOption {
	return func(r *mapRenderer) { r.width, r.height = float64(w), float64(h) }
}

// WithOcean paints the background. A nil disc fills the whole surface (flat
// map); otherwise only the globe disc is painted.
func WithOcean(color string, disc *projection.Disc) MapOption {
	return func(r *mapRenderer) { r.ocean, r.disc = color, disc }
}

// WithTooltips attaches hover text to every shape.
func WithTooltips(fn func(key string) string) MapOption {
	return func(r *mapRenderer) { r.tooltip = fn }
}

// WithBlur blurs the map, as while a drill-down panel is open.
func WithBlur(px float64) MapOption { return func(r *mapRenderer) { r.blur = px } }

// WithTitle adds a <title> to the document.
func WithTitle(t string) MapOption { return func(r *mapRenderer) { r.title = t } }

// WithInteraction embeds the hover stylesheet and script.
func WithInteraction() MapOption { return func(r *mapRenderer) { r.interactive = true } }

// RenderMap writes shapes in frame order, which is also paint order.
func RenderMap(shapes []scene.Shape, opts ...MapOption) []byte {
	r := mapRenderer{width: 960, height: 500}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	header(&buf, r.width, r.height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	if r.blur > 0 {
		fmt.Fprintf(&buf, "  <defs><filter id=\"blur\"><feGaussianBlur stdDeviation=\"%s\"/></filter></defs>\n", num(r.blur))
		buf.WriteString("  <g id=\"map\" filter=\"url(#blur)\">\n")
	} else {
		buf.WriteString("  <g id=\"map\">\n")
	}

	switch {
	case r.ocean != "" && r.disc != nil:
		fmt.Fprintf(&buf, "    <circle class=\"ocean\" cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"%s\"/>\n",
			fixed(r.disc.CX), fixed(r.disc.CY), fixed(r.disc.R), EscapeXML(r.ocean))
	case r.ocean != "":
		fmt.Fprintf(&buf, "    <rect class=\"ocean\" width=\"%s\" height=\"%s\" fill=\"%s\"/>\n",
			num(r.width), num(r.height), EscapeXML(r.ocean))
	}

	for _, s := range shapes {
		renderShape(&buf, s, r.tooltip)
	}
	buf.WriteString("  </g>\n")

	if r.interactive {
		renderTooltipLayer(&buf)
		renderInteraction(&buf)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderShape(buf *bytes.Buffer, s scene.Shape, tooltip func(string) string) {
	if s.Path == "" {
		return
	}
	fmt.Fprintf(buf, "    <path class=\"country\" data-name=\"%s\" d=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%s\"",
		EscapeXML(s.Key), s.Path, EscapeXML(s.Fill), EscapeXML(s.Stroke), num(s.StrokeWidth))
	if s.NoData {
		buf.WriteString(" data-nodata=\"true\"")
	}
	if tooltip != nil {
		fmt.Fprintf(buf, " data-tooltip=\"%s\" data-dx=\"%d\" data-dy=\"%d\"",
			EscapeXML(tooltip(s.Key)), scene.TooltipDX, scene.TooltipDY)
	}
	buf.WriteString("/>\n")
}
