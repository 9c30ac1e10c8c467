package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/energyatlas/pkg/detail"
)

// RenderDetail draws the drill-down panel: the grey outline, the weather
// cells clipped to it, and one marker per city.
func RenderDetail(sc *detail.Scene, interactive bool) []byte {
	var buf bytes.Buffer
	header(&buf, sc.Width, sc.Height)
	fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(sc.Country))
	fmt.Fprintf(&buf, "  <defs><clipPath id=\"%s\"><path d=\"%s\"/></clipPath></defs>\n", sc.ClipID, sc.Outline)

	fmt.Fprintf(&buf, "  <g clip-path=\"url(#%s)\">\n", sc.ClipID)
	fmt.Fprintf(&buf, "    <path class=\"outline\" d=\"%s\" fill=\"%s\"/>\n", sc.Outline, EscapeXML(sc.OutlineFill))
	for _, c := range sc.Cells {
		fill := "none"
		if c.Colored {
			fill = c.Fill
		}
		fmt.Fprintf(&buf, "    <path class=\"cell\" data-city=\"%s\" d=\"%s\" fill=\"%s\" fill-opacity=\"0.6\" stroke=\"%s\"",
			EscapeXML(c.City), c.Path, fill, EscapeXML(c.Stroke))
		if c.Colored {
			fmt.Fprintf(&buf, " data-temp=\"%s\"", fixed(c.TempC))
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("  </g>\n")

	for _, m := range sc.Markers {
		fmt.Fprintf(&buf, "  <circle class=\"city\" cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"%s\"",
			fixed(m.X), fixed(m.Y), num(m.R), detail.MarkerFill)
		if interactive {
			fmt.Fprintf(&buf, " data-tooltip=\"City: %s\" data-dx=\"10\" data-dy=\"10\"", EscapeXML(m.City))
		}
		buf.WriteString("/>\n")
	}

	if interactive {
		renderTooltipLayer(&buf)
		renderInteraction(&buf)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
