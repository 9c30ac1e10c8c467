package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

const interactionCSS = `
    .country { transition: stroke 0.2s ease, stroke-width 0.2s ease; }
    .country:hover { stroke: orange; stroke-width: 2; }
    .city { cursor: pointer; }
    .city:hover { r: 7; }
    #tooltip { pointer-events: none; opacity: 0; transition: opacity 200ms; }
    #tooltip.visible { opacity: 0.9; }
    #tooltip rect { fill: white; stroke: #333; }
    #tooltip text { font: 12px sans-serif; }`

const interactionJS = `
    var tip = document.getElementById('tooltip');
    function showTip(ev, text, dx, dy) {
      var svg = tip.ownerSVGElement, pt = svg.createSVGPoint();
      pt.x = ev.clientX; pt.y = ev.clientY;
      pt = pt.matrixTransform(svg.getScreenCTM().inverse());
      var label = tip.querySelector('text');
      label.textContent = text;
      tip.setAttribute('transform', 'translate(' + (pt.x + dx) + ',' + (pt.y + dy) + ')');
      var bb = label.getBBox();
      var box = tip.querySelector('rect');
      box.setAttribute('x', bb.x - 4); box.setAttribute('y', bb.y - 2);
      box.setAttribute('width', bb.width + 8); box.setAttribute('height', bb.height + 4);
      tip.classList.add('visible');
    }
    function hideTip() { tip.classList.remove('visible'); }
    document.querySelectorAll('[data-tooltip]').forEach(function (el) {
      var dx = +el.dataset.dx, dy = +el.dataset.dy;
      el.addEventListener('mousemove', function (ev) { showTip(ev, el.dataset.tooltip, dx, dy); });
      el.addEventListener('mouseleave', hideTip);
    });`

func header(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(width), num(height), width, height)
}

func renderTooltipLayer(buf *bytes.Buffer) {
	buf.WriteString("  <g id=\"tooltip\"><rect rx=\"3\"/><text/></g>\n")
}

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", interactionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
