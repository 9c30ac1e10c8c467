package sink

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/energyatlas/pkg/hierarchy"
)

// Category10 colours continents in order of first appearance.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// ContinentColors assigns a Category10 colour to every continent in tiles.
func ContinentColors(tiles []hierarchy.Tile) map[string]string {
	colors := make(map[string]string)
	for _, t := range tiles {
		if _, ok := colors[t.Continent]; !ok {
			colors[t.Continent] = Category10[len(colors)%len(Category10)]
		}
	}
	return colors
}

// TreemapOption configures RenderTreemap.
type TreemapOption func(*treemapRenderer)

type treemapRenderer struct {
	width, height float64
	transition    *hierarchy.Transition
	title         string
}

// WithTreemapSize sets the document size. Defaults to the tiles' extent.
func WithTreemapSize(w, h int) TreemapOption {
	return func(r *treemapRenderer) { r.width, r.height = float64(w), float64(h) }
}

// WithTransition animates from the previous frame with SMIL. Exiting tiles
// are drawn fading out in place.
func WithTransition(tr hierarchy.Transition) TreemapOption {
	return func(r *treemapRenderer) { r.transition = &tr }
}

// WithTreemapTitle adds a <title> to the document.
func WithTreemapTitle(t string) TreemapOption {
	return func(r *treemapRenderer) { r.title = t }
}

// RenderTreemap draws leaves as coloured rectangles labelled with the
// country name and groups as outlines.
func RenderTreemap(tiles []hierarchy.Tile, opts ...TreemapOption) []byte {
	r := treemapRenderer{}
	for _, t := range tiles {
		r.width = max(r.width, t.X1)
		r.height = max(r.height, t.Y1)
	}
	for _, opt := range opts {
		opt(&r)
	}

	from := map[string]hierarchy.Tile{}
	kinds := map[string]hierarchy.ChangeKind{}
	var exits []hierarchy.Tile
	dur := hierarchy.TransitionDuration
	if r.transition != nil {
		dur = r.transition.Duration
		for _, c := range r.transition.Changes {
			from[c.Key], kinds[c.Key] = c.From, c.Kind
			if c.Kind == hierarchy.Exit {
				exits = append(exits, c.From)
			}
		}
	}

	all := append(append([]hierarchy.Tile(nil), tiles...), exits...)
	colors := ContinentColors(all)

	var buf bytes.Buffer
	header(&buf, r.width, r.height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	buf.WriteString("  <g id=\"treemap\">\n")
	for _, t := range all {
		f, animated := from[t.Key]
		to := t
		if kinds[t.Key] == hierarchy.Exit {
			to = f
			to.Opacity = 0
		}
		var a *animation
		if animated {
			a = &animation{from: f, ms: dur.Milliseconds()}
		}
		renderTile(&buf, to, colors[t.Continent], a)
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

type animation struct {
	from hierarchy.Tile
	ms   int64
}

// animate writes a SMIL <animate> with cubic in-out easing, or nothing when
// the attribute does not change.
func (a *animation) animate(buf *bytes.Buffer, indent, attr string, from, to float64) {
	if a == nil || from == to {
		return
	}
	fmt.Fprintf(buf, "%s<animate attributeName=\"%s\" from=\"%s\" to=\"%s\" dur=\"%dms\" fill=\"freeze\" calcMode=\"spline\" keyTimes=\"0;1\" keySplines=\"0.65 0 0.35 1\"/>\n",
		indent, attr, fixed(from), fixed(to), a.ms)
}

func renderTile(buf *bytes.Buffer, t hierarchy.Tile, color string, a *animation) {
	class, fill := "group", "none"
	if t.Leaf {
		class, fill = "leaf", color
	}
	var f hierarchy.Tile
	if a != nil {
		f = a.from
	}

	fmt.Fprintf(buf, "    <g class=\"%s\" data-key=\"%s\" opacity=\"%s\">\n", class, EscapeXML(t.Key), num(t.Opacity))
	a.animate(buf, "      ", "opacity", f.Opacity, t.Opacity)

	fmt.Fprintf(buf, "      <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\" stroke=\"white\">\n",
		fixed(t.X0), fixed(t.Y0), fixed(t.Width()), fixed(t.Height()), fill)
	a.animate(buf, "        ", "x", f.X0, t.X0)
	a.animate(buf, "        ", "y", f.Y0, t.Y0)
	a.animate(buf, "        ", "width", f.Width(), t.Width())
	a.animate(buf, "        ", "height", f.Height(), t.Height())
	buf.WriteString("      </rect>\n")

	if t.Leaf {
		fmt.Fprintf(buf, "      <text x=\"%s\" y=\"%s\" font-size=\"11\" fill=\"white\">\n", fixed(t.X0+4), fixed(t.Y0+13))
		a.animate(buf, "        ", "x", f.X0+4, t.X0+4)
		a.animate(buf, "        ", "y", f.Y0+13, t.Y0+13)
		fmt.Fprintf(buf, "        %s: %s\n      </text>\n", EscapeXML(t.Name), strconv.FormatFloat(t.Value, 'f', -1, 64))
	}
	buf.WriteString("    </g>\n")
}
