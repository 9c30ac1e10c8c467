package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the subtree sum below each label.
	Detailed bool
	// Metric names the summed metric in detailed labels.
	Metric string
}

// ToDOT converts a hierarchy to Graphviz DOT, one node per continent,
// region and country. Node IDs are slash-joined paths from the root, so two
// regions with the same name under different continents stay distinct.
// Countries are drawn filled to set them apart from the grouping levels.
func ToDOT(root *hierarchy.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	var edges []string
	var walk func(n *hierarchy.Node, id string)
	walk = func(n *hierarchy.Node, id string) {
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(n, opts), ", "))
		for _, c := range n.Children {
			cid := id + "/" + c.Name
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", id, cid))
			walk(c, cid)
		}
	}
	if root != nil {
		walk(root, root.Name)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *hierarchy.Node, opts Options) string {
	if !opts.Detailed {
		return n.Name
	}
	sum := strconv.FormatFloat(n.Sum(), 'f', -1, 64)
	if opts.Metric != "" {
		return n.Name + "\n" + opts.Metric + ": " + sum
	}
	return n.Name + "\n" + sum
}

func fmtAttrs(n *hierarchy.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts))}
	if n.Value != nil {
		attrs = append(attrs, "fillcolor=\"#ffcec5\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based root element with a plain
// pixel viewBox so the diagram scales like the other sinks.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
