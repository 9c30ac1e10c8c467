package pipeline

import (
	"context"

	"github.com/matzehuels/energyatlas/pkg/app"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/render"
	"github.com/matzehuels/energyatlas/pkg/render/nodelink"
	"github.com/matzehuels/energyatlas/pkg/render/sink"
)

// Render writes the scene of a in every format of opts. With opts.Country
// set, the image formats show the drill-down panel instead of the map.
// DOT always describes the treemap hierarchy for the current year and
// metric.
func Render(ctx context.Context, a *app.App, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	image := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		if opts.Country != "" {
			svg, err = a.DetailSVG(opts.Interactive)
		} else {
			svg = a.SVG(opts.Interactive)
		}
		return svg, err
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = image()
		case FormatPNG:
			if data, err = image(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = image(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatJSON:
			data, err = sink.RenderJSON(a.Frame())
		case FormatDOT:
			data = []byte(nodelink.ToDOT(a.Hierarchy(), nodelink.Options{
				Detailed: opts.Detailed,
				Metric:   a.State().Metric,
			}))
		default:
			return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			code := apperrors.GetCode(err)
			if code == "" {
				code = apperrors.ErrCodeInternal
			}
			return nil, apperrors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
