package app

import (
	"io"
	"strconv"

	"github.com/matzehuels/energyatlas/pkg/chart"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/projection"
	"github.com/matzehuels/energyatlas/pkg/render/sink"
	"github.com/matzehuels/energyatlas/pkg/scene"
	"github.com/matzehuels/energyatlas/pkg/view"
)

// Frame returns the JSON form of the visible view, including the open
// drill-down panel.
func (a *App) Frame() sink.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	f := sink.Frame{
		View:    a.state.Mode.String(),
		Year:    a.state.Year,
		Metric:  a.state.Metric,
		Detail:  a.drill.panel,
		Blurred: a.drill.country != "",
	}
	if a.state.Mode == view.Treemap {
		f.Width, f.Height = float64(a.cfg.Treemap.Width), float64(a.cfg.Treemap.Height)
		f.Tiles = a.tiles
		tr := a.lastTrans
		f.Transition = &tr
		return f
	}

	f.Width, f.Height = float64(a.cfg.Viewport.Width), float64(a.cfg.Viewport.Height)
	p := a.state.Projection.Current()
	f.Projection = &p
	f.Shapes = a.scene.Frame()
	f.Ocean = &sink.Ocean{Color: a.cfg.Map.Ocean}
	if disc, ok := a.state.Projection.OceanDisc(); ok && a.state.Mode == view.Globe {
		f.Ocean.Disc = &disc
	}
	return f
}

// SVG renders the visible view as a standalone SVG document.
func (a *App) SVG(interactive bool) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	title := a.state.Metric + " " + strconv.Itoa(a.state.Year)
	if a.state.Mode == view.Treemap {
		return sink.RenderTreemap(a.tiles,
			sink.WithTreemapSize(a.cfg.Treemap.Width, a.cfg.Treemap.Height),
			sink.WithTransition(a.lastTrans),
			sink.WithTreemapTitle(title))
	}

	var disc *projection.Disc
	if d, ok := a.state.Projection.OceanDisc(); ok && a.state.Mode == view.Globe {
		disc = &d
	}
	opts := []sink.MapOption{
		sink.WithSize(a.cfg.Viewport.Width, a.cfg.Viewport.Height),
		sink.WithOcean(a.cfg.Map.Ocean, disc),
		sink.WithTooltips(a.scene.Tooltip),
		sink.WithTitle(title),
	}
	if a.drill.country != "" {
		opts = append(opts, sink.WithBlur(scene.DetailBlur))
	}
	if interactive {
		opts = append(opts, sink.WithInteraction())
	}
	return sink.RenderMap(a.scene.Frame(), opts...)
}

// DetailSVG renders the drill-down panel. It fails unless the panel is
// ready.
func (a *App) DetailSVG(interactive bool) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drill.panel == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "no drill-down panel (%s)", a.drill.status)
	}
	return sink.RenderDetail(a.drill.panel, interactive), nil
}

// ChartSVG draws the last plotted series to w.
func (a *App) ChartSVG(w io.Writer, opts chart.Options) error {
	series, title := a.Series()
	if len(series) == 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, "nothing plotted")
	}
	return chart.WriteSVG(w, title, series, opts)
}

// Hierarchy returns the treemap tree for the current year and metric.
func (a *App) Hierarchy() *hierarchy.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hierarchy.BuildHierarchy(a.countries, a.state.Metric, a.state.TopN)
}
