// Package app wires the core components into one interactive session.
//
// An [App] owns the shared [view.State] and serialises every control call
// through a single mutex, so surfaces (the HTTP server, the terminal UI,
// tests) can call it from any goroutine. Each control returns an [Output]
// describing what changed; work that completes later (playback ticks and
// drill-down fetches) is delivered to subscribers as [Event]s.
//
//	a, err := app.New(ctx, app.Options{Config: cfg, Bundle: bundle, Boundaries: src})
//	defer a.Close()
//	out, err := a.SetYear(2015)
//	tr, _ := a.SwitchView(view.Globe)
package app

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	"github.com/matzehuels/energyatlas/pkg/detail"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/formula"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/join"
	"github.com/matzehuels/energyatlas/pkg/observability"
	"github.com/matzehuels/energyatlas/pkg/playback"
	"github.com/matzehuels/energyatlas/pkg/projection"
	"github.com/matzehuels/energyatlas/pkg/scene"
	"github.com/matzehuels/energyatlas/pkg/view"
)

// Options configure a new App.
type Options struct {
	Config     *config.Config
	Bundle     *dataset.Bundle
	Boundaries dataset.BoundarySource
	Logger     *log.Logger

	// Year and Metric select the initial frame. Defaults: the first
	// configured metric and the start of its window.
	Year   int
	Metric string
	Mode   view.Mode
}

// Output describes the effect of one control call. Only the parts that
// changed are set.
type Output struct {
	Mode         view.Mode             `json:"mode"`
	Year         int                   `json:"year"`
	Metric       string                `json:"metric"`
	Instructions []scene.Instruction   `json:"instructions,omitempty"`
	View         *view.Transition      `json:"view,omitempty"`
	Diff         *scene.Diff           `json:"diff,omitempty"`
	Treemap      *hierarchy.Transition `json:"treemap,omitempty"`
	Series       []formula.Series      `json:"series,omitempty"`
	Title        string                `json:"title,omitempty"`
}

// DetailStatus is the state of the drill-down panel.
type DetailStatus int

const (
	DetailNone DetailStatus = iota
	DetailLoading
	DetailReady
	// DetailEmpty means the panel is open but has nothing to draw because
	// the boundary could not be loaded.
	DetailEmpty
)

func (s DetailStatus) String() string {
	switch s {
	case DetailLoading:
		return "loading"
	case DetailReady:
		return "ready"
	case DetailEmpty:
		return "empty"
	}
	return "none"
}

// MarshalText encodes the status by name.
func (s DetailStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// EventKind names an asynchronous event.
type EventKind string

const (
	// EventFrame is a frame rendered by a playback tick.
	EventFrame EventKind = "frame"
	// EventPlayback reports that playback stopped at the window end.
	EventPlayback EventKind = "playback"
	// EventDetail reports a finished drill-down fetch.
	EventDetail EventKind = "detail"
)

// Event is delivered to subscribers outside the App's lock.
type Event struct {
	Kind    EventKind    `json:"kind"`
	Output  Output       `json:"output"`
	Playing bool         `json:"playing"`
	Country string       `json:"country,omitempty"`
	Detail  DetailStatus `json:"detail,omitempty"`
}

// App is one interactive session.
type App struct {
	mu     sync.Mutex
	ctx    context.Context
	stop   context.CancelFunc
	closed bool

	cfg    *config.Config
	bundle *dataset.Bundle
	index  *join.Index
	logger *log.Logger

	state *view.State
	coord *view.Coordinator
	scene *scene.Controller
	play  *playback.Controller
	timer *playback.Timer
	// playGen identifies the running timer; ticks from older timers are dropped.
	playGen int
	detail  *detail.Renderer

	countries []join.Country
	root      *hierarchy.Node
	tiles     []hierarchy.Tile
	lastTrans hierarchy.Transition
	pending   Output // written by render callbacks

	drill drilldown

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New builds an App and renders the initial frame.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil || opts.Bundle == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "config and bundle are required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	metric := opts.Metric
	if metric == "" {
		metric = cfg.Keys()[0]
	}
	start, end, ok := cfg.Window(metric)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidMetric, "unknown metric %q", metric)
	}
	year := opts.Year
	if year == 0 {
		year = start
	}
	year = clampYear(year, start, end)

	pm := projection.NewManager(cfg.Viewport.Width, cfg.Viewport.Height, projection.Options{
		Sensitivity: cfg.Globe.Sensitivity,
		MinZoom:     cfg.Globe.MinZoom,
		MaxZoom:     cfg.Globe.MaxZoom,
	})

	ctx, stop := context.WithCancel(ctx)
	a := &App{
		ctx:    ctx,
		stop:   stop,
		cfg:    cfg,
		bundle: opts.Bundle,
		index:  join.NewIndex(opts.Bundle.Metrics, opts.Bundle.Meta),
		logger: logger,
		state: &view.State{
			Year:       year,
			Metric:     metric,
			TopN:       cfg.Treemap.TopN,
			Mode:       view.FlatMap,
			Projection: pm,
		},
		scene: scene.NewController(scene.Options{
			DomainMax: cfg.Map.DomainMax,
			Palette:   cfg.Map.Palette,
			Fallback:  cfg.Map.Fallback,
		}),
		timer: playback.NewTimer(cfg.Playback.Interval),
		subs:  make(map[int]func(Event)),
	}
	if opts.Boundaries != nil {
		a.detail = detail.NewRenderer(opts.Boundaries, detail.OptionsFrom(cfg.Detail))
	}
	a.drill.from, a.drill.to = cfg.Detail.SeriesStart, cfg.Detail.SeriesEnd
	a.coord = view.NewCoordinator(a.state, func(view.Mode) { a.pending = a.render() })
	a.play = playback.NewController(year, metric, cfg.Window, func(y int) {
		a.state.Year = y
		a.pending = a.render()
	})

	// The map scene is always populated so drill-down clicks resolve even
	// when the app starts in the treemap.
	a.render()
	if opts.Mode != view.FlatMap {
		a.coord.Switch(opts.Mode)
	}
	return a, nil
}

// Close stops playback, cancels any pending drill-down and drops all
// subscribers. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.stopTimer()
	a.play.Stop()
	a.drill.cancelPending()
	a.stop()

	a.subMu.Lock()
	clear(a.subs)
	a.subMu.Unlock()
	return nil
}

// Subscribe registers fn for asynchronous events and returns a function
// that removes it. fn runs on the goroutine that produced the event and must
// not block for long.
func (a *App) Subscribe(fn func(Event)) (unsubscribe func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
}

func (a *App) dispatch(ev Event) {
	a.subMu.Lock()
	ids := make([]int, 0, len(a.subs))
	for id := range a.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, a.subs[id])
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// render recomputes the active view. The caller holds a.mu.
func (a *App) render() Output {
	out := a.output()
	if a.state.ReloadRequired {
		out.Instructions = []scene.Instruction{reloadPrompt()}
		return out
	}

	hooks := observability.Scene()
	mode := a.state.Mode
	hooks.OnRenderStart(a.ctx, mode.String(), a.state.Metric, a.state.Year)
	start := time.Now()

	a.countries = a.index.Join(a.bundle.Features, a.state.Year)

	// The treemap layout tracks every render, visible or not.
	a.root = hierarchy.BuildHierarchy(a.countries, a.state.Metric, a.state.TopN)
	tiles := hierarchy.Layout(a.root, float64(a.cfg.Treemap.Width), float64(a.cfg.Treemap.Height),
		hierarchy.LayoutOptions{Padding: a.cfg.Treemap.Padding})
	tr := hierarchy.Reconcile(a.tiles, tiles)
	if a.cfg.Treemap.Transition > 0 {
		tr.Duration = a.cfg.Treemap.Transition
	}
	a.tiles, a.lastTrans = tiles, tr

	var n int
	if mode == view.Treemap {
		out.Treemap = &tr
		n = len(tiles)
	} else {
		d := a.scene.Render(a.countries, a.state.Metric, a.state.Projection.Current())
		out.Diff = &d
		n = len(a.scene.Frame())
	}

	hooks.OnRenderComplete(a.ctx, mode.String(), n, time.Since(start), nil)
	a.logger.Debug("rendered", "view", mode, "year", a.state.Year, "metric", a.state.Metric, "items", n)
	return out
}

func (a *App) output() Output {
	return Output{Mode: a.state.Mode, Year: a.state.Year, Metric: a.state.Metric}
}

func (a *App) checkOpen() error {
	if a.closed {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "session closed")
	}
	return nil
}

func reloadPrompt() scene.Instruction {
	return scene.Instruction{Op: scene.OpReloadPrompt, Text: "The window size changed. Reload to redraw the map."}
}

func notify(err error) scene.Instruction {
	return scene.Instruction{Op: scene.OpNotify, Text: apperrors.UserMessage(err)}
}

func clampYear(year, start, end int) int {
	return min(max(year, start), end)
}
