package app

import (
	"slices"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/observability"
	"github.com/matzehuels/energyatlas/pkg/playback"
	"github.com/matzehuels/energyatlas/pkg/scene"
	"github.com/matzehuels/energyatlas/pkg/view"
)

// State is a read-only copy of the session state.
type State struct {
	Year           int          `json:"year"`
	Metric         string       `json:"metric"`
	TopN           int          `json:"top_n"`
	Mode           view.Mode    `json:"mode"`
	Playing        bool         `json:"playing"`
	WindowStart    int          `json:"window_start"`
	WindowEnd      int          `json:"window_end"`
	ReloadRequired bool         `json:"reload_required,omitempty"`
	Detail         DetailStatus `json:"detail"`
	Country        string       `json:"country,omitempty"`
	Zoom           float64      `json:"zoom"`
}

// State returns a snapshot of the session state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	start, end := a.play.Window()
	return State{
		Year:           a.state.Year,
		Metric:         a.state.Metric,
		TopN:           a.state.TopN,
		Mode:           a.state.Mode,
		Playing:        a.play.State() == playback.Playing,
		WindowStart:    start,
		WindowEnd:      end,
		ReloadRequired: a.state.ReloadRequired,
		Detail:         a.drill.status,
		Country:        a.drill.country,
		Zoom:           a.state.Projection.ZoomFactor(),
	}
}

// Metrics returns the selectable metric keys.
func (a *App) Metrics() []string { return a.cfg.Keys() }

// Render re-renders the active view without changing any state.
func (a *App) Render() Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.render()
}

// SetYear moves to year, clamped to the current metric's window.
func (a *App) SetYear(year int) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return Output{}, err
	}
	start, end := a.play.Window()
	year = clampYear(year, start, end)
	a.state.Year = year
	a.play.SetYear(year)
	return a.render(), nil
}

// SetMetric switches the displayed metric. The year is kept even when it
// falls outside the new metric's window; starting playback resets it.
func (a *App) SetMetric(metric string) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return Output{}, err
	}
	if !slices.Contains(a.cfg.Keys(), metric) {
		return Output{}, apperrors.New(apperrors.ErrCodeInvalidMetric, "unknown metric %q", metric)
	}
	a.state.Metric = metric
	a.play.SetMetric(metric)
	return a.render(), nil
}

// SetTopN changes the number of countries in the treemap. The treemap is
// redrawn only while it is visible.
func (a *App) SetTopN(n int) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return Output{}, err
	}
	if n <= 0 {
		return Output{}, apperrors.New(apperrors.ErrCodeInvalidInput, "top-N must be positive, got %d", n)
	}
	a.state.TopN = n
	if a.state.Mode != view.Treemap {
		return a.output(), nil
	}
	return a.render(), nil
}

// SwitchView changes the visible scene. Switching to the current view
// returns an Output without a view transition.
func (a *App) SwitchView(mode view.Mode) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return Output{}, err
	}
	if !slices.Contains(view.Modes, mode) {
		return Output{}, apperrors.New(apperrors.ErrCodeInvalidView, "unknown view %d", int(mode))
	}
	a.pending = a.output()
	tr := a.coord.Switch(mode)
	if !tr.Changed() {
		return a.output(), nil
	}
	out := a.pending
	out.View = &tr
	return out, nil
}

// TogglePlay starts or stops the year animation and returns the new state.
func (a *App) TogglePlay() (playback.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return playback.Stopped, err
	}
	hooks := observability.Playback()
	st := a.play.Toggle()
	if st == playback.Playing {
		a.state.Year = a.play.Year()
		a.playGen++
		gen := a.playGen
		a.timer.Start(a.ctx, func() bool { return a.tick(gen) })
		hooks.OnPlaybackStart(a.ctx, a.state.Metric, a.state.Year)
		a.logger.Debug("playback started", "metric", a.state.Metric, "year", a.state.Year)
	} else {
		a.stopTimer()
		hooks.OnPlaybackStop(a.ctx, a.state.Metric, a.state.Year, false)
		a.logger.Debug("playback stopped", "year", a.state.Year)
	}
	return st, nil
}

// Tick advances playback by one step, as the timer does every interval.
// It reports whether playback is still running.
func (a *App) Tick() bool {
	a.mu.Lock()
	gen := a.playGen
	a.mu.Unlock()
	return a.tick(gen)
}

// tick runs one playback step for the timer started as generation gen.
// Ticks from a timer that was stopped or replaced are dropped.
func (a *App) tick(gen int) bool {
	a.mu.Lock()
	if a.closed || gen != a.playGen {
		a.mu.Unlock()
		return false
	}
	a.pending = a.output()
	res := a.play.Tick()
	a.state.Year = a.play.Year()

	var ev *Event
	switch {
	case res.Rendered:
		observability.Playback().OnPlaybackTick(a.ctx, a.state.Metric, res.Year)
		ev = &Event{Kind: EventFrame, Output: a.pending, Playing: true}
	case res.Stopped:
		a.stopTimer()
		observability.Playback().OnPlaybackStop(a.ctx, a.state.Metric, a.state.Year, true)
		a.logger.Debug("playback reached window end", "year", a.state.Year)
		ev = &Event{Kind: EventPlayback, Output: a.output()}
	}
	playing := a.play.State() == playback.Playing
	a.mu.Unlock()

	if ev != nil {
		a.dispatch(*ev)
	}
	return playing
}

func (a *App) stopTimer() {
	a.timer.Stop()
	a.playGen++
}

// Hover highlights a country on the map.
func (a *App) Hover(name string, px, py float64) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	out.Instructions = a.scene.Hover(name, px, py)
	return out
}

// Leave clears the hover highlight of a country.
func (a *App) Leave(name string) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	out.Instructions = a.scene.Leave(name)
	return out
}

// Drag rotates the globe or pans the flat map by a pointer delta. It does
// nothing on the treemap.
func (a *App) Drag(dx, dy float64) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.state.Mode == view.Treemap {
		return a.output()
	}
	a.state.Projection.Drag(dx, dy)
	return a.render()
}

// Zoom sets the zoom factor relative to the initial scale, clamped to the
// configured bounds.
func (a *App) Zoom(k float64) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.state.Mode == view.Treemap {
		return a.output()
	}
	a.state.Projection.Zoom(k)
	return a.render()
}

// Resize reports a new viewport size. Layout is computed once from the
// startup size, so any change marks the session reload-required, stops
// playback and returns a reload prompt. Later renders keep returning it.
func (a *App) Resize(width, height int) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	if width == a.cfg.Viewport.Width && height == a.cfg.Viewport.Height && !a.state.ReloadRequired {
		return out
	}
	a.state.ReloadRequired = true
	if a.play.Stop() {
		a.stopTimer()
		observability.Playback().OnPlaybackStop(a.ctx, a.state.Metric, a.state.Year, false)
	}
	a.logger.Warn("viewport resized, reload required", "width", width, "height", height)
	out.Instructions = []scene.Instruction{reloadPrompt()}
	return out
}
