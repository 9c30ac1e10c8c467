package app

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/energyatlas/pkg/chart"
	"github.com/matzehuels/energyatlas/pkg/detail"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/formula"
	"github.com/matzehuels/energyatlas/pkg/observability"
	"github.com/matzehuels/energyatlas/pkg/playback"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

// drilldown is the state of the country panel. Each selection gets a new
// token; a fetch whose token is no longer current is discarded.
type drilldown struct {
	country string
	token   string
	cancel  context.CancelFunc
	status  DetailStatus
	panel   *detail.Scene

	from, to int
	formulas *formula.List
	series   []formula.Series
	title    string
}

func (d *drilldown) cancelPending() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *drilldown) reset() {
	d.cancelPending()
	d.country, d.token, d.status, d.panel = "", "", DetailNone, nil
	d.formulas, d.series, d.title = nil, nil, ""
}

// SelectCountry opens the drill-down panel for country. The boundary is
// fetched in the background; the result arrives as an EventDetail. A newer
// selection cancels an older pending one.
func (a *App) SelectCountry(country string) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkOpen(); err != nil {
		return Output{}, err
	}
	if !a.bundle.HasFeature(country) {
		return Output{}, apperrors.New(apperrors.ErrCodeCountryNotFound, "no country named %q on the map", country)
	}

	a.drill.reset()
	token := uuid.NewString()
	ctx, cancel := context.WithCancel(a.ctx)
	a.drill.country, a.drill.token, a.drill.cancel = country, token, cancel
	a.drill.status = DetailLoading
	a.drill.formulas = formula.NewList(a.cfg.Keys())

	out := a.output()
	out.Instructions = a.scene.Click(country)

	observability.Scene().OnDetailRequest(ctx, country, token)
	a.logger.Debug("drill-down requested", "country", country, "token", token)
	if a.detail == nil {
		a.drill.status = DetailEmpty
		return out, nil
	}
	go a.fetchDetail(ctx, token, country)
	return out, nil
}

func (a *App) fetchDetail(ctx context.Context, token, country string) {
	sc, err := a.detail.RenderCountryDetail(ctx, country, a.bundle.CitiesIn(country), a.bundle.Weather)

	a.mu.Lock()
	if a.drill.token != token {
		a.mu.Unlock()
		observability.Scene().OnDetailComplete(ctx, country, token, true, err)
		a.logger.Debug("discarding stale drill-down", "country", country, "token", token)
		return
	}
	a.drill.cancelPending()
	switch {
	case err == nil:
		a.drill.panel, a.drill.status = sc, DetailReady
	case apperrors.Is(err, apperrors.ErrCodeBoundaryNotFound):
		a.drill.status = DetailEmpty
		a.logger.Warn("no boundary for country", "country", country)
	default:
		a.drill.status = DetailEmpty
		a.logger.Error("drill-down failed", "country", country, "err", err)
	}
	ev := Event{Kind: EventDetail, Output: a.output(), Country: country, Detail: a.drill.status,
		Playing: a.play.State() == playback.Playing}
	a.mu.Unlock()

	observability.Scene().OnDetailComplete(ctx, country, token, false, err)
	a.dispatch(ev)
}

// DismissDetail closes the panel, cancelling a pending fetch.
func (a *App) DismissDetail() Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drill.reset()
	out := a.output()
	out.Instructions = a.scene.Dismiss()
	return out
}

// Detail returns the panel state, the selected country and the built panel
// (nil unless ready).
func (a *App) Detail() (DetailStatus, string, *detail.Scene) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drill.status, a.drill.country, a.drill.panel
}

// HoverCity enlarges a city marker in the panel and shows its tooltip.
func (a *App) HoverCity(city string, px, py float64) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	if a.drill.panel != nil {
		out.Instructions = a.drill.panel.Hover(city, px, py)
	}
	return out
}

// LeaveCity restores a city marker.
func (a *App) LeaveCity(city string) Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	if a.drill.panel != nil {
		out.Instructions = a.drill.panel.Leave(city)
	}
	return out
}

// SetSeriesRange sets the year range of plotted series.
func (a *App) SetSeriesRange(from, to int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if from > to {
		return apperrors.New(apperrors.ErrCodeInvalidYear, "start year %d after end year %d", from, to)
	}
	a.drill.from, a.drill.to = from, to
	return nil
}

// PlotFeatures builds one series per feature for the selected country. An
// empty list plots every metric.
func (a *App) PlotFeatures(features []string) (Output, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drill.country == "" {
		return Output{}, apperrors.New(apperrors.ErrCodeInvalidInput, "no country selected")
	}
	keys := a.cfg.Keys()
	if len(features) == 0 {
		features = keys
	}
	for _, f := range features {
		if !slices.Contains(keys, f) {
			return Output{}, apperrors.New(apperrors.ErrCodeInvalidMetric, "unknown feature %q", f)
		}
	}

	rows := a.bundle.Series(a.drill.country, a.drill.from, a.drill.to)
	a.drill.series = formula.FeatureSeries(rows, features)
	a.drill.title = chart.Title(a.drill.country, features)

	out := a.output()
	out.Series, out.Title = a.drill.series, a.drill.title
	return out, nil
}

// AddFormula appends a formula to the panel's list. It is parsed when
// plotted.
func (a *App) AddFormula(src string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drill.formulas == nil {
		return -1, apperrors.New(apperrors.ErrCodeInvalidInput, "no country selected")
	}
	return a.drill.formulas.Add(src)
}

// SelectFormula toggles whether formula i is plotted.
func (a *App) SelectFormula(i int, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drill.formulas != nil {
		a.drill.formulas.Select(i, on)
	}
}

// Formulas returns the entered formulas.
func (a *App) Formulas() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drill.formulas == nil {
		return nil
	}
	return a.drill.formulas.Items()
}

// PlotFormulas evaluates the selected formulas over the selected country's
// rows. A parse or evaluation error is reported as a single notification
// and leaves the previously plotted series in place.
func (a *App) PlotFormulas() Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.output()
	if a.drill.formulas == nil {
		out.Instructions = []scene.Instruction{notify(apperrors.New(apperrors.ErrCodeInvalidInput, "no country selected"))}
		return out
	}

	fs, err := a.drill.formulas.Compile()
	if err == nil && len(fs) == 0 {
		err = apperrors.New(apperrors.ErrCodeInvalidFormula, "no formulas selected")
	}
	var series []formula.Series
	if err == nil {
		series, err = formula.FormulaSeries(a.bundle.Series(a.drill.country, a.drill.from, a.drill.to), fs)
	}
	if err != nil {
		a.logger.Debug("formula rejected", "err", err)
		out.Instructions = []scene.Instruction{notify(err)}
		out.Series, out.Title = a.drill.series, a.drill.title
		return out
	}

	a.drill.series = series
	a.drill.title = chart.FormulaTitle(a.drill.country)
	out.Series, out.Title = series, a.drill.title
	return out
}

// Series returns the last plotted series and their chart title.
func (a *App) Series() ([]formula.Series, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drill.series, a.drill.title
}
