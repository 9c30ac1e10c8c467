// Package playback advances the selected year on a timer.
//
// [Controller] is the Stopped/Playing state machine; it is driven by
// [Timer], the only recurring background task of the application.
package playback

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// WindowFunc returns the [start, end] years of a metric.
type WindowFunc func(metric string) (start, end int, ok bool)

// TickResult reports what a tick did.
type TickResult struct {
	// Rendered is true when the render callback ran for Year.
	Rendered bool
	// Year is the year rendered, or the current year on auto-stop.
	Year int
	// Stopped is true when the tick reached the window end and stopped.
	Stopped bool
}

// Controller holds the playback state, the current year and metric. It is
// not safe for concurrent use; the application serialises access.
type Controller struct {
	state   State
	year    int
	metric  string
	windows WindowFunc
	render  func(year int)
}

// NewController creates a stopped Controller. render is invoked by Tick
// for each played year.
func NewController(year int, metric string, windows WindowFunc, render func(year int)) *Controller {
	if render == nil {
		render = func(int) {}
	}
	return &Controller{year: year, metric: metric, windows: windows, render: render}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Year returns the current year.
func (c *Controller) Year() int { return c.year }

// Metric returns the current metric.
func (c *Controller) Metric() string { return c.metric }

// SetYear sets the current year.
func (c *Controller) SetYear(year int) { c.year = year }

// SetMetric changes the metric without touching the year.
func (c *Controller) SetMetric(metric string) { c.metric = metric }

// Window returns the window of the current metric.
func (c *Controller) Window() (start, end int) {
	start, end, ok := c.windows(c.metric)
	if !ok {
		return c.year, c.year
	}
	return start, end
}

// Start begins playing. If the current year is outside the metric's window
// it is first reset to the window start. Starting while playing is a
// no-op; Start reports whether the state changed.
func (c *Controller) Start() bool {
	if c.state == Playing {
		return false
	}
	start, end := c.Window()
	if c.year < start || c.year > end {
		c.year = start
	}
	c.state = Playing
	return true
}

// Stop stops playing and reports whether the state changed.
func (c *Controller) Stop() bool {
	if c.state == Stopped {
		return false
	}
	c.state = Stopped
	return true
}

// Toggle starts or stops playback and returns the new state.
func (c *Controller) Toggle() State {
	if c.state == Playing {
		c.Stop()
	} else {
		c.Start()
	}
	return c.state
}

// Tick advances one step. While playing, a year at or past the window end
// stops playback; otherwise the current year is rendered and then
// incremented. Ticks while stopped do nothing.
func (c *Controller) Tick() TickResult {
	if c.state != Playing {
		return TickResult{Year: c.year}
	}
	_, end := c.Window()
	if c.year >= end {
		c.state = Stopped
		return TickResult{Year: c.year, Stopped: true}
	}
	year := c.year
	c.render(year)
	c.year++
	return TickResult{Rendered: true, Year: year}
}
