package scene

import (
	"strconv"

	"github.com/matzehuels/energyatlas/pkg/join"
	"github.com/matzehuels/energyatlas/pkg/projection"
)

// Options configure the colour encoding.
type Options struct {
	DomainMax float64
	Palette   []string
	Fallback  string
}

// Shape is the retained state of one country on the map.
type Shape struct {
	Key         string  `json:"key"`
	Path        string  `json:"path"`
	Fill        string  `json:"fill"`
	NoData      bool    `json:"no_data,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"stroke_width"`
}

// Diff lists the keys touched by a Render, each in shape order.
type Diff struct {
	Entered []string `json:"entered,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Exited  []string `json:"exited,omitempty"`
}

// Empty reports whether the render changed nothing.
func (d Diff) Empty() bool {
	return len(d.Entered) == 0 && len(d.Updated) == 0 && len(d.Exited) == 0
}

// Controller owns the map shapes. It is not safe for concurrent use.
type Controller struct {
	opts   Options
	shapes []*Shape
	byKey  map[string]*Shape
	metric string
	detail string
}

// NewController creates an empty Controller.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts, byKey: make(map[string]*Shape)}
}

// Render binds countries to shapes by name. Existing shapes are updated in
// place and keep their position; new ones are appended in input order and
// shapes whose country disappeared are removed. A shape counts as updated
// only when its path, fill or value changed.
func (c *Controller) Render(countries []join.Country, metric string, proj projection.Projection) Diff {
	var d Diff
	c.metric = metric

	seen := make(map[string]bool, len(countries))
	for _, country := range countries {
		if seen[country.Name] {
			continue
		}
		seen[country.Name] = true

		next := c.shapeFor(country, metric, proj)
		if s, ok := c.byKey[country.Name]; ok {
			if s.Path != next.Path || s.Fill != next.Fill || s.Value != next.Value || s.NoData != next.NoData {
				s.Path, s.Fill, s.Value, s.NoData = next.Path, next.Fill, next.Value, next.NoData
				d.Updated = append(d.Updated, s.Key)
			}
			continue
		}
		c.shapes = append(c.shapes, &next)
		c.byKey[next.Key] = &next
		d.Entered = append(d.Entered, next.Key)
	}

	kept := c.shapes[:0]
	for _, s := range c.shapes {
		if seen[s.Key] {
			kept = append(kept, s)
			continue
		}
		delete(c.byKey, s.Key)
		d.Exited = append(d.Exited, s.Key)
	}
	c.shapes = kept
	return d
}

func (c *Controller) shapeFor(country join.Country, metric string, proj projection.Projection) Shape {
	s := Shape{
		Key:         country.Name,
		Path:        proj.PathFor(country.Boundary),
		Stroke:      StrokeColor,
		StrokeWidth: StrokeWidth,
	}
	v, ok := country.Value(metric)
	fill, bucketed := Quantize(v, c.opts.DomainMax, c.opts.Palette)
	if !ok || !bucketed {
		s.Fill, s.NoData = c.opts.Fallback, true
		return s
	}
	s.Fill, s.Value = fill, v
	return s
}

// Frame returns a copy of the shapes in render order.
func (c *Controller) Frame() []Shape {
	out := make([]Shape, len(c.shapes))
	for i, s := range c.shapes {
		out[i] = *s
	}
	return out
}

// Shape returns the shape of country.
func (c *Controller) Shape(name string) (Shape, bool) {
	s, ok := c.byKey[name]
	if !ok {
		return Shape{}, false
	}
	return *s, true
}

// Metric returns the metric of the last Render.
func (c *Controller) Metric() string { return c.metric }

// Tooltip returns "<name> - <metric>: <value or N/A>".
func (c *Controller) Tooltip(name string) string {
	value := "N/A"
	if s, ok := c.byKey[name]; ok && !s.NoData {
		value = strconv.FormatFloat(s.Value, 'f', -1, 64)
	}
	return name + " - " + c.metric + ": " + value
}

// Hover highlights the shape under the pointer at (px, py).
func (c *Controller) Hover(name string, px, py float64) []Instruction {
	s, ok := c.byKey[name]
	if !ok {
		return nil
	}
	s.Stroke, s.StrokeWidth = HoverStrokeColor, HoverStrokeWidth
	return []Instruction{
		{Op: OpStroke, Target: name, Color: HoverStrokeColor, Width: HoverStrokeWidth},
		{Op: OpShowTooltip, Target: name, Text: c.Tooltip(name), X: px + TooltipDX, Y: py + TooltipDY, FadeMs: TooltipFadeMs},
	}
}

// Leave reverts the hover highlight.
func (c *Controller) Leave(name string) []Instruction {
	s, ok := c.byKey[name]
	if !ok {
		return []Instruction{{Op: OpHideTooltip}}
	}
	s.Stroke, s.StrokeWidth = StrokeColor, StrokeWidth
	return []Instruction{
		{Op: OpStroke, Target: name, Color: StrokeColor, Width: StrokeWidth},
		{Op: OpHideTooltip},
	}
}

// Click opens the drill-down for name and blurs the base map. Clicking a
// country replaces any open drill-down.
func (c *Controller) Click(name string) []Instruction {
	if _, ok := c.byKey[name]; !ok {
		return nil
	}
	c.detail = name
	return []Instruction{
		{Op: OpHideTooltip},
		{Op: OpBlur, Blur: DetailBlur, On: true},
		{Op: OpOpenDetail, Target: name},
	}
}

// Dismiss closes the drill-down and removes the blur. It is a no-op when
// nothing is open.
func (c *Controller) Dismiss() []Instruction {
	if c.detail == "" {
		return nil
	}
	name := c.detail
	c.detail = ""
	return []Instruction{
		{Op: OpCloseDetail, Target: name},
		{Op: OpBlur, Blur: 0, On: false},
	}
}

// Detail returns the country whose drill-down is open.
func (c *Controller) Detail() (string, bool) {
	return c.detail, c.detail != ""
}
