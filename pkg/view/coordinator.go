package view

import (
	"github.com/matzehuels/energyatlas/pkg/projection"
)

// StepKind names a transition step.
type StepKind string

const (
	StepVisibility StepKind = "visibility"
	StepSelector   StepKind = "selector"
	StepProjection StepKind = "projection"
	StepGestures   StepKind = "gestures"
	StepOcean      StepKind = "ocean"
	StepRender     StepKind = "render"
)

// Gestures attached to the map surface.
const (
	GesturesDragZoom = "drag+zoom"
	GesturesPanZoom  = "pan+zoom"
	GesturesNone     = "none"
)

// Step is one ordered effect of a view switch. Only the fields relevant to
// Kind are set.
type Step struct {
	Kind       StepKind         `json:"kind"`
	Visibility *Visibility      `json:"visibility,omitempty"`
	FadeIn     bool             `json:"fade_in,omitempty"`
	FadeMs     int              `json:"fade_ms,omitempty"`
	Projection string           `json:"projection,omitempty"`
	Gestures   string           `json:"gestures,omitempty"`
	Ocean      *projection.Disc `json:"ocean,omitempty"`
	Show       bool             `json:"show,omitempty"`
	Mode       string           `json:"mode,omitempty"`
}

// Transition is the result of a switch.
type Transition struct {
	From  Mode   `json:"from"`
	To    Mode   `json:"to"`
	Steps []Step `json:"steps"`
}

// Changed reports whether the switch did anything.
func (t Transition) Changed() bool { return len(t.Steps) > 0 }

// Coordinator drives view switches over a State.
type Coordinator struct {
	state  *State
	render func(Mode)
}

// NewCoordinator creates a Coordinator over state. render is invoked at the
// end of every switch for the new mode.
func NewCoordinator(state *State, render func(Mode)) *Coordinator {
	if render == nil {
		render = func(Mode) {}
	}
	return &Coordinator{state: state, render: render}
}

// State returns the shared state.
func (c *Coordinator) State() *State { return c.state }

// Visibility returns the visibility of the current mode.
func (c *Coordinator) Visibility() Visibility { return VisibilityOf(c.state.Mode) }

// Switch moves to mode. Switching to the current mode is a no-op and returns
// an empty Transition.
func (c *Coordinator) Switch(mode Mode) Transition {
	from := c.state.Mode
	tr := Transition{From: from, To: mode}
	if mode == from {
		return tr
	}
	c.state.Mode = mode

	vis := VisibilityOf(mode)
	tr.Steps = append(tr.Steps, Step{Kind: StepVisibility, Visibility: &vis})

	fade := int(SelectorFade.Milliseconds())
	switch {
	case mode == Treemap:
		tr.Steps = append(tr.Steps, Step{Kind: StepSelector, FadeIn: true, Show: true, FadeMs: fade})
	case from == Treemap:
		tr.Steps = append(tr.Steps, Step{Kind: StepSelector, FadeIn: false, Show: false, FadeMs: fade})
	}

	pm := c.state.Projection
	switch mode {
	case Globe:
		pm.Use(projection.Orthographic)
		disc, _ := pm.OceanDisc()
		tr.Steps = append(tr.Steps,
			Step{Kind: StepProjection, Projection: projection.Orthographic.String()},
			Step{Kind: StepGestures, Gestures: GesturesDragZoom},
			Step{Kind: StepOcean, Show: true, Ocean: &disc},
		)
	case FlatMap:
		pm.Use(projection.Mercator)
		tr.Steps = append(tr.Steps,
			Step{Kind: StepProjection, Projection: projection.Mercator.String()},
			Step{Kind: StepGestures, Gestures: GesturesPanZoom},
			Step{Kind: StepOcean, Show: false},
		)
	case Treemap:
		tr.Steps = append(tr.Steps, Step{Kind: StepGestures, Gestures: GesturesNone})
		if from == Globe {
			tr.Steps = append(tr.Steps, Step{Kind: StepOcean, Show: false})
		}
	}

	tr.Steps = append(tr.Steps, Step{Kind: StepRender, Mode: mode.String()})
	c.render(mode)
	return tr
}
