package hierarchy

import (
	"time"
)

// TransitionDuration is the length of a treemap update animation.
const TransitionDuration = 750 * time.Millisecond

// ChangeKind classifies a tile between two frames.
type ChangeKind int

const (
	Enter ChangeKind = iota
	Update
	Exit
)

func (k ChangeKind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Update:
		return "update"
	case Exit:
		return "exit"
	}
	return "unknown"
}

// Change is one tile's movement between frames.
type Change struct {
	Key  string     `json:"key"`
	Kind ChangeKind `json:"kind"`
	From Tile       `json:"from"`
	To   Tile       `json:"to"`
}

// Transition animates one frame into the next.
type Transition struct {
	Changes  []Change      `json:"changes"`
	Duration time.Duration `json:"duration"`
}

// Reconcile matches next against prev by key. Tiles only in next enter
// (fading in at their target), tiles in both update (moving and resizing),
// and tiles only in prev exit (fading out in place). Changes list next's
// tiles in order followed by the exits in prev's order.
func Reconcile(prev, next []Tile) Transition {
	old := make(map[string]Tile, len(prev))
	for _, t := range prev {
		old[t.Key] = t
	}

	tr := Transition{Duration: TransitionDuration}
	seen := make(map[string]bool, len(next))
	for _, t := range next {
		seen[t.Key] = true
		if p, ok := old[t.Key]; ok {
			tr.Changes = append(tr.Changes, Change{Key: t.Key, Kind: Update, From: p, To: t})
			continue
		}
		from := t
		from.Opacity = 0
		tr.Changes = append(tr.Changes, Change{Key: t.Key, Kind: Enter, From: from, To: t})
	}
	for _, t := range prev {
		if seen[t.Key] {
			continue
		}
		to := t
		to.Opacity = 0
		tr.Changes = append(tr.Changes, Change{Key: t.Key, Kind: Exit, From: t, To: to})
	}
	return tr
}

// At returns the tiles elapsed into the transition, eased with a cubic
// in-out curve. Exited tiles are dropped once the transition completes.
func (tr Transition) At(elapsed time.Duration) []Tile {
	p := 1.0
	if tr.Duration > 0 {
		p = float64(elapsed) / float64(tr.Duration)
	}
	p = min(1, max(0, p))
	e := easeCubicInOut(p)

	out := make([]Tile, 0, len(tr.Changes))
	for _, c := range tr.Changes {
		if c.Kind == Exit && p >= 1 {
			continue
		}
		t := c.To
		t.X0 = lerp(c.From.X0, c.To.X0, e)
		t.Y0 = lerp(c.From.Y0, c.To.Y0, e)
		t.X1 = lerp(c.From.X1, c.To.X1, e)
		t.Y1 = lerp(c.From.Y1, c.To.Y1, e)
		t.Value = lerp(c.From.Value, c.To.Value, e)
		t.Opacity = lerp(c.From.Opacity, c.To.Opacity, e)
		out = append(out, t)
	}
	return out
}

// Final returns the tiles once the transition has completed.
func (tr Transition) Final() []Tile {
	return tr.At(tr.Duration)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
