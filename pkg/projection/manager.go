package projection

import (
	"math"
)

// Options tune gesture handling.
type Options struct {
	// Sensitivity converts globe drag pixels to degrees:
	// delta = pixels * Sensitivity / scale.
	Sensitivity float64
	// MinZoom and MaxZoom bound the zoom factor relative to the initial
	// scale of the active kind.
	MinZoom float64
	MaxZoom float64
}

// DefaultOptions returns the standard gesture settings.
func DefaultOptions() Options {
	return Options{Sensitivity: 75, MinZoom: 0.3, MaxZoom: 10}
}

// Manager owns the active projection and one independent state slot per
// kind, so returning to a kind restores its last pose. It is not safe for
// concurrent use; callers serialise access.
type Manager struct {
	width, height float64
	opts          Options
	active        Kind
	slots         [2]Projection
}

// NewManager creates a Manager for a viewport of width x height pixels,
// starting in Mercator. Initial scales derive from the width.
func NewManager(width, height int, opts Options) *Manager {
	if opts.Sensitivity <= 0 {
		opts.Sensitivity = DefaultOptions().Sensitivity
	}
	if opts.MinZoom <= 0 {
		opts.MinZoom = DefaultOptions().MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = math.Max(opts.MinZoom, DefaultOptions().MaxZoom)
	}

	m := &Manager{width: float64(width), height: float64(height), opts: opts}
	for _, k := range []Kind{Mercator, Orthographic} {
		m.slots[k] = Projection{Kind: k, Scale: m.InitialScale(k), Translate: m.center()}
	}
	return m
}

func (m *Manager) center() [2]float64 {
	return [2]float64{m.width / 2, m.height / 2}
}

// InitialScale returns the scale a kind is reset to: (w-3)/2π for Mercator
// and w/4 for Orthographic.
func (m *Manager) InitialScale(k Kind) float64 {
	if k == Orthographic {
		return m.width / 4
	}
	return (m.width - 3) / (2 * math.Pi)
}

// Active returns the active kind.
func (m *Manager) Active() Kind { return m.active }

// Current returns a copy of the active projection.
func (m *Manager) Current() Projection { return m.slots[m.active] }

// Slot returns a copy of the stored state of k.
func (m *Manager) Slot(k Kind) Projection { return m.slots[k] }

// Use activates k and resets its scale to the initial scale. Entering
// Mercator also recentres it. The other slot is left untouched. Use reports
// whether the kind changed, which requires re-projecting every path.
func (m *Manager) Use(k Kind) bool {
	changed := k != m.active
	m.active = k
	s := &m.slots[k]
	s.Scale = m.InitialScale(k)
	if k == Mercator {
		s.Translate = m.center()
	}
	return changed
}

// SetScale sets the active scale, clamped to the zoom bounds.
func (m *Manager) SetScale(scale float64) {
	init := m.InitialScale(m.active)
	m.slots[m.active].Scale = clamp(scale, init*m.opts.MinZoom, init*m.opts.MaxZoom)
}

// SetRotation sets the active rotation; phi is clamped to [-90, 90].
func (m *Manager) SetRotation(lambda, phi float64) {
	m.slots[m.active].Rotation = [2]float64{lambda, clamp(phi, -90, 90)}
}

// SetTranslate sets the active translate.
func (m *Manager) SetTranslate(x, y float64) {
	m.slots[m.active].Translate = [2]float64{x, y}
}

// Zoom applies zoom factor k relative to the initial scale. Factors outside
// [MinZoom, MaxZoom] are clamped, never rejected. It returns the applied
// factor.
func (m *Manager) Zoom(k float64) float64 {
	k = clamp(k, m.opts.MinZoom, m.opts.MaxZoom)
	m.slots[m.active].Scale = m.InitialScale(m.active) * k
	return k
}

// ZoomFactor returns the active scale relative to the initial scale.
func (m *Manager) ZoomFactor() float64 {
	return m.slots[m.active].Scale / m.InitialScale(m.active)
}

// Drag applies a pointer drag of (dx, dy) pixels. On the globe it rotates
// by dx*sensitivity/scale degrees of longitude and -dy*sensitivity/scale
// of latitude, so zoomed-in drags rotate less per pixel. On the flat map it
// pans.
func (m *Manager) Drag(dx, dy float64) {
	s := &m.slots[m.active]
	if m.active == Mercator {
		s.Translate[0] += dx
		s.Translate[1] += dy
		return
	}
	k := m.opts.Sensitivity / s.Scale
	s.Rotation[0] = wrapDegrees(s.Rotation[0] + dx*k)
	s.Rotation[1] = clamp(s.Rotation[1]-dy*k, -90, 90)
}

// OceanDisc returns the globe backdrop and whether it is shown. It is
// hidden on the flat map.
func (m *Manager) OceanDisc() (Disc, bool) {
	if m.active != Orthographic {
		return Disc{}, false
	}
	return m.slots[Orthographic].Horizon(), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
