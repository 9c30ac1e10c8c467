// Package view owns the application state and the three-way view switch
// between the flat map, the globe and the treemap.
//
// [State] is the single mutable state object; every other component reads
// it through the [Coordinator] instead of keeping its own copy. A switch
// returns the ordered [Step]s a surface must apply, ending with a render.
package view

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/projection"
)

// Mode is the visible scene.
type Mode int

const (
	FlatMap Mode = iota
	Globe
	Treemap
)

// Modes lists every mode in cycle order.
var Modes = []Mode{FlatMap, Globe, Treemap}

func (m Mode) String() string {
	switch m {
	case FlatMap:
		return "flat"
	case Globe:
		return "globe"
	case Treemap:
		return "treemap"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode accepts "flat" (or "map"), "globe" and "treemap".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "map", "flatmap":
		return FlatMap, nil
	case "globe":
		return Globe, nil
	case "treemap":
		return Treemap, nil
	}
	return 0, apperrors.New(apperrors.ErrCodeInvalidView, "unknown view %q (want flat, globe or treemap)", s)
}

// Next returns the mode after m in cycle order.
func (m Mode) Next() Mode {
	return Modes[(int(m)+1)%len(Modes)]
}

// State is the application state.
type State struct {
	Year           int
	Metric         string
	TopN           int
	Mode           Mode
	Projection     *projection.Manager
	ReloadRequired bool
}

// Visibility is derived from the mode only.
type Visibility struct {
	Map      bool `json:"map"`
	Treemap  bool `json:"treemap"`
	Selector bool `json:"selector"`
	Ocean    bool `json:"ocean"`
}

// VisibilityOf returns which containers mode shows. Exactly one of Map and
// Treemap is true.
func VisibilityOf(m Mode) Visibility {
	return Visibility{
		Map:      m != Treemap,
		Treemap:  m == Treemap,
		Selector: m == Treemap,
		Ocean:    m == Globe,
	}
}

// SelectorFade is the fade duration of the item-count selector.
const SelectorFade = 250 * time.Millisecond
