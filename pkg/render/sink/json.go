package sink

import (
	"encoding/json"

	"github.com/matzehuels/energyatlas/pkg/detail"
	"github.com/matzehuels/energyatlas/pkg/hierarchy"
	"github.com/matzehuels/energyatlas/pkg/projection"
	"github.com/matzehuels/energyatlas/pkg/scene"
)

// Frame is the JSON form of one rendered view. Only the fields of the
// active view are set.
type Frame struct {
	View       string                 `json:"view"`
	Year       int                    `json:"year"`
	Metric     string                 `json:"metric"`
	Width      float64                `json:"width"`
	Height     float64                `json:"height"`
	Projection *projection.Projection `json:"projection,omitempty"`
	Ocean      *Ocean                 `json:"ocean,omitempty"`
	Shapes     []scene.Shape          `json:"shapes,omitempty"`
	Diff       *scene.Diff            `json:"diff,omitempty"`
	Tiles      []hierarchy.Tile       `json:"tiles,omitempty"`
	Transition *hierarchy.Transition  `json:"transition,omitempty"`
	Detail     *detail.Scene          `json:"detail,omitempty"`
	Blurred    bool                   `json:"blurred,omitempty"`
}

// Ocean is the map background. Disc is nil on the flat map.
type Ocean struct {
	Color string           `json:"color"`
	Disc  *projection.Disc `json:"disc,omitempty"`
}

// RenderJSON encodes f with indentation.
func RenderJSON(f Frame) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
