package scene

// Op names a side effect on the display surface.
type Op string

const (
	OpStroke        Op = "stroke"
	OpShowTooltip   Op = "tooltip.show"
	OpHideTooltip   Op = "tooltip.hide"
	OpOpenDetail    Op = "detail.open"
	OpCloseDetail   Op = "detail.close"
	OpBlur          Op = "blur"
	OpReloadPrompt  Op = "reload.prompt"
	OpNotify        Op = "notify"
	OpMarkerRadius  Op = "marker.radius"
	OpSetVisibility Op = "visibility"
)

// Instruction is one side effect for the surface to apply. Only the fields
// relevant to Op are set.
type Instruction struct {
	Op     Op      `json:"op"`
	Target string  `json:"target,omitempty"`
	Text   string  `json:"text,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Blur   float64 `json:"blur,omitempty"`
	FadeMs int     `json:"fade_ms,omitempty"`
	On     bool    `json:"on,omitempty"`
}

// Tooltip placement relative to the pointer.
const (
	TooltipDX     = 10
	TooltipDY     = -28
	TooltipFadeMs = 200
)

// Stroke styles.
const (
	StrokeColor      = "black"
	StrokeWidth      = 1
	HoverStrokeColor = "orange"
	HoverStrokeWidth = 2
)

// DetailBlur is the blur radius in pixels applied to the base map while a
// drill-down is open.
const DetailBlur = 8
