// Package scene maintains the retained shape list of the choropleth map.
//
// A [Controller] keeps one [Shape] per country and updates shapes in place
// when the year, metric or projection changes: [Controller.Render] returns a
// keyed [Diff] instead of rebuilding the scene. User gestures are plain
// method calls that return [Instruction] values for the surface (SVG sink,
// websocket client, terminal UI) to apply, so interaction can be tested
// without a display.
package scene
