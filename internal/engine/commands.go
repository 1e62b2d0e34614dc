package engine

import (
	"encoding/json"

	"github.com/linebaby/linebaby/internal/geom"
)

// Polyline is an editing overlay primitive: curve previews, handle arms,
// control point boxes and the artboard outline.
type Polyline struct {
	Points []geom.Point `json:"points"`
	Color  [4]float32   `json:"color"`
	Width  float32      `json:"width"`
	Closed bool         `json:"closed,omitempty"`
}

// Frame is everything a renderer needs for one frame. Stamps are in painter's
// order (first stroke at the back); overlay is drawn on top.
type Frame struct {
	Time    float32       `json:"time"`
	Clear   [4]float32    `json:"clear"`
	View    geom.Matrix2D `json:"view"`
	Stamps  []Stamp       `json:"stamps"`
	Overlay []Polyline    `json:"overlay,omitempty"`
}

// FrameToJSON serializes a frame for the browser and websocket clients.
func FrameToJSON(f *Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}

// RectToJSON serializes a rectangle as x/y/width/height.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(map[string]float32{
		"x":      r.Min.X,
		"y":      r.Min.Y,
		"width":  r.Width(),
		"height": r.Height(),
	})
	return string(data)
}
