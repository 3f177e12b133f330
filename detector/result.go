package detector

import (
	"image"

	"github.com/nvr-ai/go-framekit/common"
)

// Result is the ordered list of face rectangles found in a frame, in the
// frame's pixel coordinates.
type Result []image.Rectangle

// Flatten encodes the result as x, y, width, height quadruples.
func (r Result) Flatten() []int64 {
	return common.Flatten(r)
}

// Boxes labels each rectangle as a face.
func (r Result) Boxes() []common.BoundingBox {
	boxes := make([]common.BoundingBox, len(r))
	for i, rect := range r {
		boxes[i] = common.BoundingBox{Label: "face", Confidence: 1, Rect: rect}
	}
	return boxes
}
