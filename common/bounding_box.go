package common

import (
	"fmt"
	"image"
)

// BoundingBox is a detected region with a label and a confidence score.
type BoundingBox struct {
	Label      string
	Confidence float32
	Rect       image.Rectangle
}

// String formats the bounding box information for display.
//
// Returns:
// - A formatted string containing label, confidence, and coordinates.
//
// @example
// box := BoundingBox{Label: "face", Confidence: 0.95, Rect: image.Rect(100, 100, 200, 300)}
// fmt.Println(box.String()) // face (confidence 0.950000): (100,100)-(200,300)
func (b BoundingBox) String() string {
	return fmt.Sprintf("%s (confidence %f): %v", b.Label, b.Confidence, b.Rect)
}

// Intersection calculates the intersection area between two rectangles.
//
// Arguments:
// - a, b: The rectangles to intersect.
//
// Returns:
// - The area of intersection in pixels.
//
// @example
// area := Intersection(image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)) // 2500
func Intersection(a, b image.Rectangle) int {
	s := a.Canon().Intersect(b.Canon()).Size()
	return s.X * s.Y
}

// Union calculates the union area between two rectangles.
//
// @example
// area := Union(image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)) // 17500
func Union(a, b image.Rectangle) int {
	sa, sb := a.Canon().Size(), b.Canon().Size()
	return sa.X*sa.Y + sb.X*sb.Y - Intersection(a, b)
}

// IoU calculates the Intersection over Union between two rectangles.
//
// Detectors use it to decide whether two raw hits describe the same object.
//
// Returns:
// - The IoU value between 0 and 1; 0 when both rectangles are empty.
//
// @example
// iou := IoU(image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)) // ~0.143 (2500/17500)
func IoU(a, b image.Rectangle) float64 {
	u := Union(a, b)
	if u == 0 {
		return 0
	}
	return float64(Intersection(a, b)) / float64(u)
}

// Flatten encodes rectangles as consecutive x, y, width, height values.
//
// @example
// Flatten([]image.Rectangle{image.Rect(10, 20, 40, 60)}) // [10 20 30 40]
func Flatten(rects []image.Rectangle) []int64 {
	out := make([]int64, 0, len(rects)*4)
	for _, r := range rects {
		r = r.Canon()
		out = append(out, int64(r.Min.X), int64(r.Min.Y), int64(r.Dx()), int64(r.Dy()))
	}
	return out
}
