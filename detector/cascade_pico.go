package detector

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/common"
)

type picoCascade struct {
	classifier *pigo.Pigo
}

func loadPico(path string) (c Cascade, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &picoCascade{}, errors.Wrap(err, "read cascade")
	}

	// Unpack indexes into the buffer without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			c, err = &picoCascade{}, fmt.Errorf("malformed pico cascade %s: %v", path, r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return &picoCascade{}, errors.Wrap(err, "unpack cascade")
	}
	return &picoCascade{classifier: classifier}, nil
}

func (c *picoCascade) Ready() bool {
	return c.classifier != nil
}

func (c *picoCascade) Detect(gray gocv.Mat, p Params) []image.Rectangle {
	rows, cols := gray.Rows(), gray.Cols()

	maxSize := p.MaxSize
	if maxSize <= 0 {
		maxSize = max(rows, cols)
	}

	raw := c.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     p.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: p.ShiftFactor,
		ScaleFactor: p.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.ToBytes(),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}, 0)

	clusters := c.classifier.ClusterDetections(raw, p.IoUThreshold)

	rects := make([]image.Rectangle, 0, len(clusters))
	for _, det := range clusters {
		if det.Q < p.MinQuality {
			continue
		}
		r := picoRect(det)
		if neighbours(r, raw, p.IoUThreshold) <= p.MinNeighbors {
			continue
		}
		r = fitInside(r, image.Rect(0, 0, cols, rows))
		if r.Dx() < p.MinSize || r.Dy() < p.MinSize {
			continue
		}
		rects = append(rects, r)
	}
	return rects
}

// fitInside moves r so it lies within bounds without changing its size. Only
// a rectangle larger than bounds is cut.
func fitInside(r, bounds image.Rectangle) image.Rectangle {
	var d image.Point
	switch {
	case r.Min.X < bounds.Min.X:
		d.X = bounds.Min.X - r.Min.X
	case r.Max.X > bounds.Max.X:
		d.X = bounds.Max.X - r.Max.X
	}
	switch {
	case r.Min.Y < bounds.Min.Y:
		d.Y = bounds.Min.Y - r.Min.Y
	case r.Max.Y > bounds.Max.Y:
		d.Y = bounds.Max.Y - r.Max.Y
	}
	return r.Add(d).Intersect(bounds)
}

func (c *picoCascade) Close() error {
	return nil
}

// picoRect converts a center/scale detection into a top-left rectangle.
func picoRect(d pigo.Detection) image.Rectangle {
	half := d.Scale / 2
	return image.Rect(d.Col-half, d.Row-half, d.Col-half+d.Scale, d.Row-half+d.Scale)
}

// neighbours counts the raw hits that overlap r. Like OpenCV's grouping, a
// detection is kept when the count exceeds minNeighbors.
func neighbours(r image.Rectangle, raw []pigo.Detection, threshold float64) int {
	n := 0
	for _, d := range raw {
		if common.IoU(r, picoRect(d)) > threshold {
			n++
		}
	}
	return n
}
