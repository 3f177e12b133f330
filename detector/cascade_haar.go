package detector

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

type haarCascade struct {
	classifier gocv.CascadeClassifier
	ready      bool
}

func loadHaar(path string) (Cascade, error) {
	c := &haarCascade{classifier: gocv.NewCascadeClassifier()}

	if _, err := os.Stat(path); err != nil {
		return c, errors.Wrap(err, "stat cascade")
	}
	if !c.classifier.Load(path) {
		return c, errors.Errorf("opencv rejected cascade %s", path)
	}
	c.ready = true
	return c, nil
}

func (c *haarCascade) Ready() bool {
	return c.ready
}

func (c *haarCascade) Detect(gray gocv.Mat, p Params) []image.Rectangle {
	return c.classifier.DetectMultiScaleWithParams(
		gray,
		p.ScaleFactor,
		p.MinNeighbors,
		p.Flags,
		image.Pt(p.MinSize, p.MinSize),
		image.Pt(p.MaxSize, p.MaxSize),
	)
}

func (c *haarCascade) Close() error {
	return c.classifier.Close()
}
