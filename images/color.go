package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToGrayscale converts an 8-bit RGBA Mat into a single-channel luma Mat.
//
// Luma uses the BT.601 weights (0.299 R + 0.587 G + 0.114 B). Width and height
// are preserved and dst is (re)allocated by OpenCV when its geometry differs.
//
// Arguments:
// - src: Four-channel RGBA source.
// - dst: Destination Mat. May be src itself.
//
// Returns:
// - An error when OpenCV rejects the conversion.
func ToGrayscale(src gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(src, dst, gocv.ColorRGBAToGray); err != nil {
		return errors.Wrap(err, "rgba to gray")
	}
	return nil
}

// ToColor expands a single-channel Mat into four channels.
//
// The gray value is replicated into R, G and B and alpha is set to 255. The
// GRAY2BGRA and GRAY2RGBA codes are the same conversion since all three color
// channels receive the same value.
func ToColor(src gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(src, dst, gocv.ColorGrayToBGRA); err != nil {
		return errors.Wrap(err, "gray to rgba")
	}
	return nil
}

// BGRToRGBA converts a capture-device frame (BGR) into the pipeline's RGBA layout.
func BGRToRGBA(src gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(src, dst, gocv.ColorBGRToRGBA); err != nil {
		return errors.Wrap(err, "bgr to rgba")
	}
	return nil
}

// RGBAToBGR converts a pipeline frame back into the layout expected by highgui windows.
func RGBAToBGR(src gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(src, dst, gocv.ColorRGBAToBGR); err != nil {
		return errors.Wrap(err, "rgba to bgr")
	}
	return nil
}
