package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrRotation is returned for rotations that are not a multiple of 90 degrees.
var ErrRotation = errors.New("images: rotation must be a multiple of 90 degrees")

// NormalizeRotation folds degrees into [0, 360) and checks it is a right angle.
func NormalizeRotation(degrees int) (int, error) {
	d := ((degrees % 360) + 360) % 360
	if d%90 != 0 {
		return 0, errors.Wrapf(ErrRotation, "got %d", degrees)
	}
	return d, nil
}

// DisplayRotation returns the clockwise rotation that makes a camera frame
// upright on screen.
//
// Arguments:
// - sensorOrientation: Clockwise angle of the camera sensor relative to the device's natural orientation.
// - displayRotation: Current rotation of the display in degrees (0, 90, 180, 270).
// - frontFacing: Front cameras are mirrored, so the display rotation adds instead of subtracts.
//
// Returns:
// - A clockwise rotation in [0, 360).
func DisplayRotation(sensorOrientation, displayRotation int, frontFacing bool) int {
	var d int
	if frontFacing {
		d = sensorOrientation + displayRotation
		// Undo the mirror so the result is a clockwise angle again.
		d = 360 - d%360
	} else {
		d = sensorOrientation - displayRotation + 360
	}
	return d % 360
}

// Rotate rotates src clockwise by degrees into dst.
//
// Degrees are normalised mod 360. 0 copies the input, 90 and 270 swap width and height.
func Rotate(src gocv.Mat, dst *gocv.Mat, degrees int) error {
	d, err := NormalizeRotation(degrees)
	if err != nil {
		return err
	}

	switch d {
	case 0:
		err = src.CopyTo(dst)
	case 90:
		err = gocv.Rotate(src, dst, gocv.Rotate90Clockwise)
	case 180:
		err = gocv.Rotate(src, dst, gocv.Rotate180Clockwise)
	case 270:
		err = gocv.Rotate(src, dst, gocv.Rotate90CounterClockwise)
	}
	if err != nil {
		return errors.Wrapf(err, "rotate %d", d)
	}
	return nil
}
