package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrFrameGeometry is returned for camera frames with non-positive or odd dimensions.
	ErrFrameGeometry = errors.New("images: invalid camera frame geometry")
	// ErrShortBuffer is returned when a camera buffer holds fewer bytes than its geometry needs.
	ErrShortBuffer = errors.New("images: camera buffer too short")
)

// NV21Size returns the number of bytes in an NV21 frame of the given size.
func NV21Size(width, height int) int {
	return width*height + width*height/2
}

// NV21ToRGBA converts a camera preview frame in NV21 layout into an RGBA Mat.
//
// NV21 stores a full-resolution Y plane followed by a half-resolution plane of
// interleaved V/U samples. Bytes past NV21Size(width, height) are ignored.
//
// Arguments:
// - data: The raw NV21 bytes.
// - width: Frame width in pixels. Must be positive and even.
// - height: Frame height in pixels. Must be positive and even.
// - dst: Destination Mat; receives a width x height CV_8UC4 image.
//
// Returns:
// - ErrFrameGeometry, ErrShortBuffer or a wrapped OpenCV error.
func NV21ToRGBA(data []byte, width, height int, dst *gocv.Mat) error {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return errors.Wrapf(ErrFrameGeometry, "%dx%d", width, height)
	}

	need := NV21Size(width, height)
	if len(data) < need {
		return errors.Wrapf(ErrShortBuffer, "have %d bytes, need %d", len(data), need)
	}

	yuv, err := gocv.NewMatFromBytes(height+height/2, width, gocv.MatTypeCV8UC1, data[:need])
	if err != nil {
		return errors.Wrap(err, "wrap nv21 bytes")
	}
	defer yuv.Close()

	if err := gocv.CvtColor(yuv, dst, gocv.ColorYUVToRGBANV21); err != nil {
		return errors.Wrap(err, "nv21 to rgba")
	}
	return nil
}

// PackNV21 assembles an NV21 buffer from the three planes of a YUV_420_888 image.
//
// Arguments:
// - y: The luma plane, tightly packed.
// - u, v: The chroma planes as delivered by the camera. With a pixel stride of
// 2 the planes are views into one interleaved buffer and every other byte
// belongs to the plane.
// - pixelStride: Distance in bytes between consecutive chroma samples (1 or 2).
//
// Returns:
// - The NV21 bytes (Y followed by interleaved V/U).
func PackNV21(y, u, v []byte, pixelStride int) ([]byte, error) {
	if pixelStride != 1 && pixelStride != 2 {
		return nil, errors.Errorf("images: unsupported chroma pixel stride %d", pixelStride)
	}

	samples := (len(u) + pixelStride - 1) / pixelStride
	if vs := (len(v) + pixelStride - 1) / pixelStride; vs < samples {
		samples = vs
	}

	out := make([]byte, len(y), len(y)+2*samples)
	copy(out, y)
	for i := 0; i < samples; i++ {
		out = append(out, v[i*pixelStride], u[i*pixelStride])
	}
	return out, nil
}
