package images

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MatFromImage copies an image.Image into a new RGBA Mat.
//
// The image is first normalised to non-premultiplied RGBA so the Mat's bytes
// are laid out R, G, B, A regardless of the source color model.
//
// Arguments:
// - img: Any decoded image.
//
// Returns:
// - A CV_8UC4 Mat owned by the caller.
// - error: Error if the image is empty or the Mat cannot be built.
func MatFromImage(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), errors.New("images: empty image")
	}

	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	wrapped, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, nrgba.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "wrap image bytes")
	}
	defer wrapped.Close()

	// The wrapped Mat borrows Go memory; hand back an OpenCV-owned copy.
	return wrapped.Clone(), nil
}

// ImageFromMat copies a gray or RGBA Mat into an image.Image.
func ImageFromMat(m gocv.Mat) (image.Image, error) {
	if m.Empty() {
		return nil, errors.New("images: empty mat")
	}

	w, h := m.Cols(), m.Rows()
	data := m.ToBytes()

	switch m.Type() {
	case gocv.MatTypeCV8UC1:
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, data)
		return img, nil
	case gocv.MatTypeCV8UC4:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		copy(img.Pix, data)
		return img, nil
	default:
		return nil, errors.Errorf("images: unsupported mat type %v", m.Type())
	}
}

// Load decodes an image file into an RGBA Mat, applying any EXIF orientation.
func Load(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "open %s", path)
	}
	return MatFromImage(img)
}

// Save encodes a gray or RGBA Mat to path; the format follows the file extension.
func Save(path string, m gocv.Mat) error {
	img, err := ImageFromMat(m)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
