// Package filters implements the per-frame transforms: grayscale, Gaussian
// blur, Canny edges, passthrough and rotation.
//
// Every stage reads its input through a frame.View and writes into a
// caller-owned Mat. OpenCV (re)allocates the output when its geometry differs
// from what the stage produces; CheckOutput validates it up front instead.
package filters

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/images"
)

// Aliases of the frame package errors, so callers can match on either.
var (
	ErrEmptyFrame       = frame.ErrEmptyFrame
	ErrChannelLayout    = frame.ErrChannelLayout
	ErrGeometryMismatch = frame.ErrGeometryMismatch
)

func requireRGBA(in frame.View) error {
	if in.Empty() {
		return ErrEmptyFrame
	}
	if in.Layout != frame.LayoutRGBA {
		return errors.Wrapf(ErrChannelLayout, "want rgba, have %s", in)
	}
	return nil
}

// Grayscale writes the single-channel luma of an RGBA frame into out.
//
// Arguments:
// - in: Four-channel RGBA input.
// - out: Destination; ends up in.Width x in.Height, one channel.
//
// Returns:
// - ErrEmptyFrame, ErrChannelLayout or a wrapped OpenCV error.
func Grayscale(in frame.View, out *gocv.Mat) error {
	if err := requireRGBA(in); err != nil {
		return err
	}
	return images.ToGrayscale(*in.Mat, out)
}

// Blur applies a Gaussian blur. Geometry and channel count are preserved.
//
// Arguments:
// - in: Input frame of any channel count.
// - out: Destination. May be in.Mat for an in-place blur.
// - opts: Kernel size, sigma and border handling.
//
// Returns:
// - ErrEmptyFrame, an options error or a wrapped OpenCV error.
func Blur(in frame.View, out *gocv.Mat, opts BlurOptions) error {
	if in.Empty() {
		return ErrEmptyFrame
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	border, _ := opts.Border.Type()

	if !opts.separable() {
		k := image.Pt(opts.KernelSize, opts.KernelSize)
		if err := gocv.GaussianBlur(*in.Mat, out, k, opts.SigmaX, opts.SigmaY, border); err != nil {
			return errors.Wrapf(err, "gaussian blur %dx%d", opts.KernelSize, opts.KernelSize)
		}
		return nil
	}

	kx := kernelMat(GaussianKernel(opts.KernelSize, float32(opts.SigmaX)))
	defer kx.Close()
	sigmaY := opts.SigmaY
	if sigmaY <= 0 {
		sigmaY = opts.SigmaX
	}
	ky := kernelMat(GaussianKernel(opts.KernelSize, float32(sigmaY)))
	defer ky.Close()

	// ddepth -1 keeps the input depth.
	if err := gocv.SepFilter2D(*in.Mat, out, gocv.MatType(-1), kx, ky, image.Pt(-1, -1), 0, border); err != nil {
		return errors.Wrapf(err, "separable gaussian %dx%d", opts.KernelSize, opts.KernelSize)
	}
	return nil
}

// kernelMat copies 1-D weights into a 1xN CV_32F Mat.
func kernelMat(weights []float32) gocv.Mat {
	m := gocv.NewMatWithSize(1, len(weights), gocv.MatTypeCV32F)
	for i, w := range weights {
		m.SetFloatAt(0, i, w)
	}
	return m
}

// Edges writes a binary Canny edge map of an RGBA frame into out.
//
// The edge map is expanded back to four channels: edge pixels are (255, 255,
// 255, 255) and everything else is (0, 0, 0, 255). On failure out is not
// modified.
func Edges(in frame.View, out *gocv.Mat, opts EdgeOptions) error {
	if err := requireRGBA(in); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := images.ToGrayscale(*in.Mat, &gray); err != nil {
		return err
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(gray, &edges, opts.LowThreshold, opts.HighThreshold); err != nil {
		return errors.Wrap(err, "canny")
	}

	return images.ToColor(edges, out)
}

// Passthrough copies in to out unchanged.
func Passthrough(in frame.View, out *gocv.Mat) error {
	if in.Empty() {
		return ErrEmptyFrame
	}
	if err := in.Mat.CopyTo(out); err != nil {
		return errors.Wrap(err, "copy frame")
	}
	return nil
}

// Rotate rotates in clockwise by a multiple of 90 degrees into out.
func Rotate(in frame.View, out *gocv.Mat, degrees int) error {
	if in.Empty() {
		return ErrEmptyFrame
	}
	return images.Rotate(*in.Mat, out, degrees)
}

// CheckOutput validates out against the geometry a stage will produce for in.
//
// Arguments:
// - in: The stage input.
// - out: The caller-supplied output buffer.
// - layout: The layout the stage writes, or LayoutUnknown for a stage that
//   keeps the input's Mat type whatever it is.
//
// Returns:
// - ErrGeometryMismatch when out is empty or differs in size, layout or, for
//   LayoutUnknown, channel count or depth.
func CheckOutput(in frame.View, out *gocv.Mat, layout frame.Layout) error {
	if layout != frame.LayoutUnknown {
		return frame.ViewOf(out).Expect(in.Width, in.Height, layout)
	}

	got := frame.ViewOf(out)
	if got.Empty() || !in.SameGeometry(got) || in.Mat.Type() != out.Type() {
		return errors.Wrapf(ErrGeometryMismatch, "want %dx%d with %d channels, have %s",
			in.Width, in.Height, in.Channels, got)
	}
	return nil
}
