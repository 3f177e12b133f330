// Package frame exposes caller-owned pixel buffers to the pipeline through
// opaque handles and zero-copy views.
package frame

import (
	"fmt"
	"image"
	"runtime/cgo"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when a stage receives a buffer with no pixels.
	ErrEmptyFrame = errors.New("frame: empty buffer")
	// ErrChannelLayout is returned when a buffer has a channel layout the stage cannot consume.
	ErrChannelLayout = errors.New("frame: unsupported channel layout")
	// ErrGeometryMismatch is returned when an output buffer does not match the geometry a stage produces.
	ErrGeometryMismatch = errors.New("frame: output geometry mismatch")
)

// Layout describes how the bytes of a pixel are laid out.
type Layout int

const (
	// LayoutUnknown is any layout other than 8-bit gray or 8-bit RGBA.
	LayoutUnknown Layout = iota
	// LayoutGray is a single 8-bit luma channel.
	LayoutGray
	// LayoutRGBA is four interleaved 8-bit channels in R, G, B, A order.
	LayoutRGBA
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutGray:
		return "gray"
	case LayoutRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// Channels returns the number of interleaved channels for the layout, or 0 when unknown.
func (l Layout) Channels() int {
	switch l {
	case LayoutGray:
		return 1
	case LayoutRGBA:
		return 4
	default:
		return 0
	}
}

// LayoutOf classifies a Mat type.
func LayoutOf(t gocv.MatType) Layout {
	switch t {
	case gocv.MatTypeCV8UC1:
		return LayoutGray
	case gocv.MatTypeCV8UC4:
		return LayoutRGBA
	default:
		return LayoutUnknown
	}
}

// Handle is an opaque token that stands for a caller-owned Mat.
//
// The pipeline never allocates or frees the Mat behind a handle. The caller
// registers a buffer, passes the handle across the boundary and releases it
// when the buffer is no longer in use.
type Handle uintptr

// Register publishes m as a handle. No pixels are copied.
//
// Arguments:
// - m: The caller-owned Mat. It must outlive the handle.
//
// Returns:
// - A handle that resolves back to m until Release is called.
func Register(m *gocv.Mat) Handle {
	return Handle(cgo.NewHandle(m))
}

// Mat resolves the handle.
//
// Resolving a zero, stale or released handle panics. That is a caller bug and
// is not turned into an error.
func (h Handle) Mat() *gocv.Mat {
	return cgo.Handle(h).Value().(*gocv.Mat)
}

// View resolves the handle and describes the buffer behind it.
func (h Handle) View() View {
	return ViewOf(h.Mat())
}

// Release invalidates the handle. The Mat itself is left untouched.
func (h Handle) Release() {
	cgo.Handle(h).Delete()
}

// View is a read-only description of a pixel buffer. It shares memory with
// the Mat it was built from.
type View struct {
	Mat      *gocv.Mat
	Width    int
	Height   int
	Channels int
	// Stride is the number of bytes per row, which may exceed Width*Channels.
	Stride int
	Layout Layout
}

// ViewOf builds a view over m. A nil or empty Mat yields an empty view.
func ViewOf(m *gocv.Mat) View {
	if m == nil || m.Empty() {
		return View{Mat: m}
	}

	return View{
		Mat:      m,
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: m.Channels(),
		Stride:   m.Step(),
		Layout:   LayoutOf(m.Type()),
	}
}

// Empty reports whether the view has no pixels.
func (v View) Empty() bool {
	return v.Mat == nil || v.Width <= 0 || v.Height <= 0
}

// Size returns the width and height as a point.
func (v View) Size() image.Point {
	return image.Pt(v.Width, v.Height)
}

// Bounds returns the pixel rectangle covered by the view.
func (v View) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.Width, v.Height)
}

// SameGeometry reports whether both views have the same width, height and channel count.
func (v View) SameGeometry(other View) bool {
	return v.Width == other.Width && v.Height == other.Height && v.Channels == other.Channels
}

// String formats the view for log lines.
func (v View) String() string {
	if v.Empty() {
		return "frame(empty)"
	}
	return fmt.Sprintf("frame(%dx%d %s stride=%d)", v.Width, v.Height, v.Layout, v.Stride)
}

// Expect checks that the view has the given geometry.
//
// Arguments:
// - width, height: The expected dimensions.
// - layout: The expected channel layout.
//
// Returns:
// - ErrGeometryMismatch (wrapped with the actual geometry) when the view differs.
func (v View) Expect(width, height int, layout Layout) error {
	if v.Empty() || v.Width != width || v.Height != height || v.Layout != layout {
		return errors.Wrapf(ErrGeometryMismatch, "want %dx%d %s, have %s", width, height, layout, v)
	}
	return nil
}
