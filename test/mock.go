package test

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MockFrameGenerator creates deterministic RGBA camera frames for idempotent testing.
//
// Every frame is freshly allocated and owned by the caller, who must Close it.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
// frame := gen.GenerateUniformFrame(color.RGBA{128, 128, 128, 255})
// defer frame.Close()
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:  width,
		height: height,
	}
}

// Size returns the generator's frame dimensions.
func (g *MockFrameGenerator) Size() image.Point {
	return image.Pt(g.width, g.height)
}

// GenerateUniformFrame creates an RGBA frame where every pixel has the same color.
//
// Arguments:
// - c: The fill color. Channels are stored in R, G, B, A order.
//
// Returns:
// - A CV_8UC4 Mat.
func (g *MockFrameGenerator) GenerateUniformFrame(c color.RGBA) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(c.R), float64(c.G), float64(c.B), float64(c.A)),
		g.height, g.width, gocv.MatTypeCV8UC4,
	)
}

// GenerateGrayFrame creates a single-channel frame filled with v.
func (g *MockFrameGenerator) GenerateGrayFrame(v uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(v), 0, 0, 0), g.height, g.width, gocv.MatTypeCV8UC1)
}

// GenerateGradientFrame creates an RGBA frame with a horizontal ramp in R, a
// vertical ramp in G and a constant B, so every pixel carries distinct channel values.
func (g *MockFrameGenerator) GenerateGradientFrame() gocv.Mat {
	pix := make([]byte, g.width*g.height*4)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := (y*g.width + x) * 4
			pix[i] = uint8(x * 255 / max(g.width-1, 1))
			pix[i+1] = uint8(y * 255 / max(g.height-1, 1))
			pix[i+2] = 96
			pix[i+3] = 255
		}
	}

	wrapped, err := gocv.NewMatFromBytes(g.height, g.width, gocv.MatTypeCV8UC4, pix)
	if err != nil {
		panic(err)
	}
	defer wrapped.Close()
	return wrapped.Clone()
}

// GenerateSquareFrame creates a dark frame with a bright square, which gives
// edge detection and blur a hard boundary to work on.
//
// Arguments:
// - x: X coordinate of the square's top-left corner.
// - y: Y coordinate of the square's top-left corner.
// - size: Side of the square in pixels.
//
// Returns:
// - A CV_8UC4 Mat.
func (g *MockFrameGenerator) GenerateSquareFrame(x, y, size int) gocv.Mat {
	frame := g.GenerateUniformFrame(color.RGBA{16, 16, 16, 255})

	rect := image.Rect(x, y, x+size, y+size)
	gocv.Rectangle(&frame, rect, color.RGBA{240, 240, 240, 255}, -1)

	return frame
}

// GenerateNV21Frame creates an NV21 buffer with a constant luma and chroma.
func (g *MockFrameGenerator) GenerateNV21Frame(luma, u, v uint8) []byte {
	ySize := g.width * g.height
	buf := make([]byte, ySize+ySize/2)
	for i := 0; i < ySize; i++ {
		buf[i] = luma
	}
	for i := ySize; i+1 < len(buf); i += 2 {
		buf[i] = v
		buf[i+1] = u
	}
	return buf
}
