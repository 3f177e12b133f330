package images

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/test"
)

func TestToGrayscale(t *testing.T) {
	gen := test.NewMockFrameGenerator(64, 48)
	src := gen.GenerateUniformFrame(color.RGBA{100, 100, 100, 255})
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, ToGrayscale(src, &dst))
	assert.Equal(t, 64, dst.Cols())
	assert.Equal(t, 48, dst.Rows())
	assert.Equal(t, 1, dst.Channels())
	assert.Equal(t, uint8(100), dst.GetUCharAt(10, 10), "equal channels keep their value")
}

func TestToGrayscaleWeights(t *testing.T) {
	gen := test.NewMockFrameGenerator(4, 4)
	src := gen.GenerateUniformFrame(color.RGBA{255, 0, 0, 255})
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, ToGrayscale(src, &dst))
	// 0.299 * 255
	assert.InDelta(t, 76, int(dst.GetUCharAt(0, 0)), 1)
}

func TestToColor(t *testing.T) {
	gen := test.NewMockFrameGenerator(8, 6)
	src := gen.GenerateGrayFrame(42)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, ToColor(src, &dst))
	require.Equal(t, 4, dst.Channels())

	data := dst.ToBytes()
	for i := 0; i < len(data); i += 4 {
		assert.Equal(t, []byte{42, 42, 42, 255}, data[i:i+4])
	}
}

func TestNV21ToRGBA(t *testing.T) {
	gen := test.NewMockFrameGenerator(32, 16)
	data := gen.GenerateNV21Frame(128, 128, 128)

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, NV21ToRGBA(data, 32, 16, &dst))
	assert.Equal(t, 32, dst.Cols())
	assert.Equal(t, 16, dst.Rows())
	assert.Equal(t, 4, dst.Channels())

	px := dst.ToBytes()[:4]
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 128, int(px[c]), 4, "neutral chroma gives gray")
	}
	assert.Equal(t, uint8(255), px[3])
}

func TestNV21ToRGBAValidation(t *testing.T) {
	dst := gocv.NewMat()
	defer dst.Close()

	tests := []struct {
		name   string
		data   []byte
		w, h   int
		target error
	}{
		{"odd width", make([]byte, 100), 3, 4, ErrFrameGeometry},
		{"zero height", make([]byte, 100), 4, 0, ErrFrameGeometry},
		{"short buffer", make([]byte, 4*4), 4, 4, ErrShortBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NV21ToRGBA(tt.data, tt.w, tt.h, &dst)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
			assert.True(t, dst.Empty(), "output must be untouched")
		})
	}
}

func TestPackNV21(t *testing.T) {
	y := []byte{1, 2, 3, 4}

	out, err := PackNV21(y, []byte{10}, []byte{20}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 20, 10}, out)

	// Interleaved planes: u = [u0 v0 u1], v = [v0 u1 v1].
	out, err = PackNV21(y, []byte{10, 20, 11}, []byte{20, 11, 21}, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 20, 10, 21, 11}, out)

	_, err = PackNV21(y, nil, nil, 3)
	assert.Error(t, err)
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
		err  bool
	}{
		{0, 0, false},
		{90, 90, false},
		{-90, 270, false},
		{450, 90, false},
		{720, 0, false},
		{45, 0, true},
	}
	for _, tt := range tests {
		got, err := NormalizeRotation(tt.in)
		if tt.err {
			assert.True(t, errors.Is(err, ErrRotation), "rotation %d", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "rotation %d", tt.in)
	}
}

func TestDisplayRotation(t *testing.T) {
	tests := []struct {
		name    string
		sensor  int
		display int
		front   bool
		want    int
	}{
		{"back portrait", 90, 0, false, 90},
		{"back landscape", 90, 90, false, 0},
		{"back reverse landscape", 90, 270, false, 180},
		{"front portrait", 270, 0, true, 90},
		{"front landscape", 270, 90, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayRotation(tt.sensor, tt.display, tt.front))
		})
	}
}

func TestRotate(t *testing.T) {
	gen := test.NewMockFrameGenerator(40, 20)
	src := gen.GenerateGradientFrame()
	defer src.Close()

	for _, tt := range []struct {
		degrees int
		size    image.Point
	}{
		{0, image.Pt(40, 20)},
		{90, image.Pt(20, 40)},
		{180, image.Pt(40, 20)},
		{-90, image.Pt(20, 40)},
	} {
		dst := gocv.NewMat()
		require.NoError(t, Rotate(src, &dst, tt.degrees))
		assert.Equal(t, tt.size, image.Pt(dst.Cols(), dst.Rows()), "rotation %d", tt.degrees)
		dst.Close()
	}

	dst := gocv.NewMat()
	defer dst.Close()
	assert.Error(t, Rotate(src, &dst, 30))

	// A full turn in two halves returns the original pixels.
	half := gocv.NewMat()
	defer half.Close()
	require.NoError(t, Rotate(src, &half, 180))
	require.NoError(t, Rotate(half, &dst, 180))
	assert.Equal(t, ComputeMatChecksum(src), ComputeMatChecksum(dst))
}

func TestMatImageRoundTrip(t *testing.T) {
	gen := test.NewMockFrameGenerator(16, 8)
	src := gen.GenerateGradientFrame()
	defer src.Close()

	img, err := ImageFromMat(src)
	require.NoError(t, err)
	assert.IsType(t, &image.NRGBA{}, img)

	back, err := MatFromImage(img)
	require.NoError(t, err)
	defer back.Close()
	assert.Equal(t, ComputeMatChecksum(src), ComputeMatChecksum(back))

	gray := gen.GenerateGrayFrame(7)
	defer gray.Close()
	gimg, err := ImageFromMat(gray)
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 7}, gimg.At(3, 3))
}

func TestSaveAndLoad(t *testing.T) {
	gen := test.NewMockFrameGenerator(16, 8)
	src := gen.GenerateGradientFrame()
	defer src.Close()

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, Save(path, src))

	loaded, err := Load(path)
	require.NoError(t, err)
	defer loaded.Close()
	assert.Equal(t, ComputeMatChecksum(src), ComputeMatChecksum(loaded))

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestComputeMatChecksum(t *testing.T) {
	gen := test.NewMockFrameGenerator(8, 8)
	a := gen.GenerateUniformFrame(color.RGBA{1, 2, 3, 255})
	defer a.Close()
	b := gen.GenerateUniformFrame(color.RGBA{1, 2, 3, 255})
	defer b.Close()
	c := gen.GenerateUniformFrame(color.RGBA{1, 2, 4, 255})
	defer c.Close()

	assert.Equal(t, ComputeMatChecksum(a), ComputeMatChecksum(b))
	assert.NotEqual(t, ComputeMatChecksum(a), ComputeMatChecksum(c))

	empty := gocv.NewMat()
	defer empty.Close()
	assert.Equal(t, "empty", ComputeMatChecksum(empty))
}
