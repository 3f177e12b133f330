package filters

import "github.com/chewxy/math32"

// SigmaFor returns the standard deviation OpenCV derives for a Gaussian kernel
// of the given size when sigma is left at 0.
//
// Arguments:
// - ksize: Kernel side length.
//
// Returns:
// - 0.3*((ksize-1)*0.5-1)+0.8, which is 2.6 for the default 15x15 kernel.
func SigmaFor(ksize int) float32 {
	return 0.3*(float32(ksize-1)*0.5-1) + 0.8
}

// GaussianKernel returns the normalised 1-D Gaussian weights for ksize taps.
//
// A non-positive sigma is derived with SigmaFor. Blur applies these weights
// with SepFilter2D whenever they match OpenCV's own choice, which is any
// kernel above 7 taps or an explicit sigma. For ksize <= 7 with derived sigma
// OpenCV uses fixed binomial tables instead, so Blur defers to GaussianBlur.
func GaussianKernel(ksize int, sigma float32) []float32 {
	if ksize <= 0 {
		return nil
	}
	if sigma <= 0 {
		sigma = SigmaFor(ksize)
	}

	weights := make([]float32, ksize)
	center := float32(ksize-1) / 2
	scale := -0.5 / (sigma * sigma)

	var sum float32
	for i := range weights {
		d := float32(i) - center
		weights[i] = math32.Exp(scale * d * d)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
