package filters

import (
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// BorderMode names how the blur samples pixels outside the frame.
type BorderMode string

const (
	// BorderReflect101 mirrors around the edge pixel without repeating it (gfedcb|abcdefgh|gfedcba).
	BorderReflect101 BorderMode = "reflect101"
	// BorderReplicate repeats the edge pixel (aaaaaa|abcdefgh|hhhhhhh).
	BorderReplicate BorderMode = "replicate"
	// BorderReflect mirrors around the edge including the edge pixel (fedcba|abcdefgh|hgfedcb).
	BorderReflect BorderMode = "reflect"
	// BorderConstant pads with zeros.
	BorderConstant BorderMode = "constant"
)

// Type maps the mode onto OpenCV's border enum.
func (b BorderMode) Type() (gocv.BorderType, error) {
	switch BorderMode(strings.ToLower(string(b))) {
	case "", "default", BorderReflect101:
		return gocv.BorderReflect101, nil
	case BorderReplicate:
		return gocv.BorderReplicate, nil
	case BorderReflect:
		return gocv.BorderReflect, nil
	case BorderConstant:
		return gocv.BorderConstant, nil
	default:
		return gocv.BorderDefault, errors.Errorf("filters: unknown border mode %q", string(b))
	}
}

// BlurOptions configures the Gaussian blur stage.
type BlurOptions struct {
	// KernelSize is the side of the square kernel. Must be odd and positive.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
	// SigmaX is the horizontal standard deviation. 0 derives it from KernelSize.
	SigmaX float64 `json:"sigma_x" yaml:"sigma_x"`
	// SigmaY is the vertical standard deviation. 0 copies SigmaX.
	SigmaY float64 `json:"sigma_y" yaml:"sigma_y"`
	// Border selects the extrapolation used near the frame edges.
	Border BorderMode `json:"border" yaml:"border"`
}

// DefaultBlurOptions returns a 15x15 kernel with derived sigma and reflect-101
// borders.
//
// Reflect-101 is OpenCV's BORDER_DEFAULT (gfedcb|abcdefgh|gfedcba), not edge
// replication (aaaaaa|abcdefgh|hhhhhhh). Set Border to BorderReplicate for the
// latter.
func DefaultBlurOptions() BlurOptions {
	return BlurOptions{
		KernelSize: 15,
		Border:     BorderReflect101,
	}
}

// Validate checks the kernel and border settings.
func (o BlurOptions) Validate() error {
	if o.KernelSize <= 0 || o.KernelSize%2 == 0 {
		return errors.Errorf("filters: blur kernel size must be odd and positive, got %d", o.KernelSize)
	}
	if o.SigmaX < 0 || o.SigmaY < 0 {
		return errors.New("filters: blur sigma must not be negative")
	}
	_, err := o.Border.Type()
	return err
}

// separable reports whether GaussianKernel reproduces OpenCV's weights for
// these options.
func (o BlurOptions) separable() bool {
	return o.KernelSize > 7 || o.SigmaX > 0
}

// EdgeOptions configures the Canny edge stage.
type EdgeOptions struct {
	// LowThreshold is the hysteresis threshold below which gradients are discarded.
	LowThreshold float32 `json:"low_threshold" yaml:"low_threshold"`
	// HighThreshold is the gradient magnitude that starts an edge.
	HighThreshold float32 `json:"high_threshold" yaml:"high_threshold"`
}

// DefaultEdgeOptions returns the 50/150 hysteresis thresholds.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		LowThreshold:  50,
		HighThreshold: 150,
	}
}

// Validate checks the thresholds are ordered and non-negative.
func (o EdgeOptions) Validate() error {
	if o.LowThreshold < 0 || o.HighThreshold < o.LowThreshold {
		return errors.Errorf("filters: edge thresholds must satisfy 0 <= low <= high, got %v/%v",
			o.LowThreshold, o.HighThreshold)
	}
	return nil
}
