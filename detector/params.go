package detector

import (
	"strings"

	"github.com/pkg/errors"
)

// Backend names a cascade implementation.
type Backend string

const (
	// BackendHaar loads OpenCV XML cascades through gocv.
	BackendHaar Backend = "haar"
	// BackendPico loads pigo binary cascades and runs them in pure Go.
	BackendPico Backend = "pico"
)

// ParseBackend resolves a backend name, defaulting to haar when empty.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "", BackendHaar:
		return BackendHaar, nil
	case BackendPico:
		return BackendPico, nil
	default:
		return "", errors.Errorf("detector: unknown backend %q", name)
	}
}

// Params configures a multi-scale cascade search.
type Params struct {
	// Backend selects the cascade implementation.
	Backend Backend `json:"backend" yaml:"backend"`
	// ModelPath is loaded when the pipeline starts. Empty leaves the detector unloaded.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// ScaleFactor is the ratio between consecutive search window sizes. Must exceed 1.
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`
	// MinNeighbors is how many overlapping raw hits a detection needs to be kept.
	MinNeighbors int `json:"min_neighbors" yaml:"min_neighbors"`
	// Flags is passed through to OpenCV and ignored by the pico backend.
	Flags int `json:"flags" yaml:"flags"`
	// MinSize is the smallest face side in pixels.
	MinSize int `json:"min_size" yaml:"min_size"`
	// MaxSize is the largest face side in pixels. 0 means unbounded.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// ShiftFactor is the pico window step as a fraction of the window size.
	ShiftFactor float64 `json:"shift_factor" yaml:"shift_factor"`
	// IoUThreshold groups pico hits into one detection.
	IoUThreshold float64 `json:"iou_threshold" yaml:"iou_threshold"`
	// MinQuality drops pico clusters whose summed score is below it.
	MinQuality float32 `json:"min_quality" yaml:"min_quality"`
}

// DefaultParams returns the face search settings: scale 1.1, three
// neighbours, no flags, 30x30 minimum and no maximum.
func DefaultParams() Params {
	return Params{
		Backend:      BackendHaar,
		ScaleFactor:  1.1,
		MinNeighbors: 3,
		MinSize:      30,
		ShiftFactor:  0.1,
		IoUThreshold: 0.2,
		MinQuality:   5,
	}
}

// Validate checks the search parameters.
func (p Params) Validate() error {
	if _, err := ParseBackend(string(p.Backend)); err != nil {
		return err
	}
	if p.ScaleFactor <= 1 {
		return errors.Errorf("detector: scale factor must exceed 1, got %v", p.ScaleFactor)
	}
	if p.MinNeighbors < 0 {
		return errors.Errorf("detector: min neighbours must not be negative, got %d", p.MinNeighbors)
	}
	if p.MinSize < 0 || p.MaxSize < 0 {
		return errors.New("detector: sizes must not be negative")
	}
	if p.MaxSize > 0 && p.MaxSize < p.MinSize {
		return errors.Errorf("detector: max size %d is below min size %d", p.MaxSize, p.MinSize)
	}
	if p.Backend == BackendPico {
		if p.ShiftFactor <= 0 || p.ShiftFactor > 1 {
			return errors.Errorf("detector: shift factor must be in (0, 1], got %v", p.ShiftFactor)
		}
		if p.IoUThreshold < 0 || p.IoUThreshold > 1 {
			return errors.Errorf("detector: iou threshold must be in [0, 1], got %v", p.IoUThreshold)
		}
		// pigo truncates the grown window to an int, so it must grow by at least a pixel.
		if float64(p.MinSize)*(p.ScaleFactor-1) < 1 {
			return errors.Errorf("detector: min size %d too small for scale factor %v", p.MinSize, p.ScaleFactor)
		}
	}
	return nil
}
