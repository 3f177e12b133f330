package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Cascade is a loaded face classifier.
//
// Implementations are not required to be safe for concurrent use; Model
// serialises calls into Detect.
type Cascade interface {
	// Ready reports whether the model data was loaded successfully.
	Ready() bool
	// Detect searches an equalised 8-bit grayscale frame.
	Detect(gray gocv.Mat, p Params) []image.Rectangle
	// Close frees native resources.
	Close() error
}

// Loader builds a cascade from a model file. A failed load returns a cascade
// that is not ready, never nil, together with the reason.
type Loader func(path string) (Cascade, error)

// LoaderFor returns the loader for a backend.
func LoaderFor(b Backend) (Loader, error) {
	b, err := ParseBackend(string(b))
	if err != nil {
		return nil, err
	}
	if b == BackendPico {
		return loadPico, nil
	}
	return loadHaar, nil
}
