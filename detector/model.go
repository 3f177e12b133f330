package detector

import (
	"image"
	"sync"
	"time"

	"go.uber.org/atomic"
	"gocv.io/x/gocv"
)

// Model is one loaded cascade installed in a Manager.
//
// A model is immutable once published. Readers pin it with Manager.Acquire;
// after a reload retires it, the cascade is closed when the last pin is released.
type Model struct {
	Backend  Backend
	Path     string
	LoadedAt time.Time

	cascade Cascade
	// mu serialises Detect; OpenCV does not promise a classifier is reentrant.
	mu sync.Mutex

	refs      atomic.Int64
	retired   atomic.Bool
	closeOnce sync.Once
}

func newModel(backend Backend, path string, cascade Cascade) *Model {
	return &Model{
		Backend:  backend,
		Path:     path,
		LoadedAt: time.Now(),
		cascade:  cascade,
	}
}

// Ready reports whether the model can run detections. A nil model is not ready.
func (m *Model) Ready() bool {
	return m != nil && m.cascade != nil && m.cascade.Ready()
}

// Detect runs the cascade on an equalised grayscale frame.
func (m *Model) Detect(gray gocv.Mat, p Params) []image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cascade.Detect(gray, p)
}

// pin takes a reference. It fails once the model has been retired.
func (m *Model) pin() bool {
	m.refs.Inc()
	if m.retired.Load() {
		m.unpin()
		return false
	}
	return true
}

func (m *Model) unpin() {
	if m.refs.Dec() == 0 && m.retired.Load() {
		m.close()
	}
}

// retire marks the model as replaced and closes it if nobody holds a pin.
func (m *Model) retire() {
	m.retired.Store(true)
	if m.refs.Load() == 0 {
		m.close()
	}
}

func (m *Model) close() {
	m.closeOnce.Do(func() {
		if m.cascade != nil {
			_ = m.cascade.Close()
		}
	})
}
