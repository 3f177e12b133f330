// Package detector owns the face-detection model and runs the detection stage.
package detector

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// ErrNotReady is returned by Load when the model could not be installed in a ready state.
var ErrNotReady = errors.New("detector: model not ready")

// Manager holds the process's single face-detection model.
//
// Load may be called at any time, including while other goroutines detect.
// Readers never block on a load: they see either the previous model or the
// new one, fully constructed.
type Manager struct {
	backend Backend
	load    Loader
	log     logrus.FieldLogger

	// loadMu serialises Load and Close.
	loadMu sync.Mutex
	slot   atomic.Pointer[Model]
}

// Option customises a Manager.
type Option func(*Manager)

// WithLoader replaces the backend loader.
func WithLoader(l Loader) Option {
	return func(m *Manager) {
		m.load = l
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates an unloaded manager for a backend.
//
// Arguments:
// - backend: The cascade implementation used by Load.
// - opts: Optional loader and logger overrides.
//
// Returns:
// - A manager with no model installed; IsReady reports false until a successful Load.
// - error: Error if the backend is unknown.
func NewManager(backend Backend, opts ...Option) (*Manager, error) {
	backend, err := ParseBackend(string(backend))
	if err != nil {
		return nil, err
	}

	load, err := LoaderFor(backend)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		backend: backend,
		load:    load,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("subsystem", "detector")
	return m, nil
}

// Load reads the model at path and installs it, replacing any previous model.
//
// The new model is installed even when it failed to load, so a bad reload
// leaves the manager not ready rather than silently serving the old model.
//
// Arguments:
// - path: Filesystem path of the cascade file.
//
// Returns:
// - ErrNotReady wrapped with the load failure.
func (m *Manager) Load(path string) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	entry := m.log.WithFields(logrus.Fields{"path": path, "backend": m.backend})

	cascade, loadErr := m.load(path)
	model := newModel(m.backend, path, cascade)

	if old := m.slot.Swap(model); old != nil {
		old.retire()
	}

	if loadErr != nil || !model.Ready() {
		if loadErr == nil {
			loadErr = errors.New("cascade reports not ready")
		}
		entry.WithError(loadErr).Error("Failed to load face cascade")
		return errors.Wrapf(ErrNotReady, "load %s: %v", path, loadErr)
	}

	entry.Debug("Face cascade loaded")
	return nil
}

// IsReady reports whether a ready model is installed.
func (m *Manager) IsReady() bool {
	return m.slot.Load().Ready()
}

// Path returns the path of the installed model, or "" when unloaded.
func (m *Manager) Path() string {
	if model := m.slot.Load(); model != nil {
		return model.Path
	}
	return ""
}

// Acquire pins the installed model for the duration of one detection.
//
// Returns:
// - The model, or nil when none is installed.
// - A release func that must be called exactly once, also when the model is nil.
func (m *Manager) Acquire() (*Model, func()) {
	for {
		model := m.slot.Load()
		if model == nil {
			return nil, func() {}
		}
		if model.pin() {
			var once sync.Once
			return model, func() { once.Do(model.unpin) }
		}
		// Retired between Load and pin; the slot already holds its replacement.
	}
}

// Close uninstalls the model. In-flight detections finish on the old model.
func (m *Manager) Close() error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if old := m.slot.Swap(nil); old != nil {
		old.retire()
	}
	return nil
}
