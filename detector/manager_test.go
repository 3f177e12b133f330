package detector

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/test"
)

// fakeCascade records misuse instead of touching native memory.
type fakeCascade struct {
	name       string
	ready      bool
	rects      []image.Rectangle
	closed     atomic.Bool
	active     atomic.Int32
	violations *atomic.Int64
}

func (f *fakeCascade) Ready() bool { return f.ready }

func (f *fakeCascade) Detect(gocv.Mat, Params) []image.Rectangle {
	if f.active.Inc() > 1 && f.violations != nil {
		f.violations.Inc()
	}
	defer f.active.Dec()
	if f.closed.Load() && f.violations != nil {
		f.violations.Inc()
	}
	return f.rects
}

func (f *fakeCascade) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeLoader struct {
	mu       sync.Mutex
	loaded   []*fakeCascade
	ready    func(path string) bool
	rects    []image.Rectangle
	violated atomic.Int64
}

func (l *fakeLoader) Load(path string) (Cascade, error) {
	c := &fakeCascade{name: path, ready: l.ready == nil || l.ready(path), rects: l.rects, violations: &l.violated}

	l.mu.Lock()
	l.loaded = append(l.loaded, c)
	l.mu.Unlock()

	if !c.ready {
		return c, errors.New("fake: not ready")
	}
	return c, nil
}

func newTestManager(t *testing.T, loader *fakeLoader) (*Manager, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	m, err := NewManager(BackendHaar, WithLoader(loader.Load), WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, hook
}

func TestNewManagerIsUnloaded(t *testing.T) {
	m, err := NewManager(BackendHaar)
	require.NoError(t, err)

	assert.False(t, m.IsReady())
	assert.Empty(t, m.Path())

	model, release := m.Acquire()
	defer release()
	assert.Nil(t, model)
	assert.False(t, model.Ready())

	_, err = NewManager("hog")
	assert.Error(t, err)
}

func TestLoadNonexistentPath(t *testing.T) {
	for _, backend := range []Backend{BackendHaar, BackendPico} {
		t.Run(string(backend), func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			m, err := NewManager(backend, WithLogger(logger))
			require.NoError(t, err)
			defer m.Close()

			path := filepath.Join(t.TempDir(), "missing.xml")
			err = m.Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotReady))
			assert.False(t, m.IsReady())
			assert.Equal(t, path, m.Path())

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
			assert.Equal(t, "detector", hook.LastEntry().Data["subsystem"])
		})
	}
}

func TestLoadMalformedPicoCascade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6, 7}, 0o600))

	logger, _ := logtest.NewNullLogger()
	m, err := NewManager(BackendPico, WithLogger(logger))
	require.NoError(t, err)
	defer m.Close()

	assert.NotPanics(t, func() { err = m.Load(path) })
	assert.Error(t, err)
	assert.False(t, m.IsReady())
}

func TestLoadSuccess(t *testing.T) {
	loader := &fakeLoader{}
	m, hook := newTestManager(t, loader)

	require.NoError(t, m.Load("a.xml"))
	assert.True(t, m.IsReady())
	assert.Equal(t, "a.xml", m.Path())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestReloadReplacesModel(t *testing.T) {
	loader := &fakeLoader{ready: func(path string) bool { return path == "good.xml" }}
	m, _ := newTestManager(t, loader)

	require.NoError(t, m.Load("good.xml"))
	require.True(t, m.IsReady())

	assert.Error(t, m.Load("bad.xml"))
	assert.False(t, m.IsReady(), "a failed reload replaces the previous model")
	assert.Equal(t, "bad.xml", m.Path())
	assert.True(t, loader.loaded[0].closed.Load(), "unpinned old model is closed at once")

	require.NoError(t, m.Load("good.xml"))
	assert.True(t, m.IsReady())
}

func TestRetiredModelClosesAfterLastRelease(t *testing.T) {
	loader := &fakeLoader{}
	m, _ := newTestManager(t, loader)

	require.NoError(t, m.Load("first.xml"))
	model, release := m.Acquire()
	require.NotNil(t, model)

	require.NoError(t, m.Load("second.xml"))
	first := loader.loaded[0]
	assert.False(t, first.closed.Load(), "pinned model must stay open")
	assert.True(t, model.Ready(), "pinned model stays usable after a reload")

	release()
	assert.True(t, first.closed.Load())

	release()
	assert.False(t, loader.loaded[1].closed.Load(), "double release must not touch the new model")
}

func TestCloseRetiresModel(t *testing.T) {
	loader := &fakeLoader{}
	m, _ := newTestManager(t, loader)

	require.NoError(t, m.Load("a.xml"))
	require.NoError(t, m.Close())
	assert.False(t, m.IsReady())
	assert.True(t, loader.loaded[0].closed.Load())
}

func TestConcurrentLoadAndDetect(t *testing.T) {
	face := image.Rect(10, 10, 50, 50)
	loader := &fakeLoader{
		rects: []image.Rectangle{face},
		ready: func(path string) bool { return path != "broken.xml" },
	}
	m, _ := newTestManager(t, loader)
	stage := NewStage(m, DefaultParams(), nil)

	gen := test.NewMockFrameGenerator(64, 64)
	in := gen.GenerateGrayFrame(80)
	defer in.Close()

	const workers = 8
	const iterations = 200

	var wg sync.WaitGroup
	var torn atomic.Int64

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				res, err := stage.Detect(frame.ViewOf(&in))
				if err != nil || res == nil {
					torn.Inc()
					continue
				}
				if len(res) != 0 && (len(res) != 1 || res[0] != face) {
					torn.Inc()
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		paths := []string{"a.xml", "b.xml", "broken.xml"}
		for i := 0; i < iterations; i++ {
			_ = m.Load(paths[i%len(paths)])
		}
	}()

	wg.Wait()

	assert.Zero(t, torn.Load(), "every detection sees an old or new model")
	assert.Zero(t, loader.violated.Load(), "no detection ran on a closed or shared cascade")

	require.NoError(t, m.Close())
	for _, c := range loader.loaded {
		assert.True(t, c.closed.Load(), "model %s leaked", c.name)
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendHaar, b)

	b, err = ParseBackend(" PICO ")
	require.NoError(t, err)
	assert.Equal(t, BackendPico, b)

	_, err = ParseBackend("dnn")
	assert.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	pico := DefaultParams()
	pico.Backend = BackendPico
	require.NoError(t, pico.Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"scale factor", func(p *Params) { p.ScaleFactor = 1 }},
		{"negative neighbours", func(p *Params) { p.MinNeighbors = -1 }},
		{"max below min", func(p *Params) { p.MaxSize = 10 }},
		{"unknown backend", func(p *Params) { p.Backend = "dnn" }},
		{"pico shift", func(p *Params) { p.Backend = BackendPico; p.ShiftFactor = 0 }},
		{"pico window cannot grow", func(p *Params) { p.Backend = BackendPico; p.MinSize = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestUniformColorFrame(t *testing.T) {
	// The generator's uniform RGBA frames are valid detection input.
	gen := test.NewMockFrameGenerator(32, 32)
	in := gen.GenerateUniformFrame(color.RGBA{200, 150, 100, 255})
	defer in.Close()

	m, err := NewManager(BackendHaar)
	require.NoError(t, err)
	res, err := NewStage(m, DefaultParams(), nil).Detect(frame.ViewOf(&in))
	require.NoError(t, err)
	assert.Empty(t, res)
}
