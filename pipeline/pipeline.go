// Package pipeline is the entry point the host calls once per frame.
//
// Every operation takes handles to caller-owned buffers, runs one stage and
// returns nothing: failures are logged and counted, never propagated, so a
// bad frame can not take down the capture loop.
package pipeline

import (
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/config"
	"github.com/nvr-ai/go-framekit/detector"
	"github.com/nvr-ai/go-framekit/filters"
	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/logging"
	"github.com/nvr-ai/go-framekit/profiler"
)

// Operation names used for logging and profiling beyond the dispatchable transforms.
const (
	opRotate = "rotate"
	opDetect = "detect"
	opLoad   = "load"
)

// Pipeline routes frames to the filter and detection stages.
type Pipeline struct {
	cfg      config.Config
	manager  *detector.Manager
	detect   *detector.Stage
	profiler *profiler.RuntimeProfiler
	log      logrus.FieldLogger
	loader   detector.Loader
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the base logger. Each stage adds its subsystem field.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithProfiler replaces the pipeline's profiler.
func WithProfiler(rp *profiler.RuntimeProfiler) Option {
	return func(p *Pipeline) {
		p.profiler = rp
	}
}

// WithLoader replaces the detector backend's model loader.
func WithLoader(l detector.Loader) Option {
	return func(p *Pipeline) {
		p.loader = l
	}
}

// New builds a pipeline from a validated configuration.
//
// When cfg.Detection.ModelPath is set the model is loaded immediately; a
// failed load is logged and leaves the detector not ready.
//
// Arguments:
// - cfg: Pipeline settings.
// - opts: Optional logger, profiler and loader overrides.
//
// Returns:
// - The pipeline.
// - error: Error if cfg is invalid.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg: cfg,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logging.For(p.log, logging.Root)

	if p.profiler == nil {
		p.profiler = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
			ReportInterval: cfg.Profiling.ReportInterval,
			MaxSamples:     cfg.Profiling.MaxSamples,
			Logger:         p.log,
		})
	}
	if cfg.Profiling.Enabled {
		p.profiler.Start()
	}

	managerOpts := []detector.Option{detector.WithLogger(p.log)}
	if p.loader != nil {
		managerOpts = append(managerOpts, detector.WithLoader(p.loader))
	}
	manager, err := detector.NewManager(cfg.Detection.Backend, managerOpts...)
	if err != nil {
		return nil, err
	}
	p.manager = manager
	p.detect = detector.NewStage(manager, cfg.Detection, p.log)

	if cfg.Detection.ModelPath != "" {
		p.LoadFaceCascade(cfg.Detection.ModelPath)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Profiler returns the profiler collecting operation timings.
func (p *Pipeline) Profiler() *profiler.RuntimeProfiler {
	return p.profiler
}

// Close stops the profiler and releases the face model.
func (p *Pipeline) Close() error {
	p.profiler.Stop()
	return p.manager.Close()
}

// ConvertToGray writes the luma of the RGBA frame in into out.
func (p *Pipeline) ConvertToGray(in, out frame.Handle) {
	p.run(OpGray.String(), "Grayscale conversion done", in, out, frame.LayoutGray,
		func(src frame.View, dst *gocv.Mat) error {
			return filters.Grayscale(src, dst)
		})
}

// ApplyBlur writes a Gaussian-blurred copy of in into out.
func (p *Pipeline) ApplyBlur(in, out frame.Handle) {
	p.run(OpBlur.String(), "Blur applied", in, out, frame.LayoutUnknown,
		func(src frame.View, dst *gocv.Mat) error {
			return filters.Blur(src, dst, p.cfg.Blur)
		})
}

// DetectEdges writes a four-channel Canny edge map of in into out.
func (p *Pipeline) DetectEdges(in, out frame.Handle) {
	p.run(OpEdges.String(), "Edges detected", in, out, frame.LayoutRGBA,
		func(src frame.View, dst *gocv.Mat) error {
			return filters.Edges(src, dst, p.cfg.Edges)
		})
}

// Passthrough copies in into out unchanged.
func (p *Pipeline) Passthrough(in, out frame.Handle) {
	p.run(OpNormal.String(), "Frame copied", in, out, frame.LayoutUnknown,
		func(src frame.View, dst *gocv.Mat) error {
			return filters.Passthrough(src, dst)
		})
}

// Rotate writes in rotated clockwise by degrees (a multiple of 90) into out.
func (p *Pipeline) Rotate(in, out frame.Handle, degrees int) {
	log := logging.For(p.log, opRotate).WithField("degrees", degrees)
	done := p.profiler.StartOperation(opRotate)
	defer done()

	if err := filters.Rotate(in.View(), out.Mat(), degrees); err != nil {
		p.profiler.RecordFailure(opRotate)
		log.WithError(err).Error("Rotation failed")
		return
	}
	log.Debug("Frame rotated")
}

// Dispatch routes a frame to the transform named by op. Unknown operations
// are logged and ignored.
func (p *Pipeline) Dispatch(op Operation, in, out frame.Handle) {
	switch op {
	case OpNormal:
		p.Passthrough(in, out)
	case OpGray:
		p.ConvertToGray(in, out)
	case OpBlur:
		p.ApplyBlur(in, out)
	case OpEdges:
		p.DetectEdges(in, out)
	default:
		p.log.WithField("operation", string(op)).Error("Unknown operation")
	}
}

// DispatchName parses name and dispatches it.
func (p *Pipeline) DispatchName(name string, in, out frame.Handle) {
	op, err := ParseOperation(name)
	if err != nil {
		p.log.WithError(err).Error("Unknown operation")
		return
	}
	p.Dispatch(op, in, out)
}

// LoadFaceCascade installs the face model at path, replacing any previous
// one. On failure the detector is left not ready.
func (p *Pipeline) LoadFaceCascade(path string) {
	done := p.profiler.StartOperation(opLoad)
	defer done()

	// The manager logs the outcome itself.
	if err := p.manager.Load(path); err != nil {
		p.profiler.RecordFailure(opLoad)
	}
}

// IsReady reports whether a face model is loaded.
func (p *Pipeline) IsReady() bool {
	return p.manager.IsReady()
}

// ModelPath returns the path of the installed face model.
func (p *Pipeline) ModelPath() string {
	return p.manager.Path()
}

// DetectFaces returns the faces in in as consecutive x, y, width, height
// values. The list is empty when no model is loaded or detection fails.
func (p *Pipeline) DetectFaces(in frame.Handle) []int64 {
	res := p.Faces(in)
	return res.Flatten()
}

// Faces is DetectFaces without the flattening.
func (p *Pipeline) Faces(in frame.Handle) detector.Result {
	log := logging.For(p.log, opDetect)
	done := p.profiler.StartOperation(opDetect)
	defer done()

	res, err := p.detect.Detect(in.View())
	if err != nil {
		p.profiler.RecordFailure(opDetect)
		log.WithError(err).Error("Face detection failed")
		return detector.Result{}
	}

	p.profiler.RecordMetric("faces", float64(len(res)))
	log.WithField("faces", len(res)).Debug("Face detection done")
	return res
}

// run executes one filter stage with logging, profiling and the optional
// geometry check. A layout of LayoutUnknown means the stage keeps the
// input's Mat type.
func (p *Pipeline) run(name, success string, in, out frame.Handle, layout frame.Layout, stage func(frame.View, *gocv.Mat) error) {
	log := logging.For(p.log, name)
	done := p.profiler.StartOperation(name)
	defer done()

	src := in.View()
	dst := out.Mat()

	var err error
	if p.cfg.StrictGeometry {
		err = filters.CheckOutput(src, dst, layout)
	}
	if err == nil {
		err = stage(src, dst)
	}
	if err != nil {
		p.profiler.RecordFailure(name)
		log.WithError(err).WithField("input", src.String()).Error("Operation failed")
		return
	}
	log.Debug(success)
}
