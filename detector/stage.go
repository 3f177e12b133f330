package detector

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/images"
)

// Stage runs face detection against whatever model the manager holds.
type Stage struct {
	manager *Manager
	params  Params
	log     logrus.FieldLogger
}

// NewStage binds search parameters to a manager.
func NewStage(manager *Manager, params Params, log logrus.FieldLogger) *Stage {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Stage{
		manager: manager,
		params:  params,
		log:     log.WithField("subsystem", "detect"),
	}
}

// Params returns the search parameters.
func (s *Stage) Params() Params {
	return s.params
}

// Detect finds faces in an RGBA or grayscale frame.
//
// The frame is converted to gray and histogram-equalised before the model is
// consulted. Without a ready model the result is empty and no error is returned.
//
// Arguments:
// - in: The input frame. It is not modified.
//
// Returns:
// - The detected rectangles, possibly empty but never nil.
// - error: ErrEmptyFrame, ErrChannelLayout or a wrapped OpenCV error.
func (s *Stage) Detect(in frame.View) (Result, error) {
	if in.Empty() {
		return Result{}, frame.ErrEmptyFrame
	}

	gray := gocv.NewMat()
	defer gray.Close()

	var err error
	switch in.Layout {
	case frame.LayoutRGBA:
		err = images.ToGrayscale(*in.Mat, &gray)
	case frame.LayoutGray:
		err = in.Mat.CopyTo(&gray)
	default:
		err = errors.Wrapf(frame.ErrChannelLayout, "want rgba or gray, have %s", in)
	}
	if err != nil {
		return Result{}, err
	}

	equalized := gocv.NewMat()
	defer equalized.Close()
	if err := gocv.EqualizeHist(gray, &equalized); err != nil {
		return Result{}, errors.Wrap(err, "equalize histogram")
	}

	model, release := s.manager.Acquire()
	defer release()

	if !model.Ready() {
		s.log.Debug("Face cascade not loaded, skipping detection")
		return Result{}, nil
	}

	rects := model.Detect(equalized, s.params)
	if rects == nil {
		return Result{}, nil
	}
	return Result(rects), nil
}
