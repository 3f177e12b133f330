package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/detector"
	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/images"
	"github.com/nvr-ai/go-framekit/pipeline"
)

var filterDescriptions = map[pipeline.Operation]string{
	pipeline.OpNormal: "Copy an image unchanged (optionally rotated)",
	pipeline.OpGray:   "Convert an image to grayscale",
	pipeline.OpBlur:   "Apply a Gaussian blur to an image",
	pipeline.OpEdges:  "Draw the Canny edge map of an image",
}

func newFilterCmd(op pipeline.Operation) *cobra.Command {
	var input, output string
	var rotate int

	cmd := &cobra.Command{
		Use:   op.String(),
		Short: filterDescriptions[op],
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(op, input, output, rotate)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input image")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image; format follows the extension")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "Clockwise rotation applied before the filter (multiple of 90)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runFilter(op pipeline.Operation, input, output string, rotate int) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	src, err := images.Load(input)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := processFrame(p, op, &src, &dst, rotate); err != nil {
		return err
	}
	if err := images.Save(output, dst); err != nil {
		return err
	}

	fmt.Printf("✅ %s: %s -> %s (%dx%d)\n", op, input, output, dst.Cols(), dst.Rows())
	return nil
}

// processFrame rotates src when asked and dispatches op into dst.
//
// The pipeline logs failures rather than returning them, so an empty dst is
// the only signal the CLI gets.
func processFrame(p *pipeline.Pipeline, op pipeline.Operation, src, dst *gocv.Mat, rotate int) error {
	rotated := gocv.NewMat()
	defer rotated.Close()

	in, err := orient(p, src, &rotated, rotate)
	if err != nil {
		return err
	}
	return dispatch(p, op, in, dst)
}

// liveFrame orients a camera frame, detects faces on it and filters it into
// dst. Faces come from the oriented camera frame, never from the filter
// output, so their coordinates match dst for every operation.
func liveFrame(p *pipeline.Pipeline, op pipeline.Operation, src, oriented, dst *gocv.Mat, rotate int) (detector.Result, error) {
	in, err := orient(p, src, oriented, rotate)
	if err != nil {
		return nil, err
	}

	faces := detector.Result{}
	if p.IsReady() {
		h := frame.Register(in)
		faces = p.Faces(h)
		h.Release()
	}
	return faces, dispatch(p, op, in, dst)
}

// orient returns src itself when rotate is a multiple of 360, otherwise it
// rotates src into scratch and returns scratch.
func orient(p *pipeline.Pipeline, src, scratch *gocv.Mat, rotate int) (*gocv.Mat, error) {
	if rotate%360 == 0 {
		return src, nil
	}

	hs, hr := frame.Register(src), frame.Register(scratch)
	p.Rotate(hs, hr, rotate)
	hs.Release()
	hr.Release()

	if scratch.Empty() {
		return nil, errors.Errorf("rotate %d failed, see log", rotate)
	}
	return scratch, nil
}

func dispatch(p *pipeline.Pipeline, op pipeline.Operation, in, dst *gocv.Mat) error {
	hin, hout := frame.Register(in), frame.Register(dst)
	defer hin.Release()
	defer hout.Release()

	p.Dispatch(op, hin, hout)
	if dst.Empty() {
		return errors.Errorf("%s produced no output, see log", op)
	}
	return nil
}

func init() {
	for _, op := range pipeline.Operations {
		rootCmd.AddCommand(newFilterCmd(op))
	}
}
