package main

import (
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/images"
	"github.com/nvr-ai/go-framekit/pipeline"
)

var (
	webcamDevice  int
	webcamOp      string
	webcamCascade string
	webcamRotate  int
	webcamSize    string
)

var webcamCmd = &cobra.Command{
	Use:   "webcam",
	Short: "Run the pipeline live on a capture device",
	Long: `Reads frames from a capture device, applies the selected operation,
outlines detected faces and shows the result in a window.

Send SIGHUP to reload the face cascade from disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWebcam(cmd)
	},
}

func runWebcam(cmd *cobra.Command) error {
	op, err := pipeline.ParseOperation(webcamOp)
	if err != nil {
		return err
	}
	if webcamCascade != "" {
		cfg.Detection.ModelPath = webcamCascade
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	// open webcam
	webcam, err := gocv.OpenVideoCapture(webcamDevice)
	if err != nil {
		return errors.Wrapf(err, "open capture device %d", webcamDevice)
	}
	defer webcam.Close()

	if webcamSize != "" {
		res, err := images.ParseResolution(webcamSize)
		if err != nil {
			return err
		}
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))
		fmt.Printf("requested capture size %s\n", res)
	}

	// open display window
	window := gocv.NewWindow(fmt.Sprintf("framekit: %s", op))
	defer window.Close()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	capture := gocv.NewMat()
	defer capture.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()
	oriented := gocv.NewMat()
	defer oriented.Close()
	filtered := gocv.NewMat()
	defer filtered.Close()
	display := gocv.NewMat()
	defer display.Close()

	// color for the rect when faces detected
	blue := color.RGBA{0, 0, 255, 0}

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	ctx := cmd.Context()
	fmt.Printf("start reading camera device: %v\n", webcamDevice)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reload:
			if path := p.ModelPath(); path != "" {
				p.LoadFaceCascade(path)
				fmt.Printf("reloaded %s (ready=%v)\n", path, p.IsReady())
			}
		default:
		}

		if ok := webcam.Read(&capture); !ok {
			return errors.Errorf("cannot read device %v", webcamDevice)
		}
		if capture.Empty() {
			continue
		}

		// Update FPS calculation
		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		if err := images.BGRToRGBA(capture, &rgba); err != nil {
			return err
		}
		faces, err := liveFrame(p, op, &rgba, &oriented, &filtered, webcamRotate)
		if err != nil {
			logger.WithError(err).Warn("Dropping frame")
			continue
		}
		fmt.Printf("found %d faces | FPS: %.2f\n", len(faces), fps)

		if err := toDisplay(filtered, &display); err != nil {
			return err
		}

		// draw a rectangle around each face on the displayed image
		for _, r := range faces {
			gocv.Rectangle(&display, r, blue, 3)
		}

		// show the image in the window, and wait 1 millisecond
		window.IMShow(display)
		if window.WaitKey(1) == 27 {
			return nil
		}
	}
}

// toDisplay converts a pipeline output into the BGR layout highgui expects.
func toDisplay(src gocv.Mat, dst *gocv.Mat) error {
	if src.Channels() == 1 {
		return errors.Wrap(gocv.CvtColor(src, dst, gocv.ColorGrayToBGR), "gray to bgr")
	}
	return images.RGBAToBGR(src, dst)
}

func init() {
	webcamCmd.Flags().IntVar(&webcamDevice, "device", 0, "Capture device index")
	webcamCmd.Flags().StringVar(&webcamOp, "op", string(pipeline.OpNormal), "Operation: normal, gray, blur or edges")
	webcamCmd.Flags().StringVar(&webcamCascade, "cascade", "", "Face cascade (overrides detection.model_path)")
	webcamCmd.Flags().IntVar(&webcamRotate, "rotate", 0, "Clockwise rotation applied to every frame")
	webcamCmd.Flags().StringVar(&webcamSize, "resolution", "", "Capture size, e.g. 720p or 1280x720")
	rootCmd.AddCommand(webcamCmd)
}
