package main

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/detector"
	"github.com/nvr-ai/go-framekit/frame"
	"github.com/nvr-ai/go-framekit/images"
)

var (
	detectInput   string
	detectOutput  string
	detectCascade string
	detectBackend string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect faces in an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func runDetect() error {
	if detectBackend != "" {
		backend, err := detector.ParseBackend(detectBackend)
		if err != nil {
			return err
		}
		cfg.Detection.Backend = backend
	}
	if detectCascade != "" {
		cfg.Detection.ModelPath = detectCascade
	}
	if cfg.Detection.ModelPath == "" {
		return errors.New("no cascade given: pass --cascade or set detection.model_path")
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	if !p.IsReady() {
		return errors.Errorf("cascade %s could not be loaded", cfg.Detection.ModelPath)
	}

	img, err := images.Load(detectInput)
	if err != nil {
		return err
	}
	defer img.Close()

	h := frame.Register(&img)
	faces := p.Faces(h)
	h.Release()

	fmt.Printf("found %d faces in %s\n", len(faces), detectInput)
	for _, box := range faces.Boxes() {
		fmt.Printf("  %s\n", box)
	}

	if detectOutput == "" {
		return nil
	}

	green := color.RGBA{0, 255, 0, 255}
	for _, r := range faces {
		gocv.Rectangle(&img, r, green, 3)
	}
	return images.Save(detectOutput, img)
}

func init() {
	detectCmd.Flags().StringVarP(&detectInput, "input", "i", "", "Input image")
	detectCmd.Flags().StringVarP(&detectOutput, "output", "o", "", "Optional annotated output image")
	detectCmd.Flags().StringVar(&detectCascade, "cascade", "", "Cascade model file (overrides detection.model_path)")
	detectCmd.Flags().StringVar(&detectBackend, "backend", "", "Cascade backend: haar or pico")
	_ = detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}
