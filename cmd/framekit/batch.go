package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framekit/images"
	"github.com/nvr-ai/go-framekit/pipeline"
	"github.com/nvr-ai/go-framekit/util"
)

var (
	batchDir    string
	batchOutDir string
	batchOp     string
	batchRotate int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply one operation to every image in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd)
	},
}

func runBatch(cmd *cobra.Command) error {
	op, err := pipeline.ParseOperation(batchOp)
	if err != nil {
		return err
	}

	files, err := util.ListDirectoryImageFiles(batchDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No images found in %s\n", batchDir)
		return nil
	}
	if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", batchOutDir)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(fmt.Sprintf("Applying %s", op)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	ctx := cmd.Context()
	failed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batchOne(p, op, f.Path, filepath.Join(batchOutDir, f.Name)); err != nil {
			logger.WithError(err).WithField("file", f.Path).Warn("Skipping image")
			failed++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	completed, _ := p.Profiler().Totals()
	fmt.Printf("\n✅ processed %d/%d images (%d operations timed) into %s\n",
		len(files)-failed, len(files), completed, batchOutDir)
	return nil
}

func batchOne(p *pipeline.Pipeline, op pipeline.Operation, input, output string) error {
	src, err := images.Load(input)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := processFrame(p, op, &src, &dst, batchRotate); err != nil {
		return err
	}
	return images.Save(output, dst)
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "Directory of input images")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "out", "Directory for processed images")
	batchCmd.Flags().StringVar(&batchOp, "op", string(pipeline.OpGray), "Operation: normal, gray, blur or edges")
	batchCmd.Flags().IntVar(&batchRotate, "rotate", 0, "Clockwise rotation applied before the operation")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}
