package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-framekit/config"
	"github.com/nvr-ai/go-framekit/logging"
	"github.com/nvr-ai/go-framekit/pipeline"
)

// Version is the application version.
const Version = "0.1.0"

var (
	configPath string
	logLevel   string

	// cfg and logger are resolved once flags are parsed.
	cfg    config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "framekit",
	Short:         "Grayscale, blur, edge and face detection for camera frames",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := config.Default()
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c = loaded
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}

		l, err := logging.New(c.Log)
		if err != nil {
			return errors.Wrap(err, "configure logging")
		}
		cfg, logger = c, l
		return nil
	},
}

// newPipeline builds a pipeline from the resolved configuration.
func newPipeline() (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return pipeline.New(cfg, pipeline.WithLogger(logger))
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
}
