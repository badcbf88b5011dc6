package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/foundersai25/talkdoc-core/internal/config"
	"github.com/foundersai25/talkdoc-core/internal/scan"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type flags struct {
	image         string
	images        string
	interactive   bool
	out           string
	binarize      bool
	color         bool
	overlay       bool
	noPDF         bool
	workers       int
	minAreaRatio  float64
	maxAngleRange float64
	envFile       string
	logLevel      string
}

// errItemsFailed is returned when at least one image could not be scanned.
var errItemsFailed = errors.New("some images failed")

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "docscan (--image PATH | --images DIR) [flags]",
		Short: "Turn photographs of documents into flat scans and PDFs",
		Long: `docscan finds the page in each photograph, straightens it, sharpens it
and writes the result as an image plus a single page PDF into the output
directory. Settings can also come from DOCSCAN_* environment variables or a
.env file; flags win.`,
		Version:       fmt.Sprintf("%s\n  Build time: %s\n  Git commit: %s", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.image, "image", "", "path to a single image")
	fl.StringVar(&f.images, "images", "", "directory of images to scan")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "verify and correct the detected corners by hand")
	fl.StringVarP(&f.out, "out", "o", "", "output directory (default \"output\")")
	fl.BoolVar(&f.binarize, "binarize", false, "apply adaptive thresholding")
	fl.BoolVar(&f.color, "color", false, "save the colour warp instead of the enhanced grayscale page")
	fl.BoolVar(&f.overlay, "overlay", false, "also save the detected outline drawn on the working image")
	fl.BoolVar(&f.noPDF, "no-pdf", false, "skip the PDF output")
	fl.IntVar(&f.workers, "workers", 0, "images processed in parallel (default: number of CPUs)")
	fl.Float64Var(&f.minAreaRatio, "min-area-ratio", 0, "fraction of the image a page must cover (default 0.25)")
	fl.Float64Var(&f.maxAngleRange, "max-angle-range", 0, "largest interior angle spread of a page, in degrees (default 40)")
	fl.StringVar(&f.envFile, "env", "", "load settings from this .env file")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.SetVersionTemplate("docscan {{.Version}}\n")
	cmd.MarkFlagsMutuallyExclusive("image", "images")
	cmd.MarkFlagsOneRequired("image", "images")
	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	var (
		cfg      *config.Config
		warnings []error
	)
	if f.envFile != "" {
		cfg, warnings = config.Load(f.envFile)
	} else {
		cfg, warnings = config.Load()
	}
	applyFlags(cmd, f, cfg)

	log := cfg.NewLogger(cmd.ErrOrStderr())
	for _, w := range warnings {
		log.Warn(w)
	}

	opts := cfg.ScanOptions()
	opts.Interactive = f.interactive

	saveOpts := cfg.SaveOptions()
	saveOpts.Color = f.color
	saveOpts.Overlay = f.overlay
	saveOpts.SkipPDF = f.noPDF

	scanOpts := []scan.Option{scan.WithLogger(log)}
	if f.interactive {
		scanOpts = append(scanOpts, scan.WithCorrector(&scan.TerminalCorrector{
			In:           cmd.InOrStdin(),
			Out:          cmd.OutOrStdout(),
			OverlayColor: cfg.OverlayColor,
		}))
	}
	scanner := scan.New(opts, scanOpts...)

	paths := []string{f.image}
	if f.images != "" {
		var err error
		if paths, err = scan.CollectImages(f.images); err != nil {
			log.WithError(err).Error("Cannot read image directory")
			return err
		}
		if len(paths) == 0 {
			log.WithField("dir", f.images).Warn("No images found")
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items := scanner.Batch(ctx, paths, scan.BatchOptions{
		OutDir:  cfg.OutputDir,
		Workers: cfg.Workers,
		Save:    saveOpts,
	})

	failed, degraded := 0, 0
	for _, item := range items {
		switch {
		case item.Err != nil:
			failed++
		case item.Degraded:
			degraded++
		}
	}
	log.WithFields(logrus.Fields{
		"total":    len(items),
		"failed":   failed,
		"degraded": degraded,
		"output":   cfg.OutputDir,
	}).Info("Done")

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(items), errItemsFailed)
	}
	return nil
}

// applyFlags overrides configuration with the flags given on the command
// line.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("out") {
		cfg.OutputDir = f.out
	}
	if fl.Changed("binarize") {
		cfg.Binarize = f.binarize
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("min-area-ratio") && f.minAreaRatio > 0 {
		cfg.MinQuadAreaRatio = f.minAreaRatio
	}
	if fl.Changed("max-angle-range") && f.maxAngleRange > 0 {
		cfg.MaxQuadAngleRange = f.maxAngleRange
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
