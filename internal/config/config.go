// Package config loads scanner settings from .env files and DOCSCAN_*
// environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/foundersai25/talkdoc-core/internal/scan"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvDetectionHeight   = "DOCSCAN_DETECTION_HEIGHT"
	EnvMinQuadAreaRatio  = "DOCSCAN_MIN_QUAD_AREA_RATIO"
	EnvMaxQuadAngleRange = "DOCSCAN_MAX_QUAD_ANGLE_RANGE"
	EnvMinCornerDistance = "DOCSCAN_MIN_CORNER_DISTANCE"
	EnvBinarize          = "DOCSCAN_BINARIZE"
	EnvOutputDir         = "DOCSCAN_OUTPUT_DIR"
	EnvPDFDPI            = "DOCSCAN_PDF_DPI"
	EnvOverlayColor      = "DOCSCAN_OVERLAY_COLOR"
	EnvWorkers           = "DOCSCAN_WORKERS"
	EnvLogLevel          = "DOCSCAN_LOG_LEVEL"
)

// Config holds every configurable setting.
type Config struct {
	DetectionHeight   int
	MinQuadAreaRatio  float64
	MaxQuadAngleRange float64
	MinCornerDistance float64
	Binarize          bool
	OutputDir         string
	PDFDPI            int
	OverlayColor      string
	Workers           int
	LogLevel          string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	opts := scan.DefaultOptions()
	return &Config{
		DetectionHeight:   opts.DetectionHeight,
		MinQuadAreaRatio:  opts.MinQuadAreaRatio,
		MaxQuadAngleRange: opts.MaxQuadAngleRange,
		MinCornerDistance: opts.MinCornerDistance,
		OutputDir:         "output",
		PDFDPI:            scan.DefaultPDFDPI,
		OverlayColor:      imaging.DefaultOverlayColor,
		Workers:           0,
		LogLevel:          "info",
	}
}

// Load reads the given .env files (".env" when none are given) into the
// environment without overriding variables that are already set, then
// builds a Config from the environment. A missing default .env is not an
// error. Every other problem, including a malformed value, is returned as
// a warning and the affected setting keeps its default.
func Load(files ...string) (*Config, []error) {
	var warnings []error
	if len(files) == 0 {
		_ = godotenv.Load() // Ignore error if .env doesn't exist
	} else {
		for _, f := range files {
			if err := godotenv.Load(f); err != nil {
				warnings = append(warnings, fmt.Errorf("load %s: %w", f, err))
			}
		}
	}
	cfg, envWarnings := FromEnv(os.Getenv)
	return cfg, append(warnings, envWarnings...)
}

// FromEnv builds a Config from getenv. Unset variables keep their
// defaults; malformed or out-of-range ones are reported and ignored.
func FromEnv(getenv func(string) string) (*Config, []error) {
	cfg := Default()
	p := parser{getenv: getenv}

	p.positiveInt(EnvDetectionHeight, &cfg.DetectionHeight)
	p.ratio(EnvMinQuadAreaRatio, &cfg.MinQuadAreaRatio)
	p.positiveFloat(EnvMaxQuadAngleRange, &cfg.MaxQuadAngleRange)
	p.positiveFloat(EnvMinCornerDistance, &cfg.MinCornerDistance)
	p.boolean(EnvBinarize, &cfg.Binarize)
	p.str(EnvOutputDir, &cfg.OutputDir)
	p.positiveInt(EnvPDFDPI, &cfg.PDFDPI)
	p.str(EnvLogLevel, &cfg.LogLevel)

	if v := strings.TrimSpace(getenv(EnvOverlayColor)); v != "" {
		if _, err := imaging.ParseHexColor(v); err != nil {
			p.warn(EnvOverlayColor, v, err)
		} else {
			cfg.OverlayColor = v
		}
	}
	if v := strings.TrimSpace(getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n < 0 {
			err = fmt.Errorf("must not be negative")
		}
		if err != nil {
			p.warn(EnvWorkers, v, err)
		} else {
			cfg.Workers = n
		}
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		p.warn(EnvLogLevel, cfg.LogLevel, err)
		cfg.LogLevel = Default().LogLevel
	}
	return cfg, p.warnings
}

// ScanOptions converts the detection settings into scanner options.
func (c *Config) ScanOptions() scan.Options {
	opts := scan.DefaultOptions()
	opts.DetectionHeight = c.DetectionHeight
	opts.MinQuadAreaRatio = c.MinQuadAreaRatio
	opts.MaxQuadAngleRange = c.MaxQuadAngleRange
	opts.MinCornerDistance = c.MinCornerDistance
	opts.Binarize = c.Binarize
	return opts
}

// SaveOptions converts the output settings into save options.
func (c *Config) SaveOptions() scan.SaveOptions {
	return scan.SaveOptions{
		DPI:          c.PDFDPI,
		OverlayColor: c.OverlayColor,
	}
}

// NewLogger returns a logrus logger at the configured level writing to w.
// Binaries pass os.Stderr so that stdout stays free for results or the
// MCP protocol.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

type parser struct {
	getenv   func(string) string
	warnings []error
}

func (p *parser) warn(key, value string, err error) {
	p.warnings = append(p.warnings, fmt.Errorf("%s=%q ignored: %w", key, value, err))
}

func (p *parser) lookup(key string) (string, bool) {
	v := strings.TrimSpace(p.getenv(key))
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.lookup(key); ok {
		*dst = v
	}
}

func (p *parser) positiveInt(key string, dst *int) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil && n <= 0 {
		err = fmt.Errorf("must be positive")
	}
	if err != nil {
		p.warn(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) positiveFloat(key string, dst *float64) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && !(f > 0) {
		err = fmt.Errorf("must be positive")
	}
	if err != nil {
		p.warn(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) ratio(key string, dst *float64) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && !(f > 0 && f < 1) {
		err = fmt.Errorf("must be between 0 and 1")
	}
	if err != nil {
		p.warn(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.warn(key, v, err)
		return
	}
	*dst = b
}
