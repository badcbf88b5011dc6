package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, warnings := FromEnv(envMap(nil))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if *cfg != *Default() {
		t.Errorf("got %+v, want defaults %+v", cfg, Default())
	}
	if cfg.DetectionHeight != 500 || cfg.PDFDPI != 100 || cfg.OutputDir != "output" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, warnings := FromEnv(envMap(map[string]string{
		EnvDetectionHeight:   "400",
		EnvMinQuadAreaRatio:  "0.3",
		EnvMaxQuadAngleRange: "25",
		EnvMinCornerDistance: "15.5",
		EnvBinarize:          "true",
		EnvOutputDir:         "/tmp/scans",
		EnvPDFDPI:            "300",
		EnvOverlayColor:      "#00FF00",
		EnvWorkers:           "3",
		EnvLogLevel:          "debug",
	}))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	want := Config{
		DetectionHeight:   400,
		MinQuadAreaRatio:  0.3,
		MaxQuadAngleRange: 25,
		MinCornerDistance: 15.5,
		Binarize:          true,
		OutputDir:         "/tmp/scans",
		PDFDPI:            300,
		OverlayColor:      "#00FF00",
		Workers:           3,
		LogLevel:          "debug",
	}
	if *cfg != want {
		t.Errorf("got %+v, want %+v", *cfg, want)
	}
}

func TestFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvDetectionHeight, "tall"},
		{EnvDetectionHeight, "-5"},
		{EnvMinQuadAreaRatio, "1.5"},
		{EnvMinQuadAreaRatio, "0"},
		{EnvMaxQuadAngleRange, "NaN"},
		{EnvMinCornerDistance, "-1"},
		{EnvBinarize, "maybe"},
		{EnvPDFDPI, "0"},
		{EnvOverlayColor, "purple"},
		{EnvWorkers, "-2"},
		{EnvLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg, warnings := FromEnv(envMap(map[string]string{tt.key: tt.value}))
			if len(warnings) != 1 {
				t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
			}
			if !strings.Contains(warnings[0].Error(), tt.key) {
				t.Errorf("warning %q does not name %s", warnings[0], tt.key)
			}
			if *cfg != *Default() {
				t.Errorf("got %+v, want defaults", cfg)
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "DOCSCAN_PDF_DPI=150\nDOCSCAN_OUTPUT_DIR=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPDFDPI, "")
	os.Unsetenv(EnvPDFDPI)
	t.Setenv(EnvOutputDir, "from-env")

	cfg, warnings := Load(path)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.PDFDPI != 150 {
		t.Errorf("PDFDPI: got %d, want 150 from the file", cfg.PDFDPI)
	}
	if cfg.OutputDir != "from-env" {
		t.Errorf("OutputDir: got %q, existing environment should win", cfg.OutputDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, warnings := Load(filepath.Join(t.TempDir(), "absent.env"))
	if len(warnings) != 1 {
		t.Errorf("got %v, want one warning for the missing file", warnings)
	}
}

func TestScanOptions(t *testing.T) {
	cfg := Default()
	cfg.MinQuadAreaRatio = 0.4
	cfg.Binarize = true

	opts := cfg.ScanOptions()
	if opts.MinQuadAreaRatio != 0.4 || !opts.Binarize || opts.DetectionHeight != 500 {
		t.Errorf("unexpected options %+v", opts)
	}
	if save := cfg.SaveOptions(); save.DPI != 100 || save.OverlayColor != cfg.OverlayColor {
		t.Errorf("unexpected save options %+v", save)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"

	log := cfg.NewLogger(&buf)
	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level: got %s, want warning", log.GetLevel())
	}
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
