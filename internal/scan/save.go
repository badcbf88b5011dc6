package scan

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	docimaging "github.com/foundersai25/talkdoc-core/internal/imaging"
)

// SaveOptions controls which artifacts SaveResult writes.
type SaveOptions struct {
	// Color saves the colour warp instead of the enhanced grayscale page.
	Color bool

	// DPI is the PDF resolution; <= 0 means DefaultPDFDPI.
	DPI int

	// SkipPDF disables the PDF artifact.
	SkipPDF bool

	// Overlay also writes the working image with the outline drawn on it.
	Overlay bool

	// OverlayColor is the outline colour as "#RRGGBB".
	OverlayColor string
}

// SavedFiles lists the paths SaveResult wrote.
type SavedFiles struct {
	Image   string `json:"image"`
	PDF     string `json:"pdf,omitempty"`
	Overlay string `json:"overlay,omitempty"`
}

// SaveResult writes res into outDir, creating it if needed. The image is
// named after baseName and keeps its extension when it is a format that
// can be encoded (JPEG, PNG, GIF, TIFF, BMP); anything else is saved as
// PNG. The PDF is "<base>.pdf".
func SaveResult(res *Result, outDir, baseName string, opts SaveOptions) (SavedFiles, error) {
	var files SavedFiles
	if res == nil {
		return files, fmt.Errorf("save: nil result")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return files, fmt.Errorf("save: %w", err)
	}

	name := filepath.Base(baseName)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if _, err := imaging.FormatFromFilename(name); err != nil {
		ext = ".png"
	}

	var page image.Image = res.Image
	if opts.Color {
		page = res.Warped
	}

	files.Image = filepath.Join(outDir, stem+ext)
	if err := SaveImage(files.Image, page); err != nil {
		return files, err
	}

	if !opts.SkipPDF {
		files.PDF = filepath.Join(outDir, stem+".pdf")
		if err := WritePDFFile(files.PDF, page, opts.DPI); err != nil {
			return files, err
		}
	}

	if opts.Overlay && res.Working != nil {
		files.Overlay = filepath.Join(outDir, stem+"-overlay.png")
		overlay := docimaging.DrawQuad(res.Working, res.WorkingQuad, opts.OverlayColor)
		if err := imaging.Save(overlay, files.Overlay); err != nil {
			return files, fmt.Errorf("save overlay: %w", err)
		}
	}
	return files, nil
}

// SaveImage writes img to path in the format named by its extension,
// creating the parent directory if needed.
func SaveImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// WritePDFFile writes img as a single page PDF at path, creating the
// parent directory if needed.
func WritePDFFile(path string, img image.Image, dpi int) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save pdf: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save pdf: %w", cerr)
		}
	}()
	return WritePDF(f, img, dpi)
}
