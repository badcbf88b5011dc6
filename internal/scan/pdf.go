package scan

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// WritePDF writes img to w as a single page PDF. The page is exactly the
// size of the image rendered at dpi, so a 1000 pixel wide page at 100 dpi is
// 10 inches wide; dpi <= 0 means DefaultPDFDPI.
func WritePDF(w io.Writer, img image.Image, dpi int) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("write pdf: empty image")
	}
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("write pdf: encode page: %w", err)
	}

	// The page is the image at dpi in points; the image is drawn at the
	// same size and centred, so it covers the page exactly.
	b := img.Bounds()
	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Center
	imp.PageDim = &types.Dim{
		Width:  float64(b.Dx()) * 72 / float64(dpi),
		Height: float64(b.Dy()) * 72 / float64(dpi),
	}
	imp.DPI = dpi
	imp.Scale = 1
	imp.ScaleAbs = true

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, []io.Reader{&buf}, imp, conf); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
