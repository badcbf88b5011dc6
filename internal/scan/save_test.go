package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func scanUniform(t *testing.T) *Result {
	t.Helper()
	res, err := newTestScanner(DefaultOptions()).Scan(context.Background(), uniformImage(120, 80))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return res
}

func TestSaveResult(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		wantImage string
	}{
		{"jpeg keeps extension", "desk.jpg", "desk.jpg"},
		{"path is reduced to its base", filepath.Join("photos", "desk.PNG"), "desk.PNG"},
		{"unencodable becomes png", "scan.jp2", "scan.png"},
		{"no extension becomes png", "scan", "scan.png"},
	}

	res := scanUniform(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			files, err := SaveResult(res, dir, tt.base, SaveOptions{})
			if err != nil {
				t.Fatalf("SaveResult: %v", err)
			}
			if files.Image != filepath.Join(dir, tt.wantImage) {
				t.Errorf("image: got %s, want %s", files.Image, tt.wantImage)
			}
			stem := strings.TrimSuffix(tt.wantImage, filepath.Ext(tt.wantImage))
			if files.PDF != filepath.Join(dir, stem+".pdf") {
				t.Errorf("pdf: got %s", files.PDF)
			}

			img, err := imaging.Open(files.Image)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
				t.Errorf("saved size: got %v, want 120x80", img.Bounds())
			}

			data, err := os.ReadFile(files.PDF)
			if err != nil {
				t.Fatalf("read pdf: %v", err)
			}
			if !strings.HasPrefix(string(data), "%PDF") {
				t.Error("pdf does not start with %PDF")
			}
		})
	}
}

func TestSaveResult_OverlayAndSkipPDF(t *testing.T) {
	res := scanUniform(t)
	dir := t.TempDir()

	files, err := SaveResult(res, dir, "page.png", SaveOptions{Overlay: true, SkipPDF: true, Color: true})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if files.PDF != "" {
		t.Errorf("pdf written despite SkipPDF: %s", files.PDF)
	}
	if _, err := os.Stat(filepath.Join(dir, "page.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("page.pdf exists: %v", err)
	}

	overlay, err := imaging.Open(files.Overlay)
	if err != nil {
		t.Fatalf("open overlay: %v", err)
	}
	wb := res.Working.Bounds()
	if overlay.Bounds().Dx() != wb.Dx() || overlay.Bounds().Dy() != wb.Dy() {
		t.Errorf("overlay size %v, want working size %v", overlay.Bounds(), wb)
	}
}

func TestSaveResult_Nil(t *testing.T) {
	if _, err := SaveResult(nil, t.TempDir(), "x.png", SaveOptions{}); err == nil {
		t.Error("expected an error for a nil result")
	}
}
