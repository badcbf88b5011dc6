package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
	"github.com/foundersai25/talkdoc-core/internal/imaging"
)

func TestSelectQuad_FromCorners(t *testing.T) {
	m := newMask(400, 300)
	corners := []geometry.Point{{X: 60, Y: 50}, {X: 340, Y: 50}, {X: 340, Y: 250}, {X: 60, Y: 250}, {X: 200, Y: 150}}

	sel := SelectQuad(m, corners, DefaultSelectOptions())

	if sel.Source != SourceCorners {
		t.Fatalf("source: got %s, want corners", sel.Source)
	}
	want := geometry.RectQuad(60, 50, 340, 250)
	if sel.Quad != want {
		t.Errorf("quad: got %v, want %v", sel.Quad, want)
	}
	if sel.Degraded() {
		t.Error("corner selection should not be degraded")
	}
}

func TestSelectQuad_FromContour(t *testing.T) {
	m := newMask(400, 300)
	drawRectOutline(m, 50, 40, 350, 260)

	sel := SelectQuad(m, nil, DefaultSelectOptions())

	if sel.Source != SourceContour {
		t.Fatalf("source: got %s, want contour", sel.Source)
	}
	if sel.Quad != geometry.RectQuad(50, 40, 350, 260) {
		t.Errorf("quad: got %v", sel.Quad)
	}
}

func TestSelectQuad_LargerAreaWins(t *testing.T) {
	m := newMask(400, 300)
	drawRectOutline(m, 20, 20, 380, 280)
	corners := []geometry.Point{{X: 60, Y: 50}, {X: 340, Y: 50}, {X: 340, Y: 250}, {X: 60, Y: 250}}

	sel := SelectQuad(m, corners, DefaultSelectOptions())

	if sel.Source != SourceContour {
		t.Errorf("source: got %s, want the larger contour quad", sel.Source)
	}
	if math.Abs(sel.Area-360*260) > 1e-6 {
		t.Errorf("area: got %.1f, want %d", sel.Area, 360*260)
	}
}

func TestSelectQuad_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		corners []geometry.Point
		mask    func() *image.Gray
	}{
		{"nothing", nil, func() *image.Gray { return newMask(320, 240) }},
		{"three corners", []geometry.Point{{X: 10, Y: 10}, {X: 300, Y: 10}, {X: 300, Y: 200}}, func() *image.Gray { return newMask(320, 240) }},
		{"too small", []geometry.Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 40}, {X: 10, Y: 40}}, func() *image.Gray {
			m := newMask(320, 240)
			drawRectOutline(m, 100, 100, 140, 130)
			return m
		}},
		{"too skewed", []geometry.Point{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 320, Y: 230}, {X: 200, Y: 230}}, func() *image.Gray { return newMask(320, 240) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := SelectQuad(tt.mask(), tt.corners, DefaultSelectOptions())
			if sel.Source != SourceFallback || !sel.Degraded() {
				t.Fatalf("source: got %s, want fallback", sel.Source)
			}
			if sel.Quad != FullQuad(320, 240) {
				t.Errorf("quad: got %v, want full image", sel.Quad)
			}
		})
	}
}

func TestSelectQuad_Thresholds(t *testing.T) {
	m := newMask(400, 300)
	corners := []geometry.Point{{X: 100, Y: 80}, {X: 300, Y: 80}, {X: 300, Y: 220}, {X: 100, Y: 220}}

	// 200x140 covers 23% of the image.
	if sel := SelectQuad(m, corners, DefaultSelectOptions()); sel.Source != SourceFallback {
		t.Errorf("default ratio: got %s, want fallback", sel.Source)
	}

	opts := DefaultSelectOptions()
	opts.MinAreaRatio = 0.2
	if sel := SelectQuad(m, corners, opts); sel.Source != SourceCorners {
		t.Errorf("ratio 0.2: got %s, want corners", sel.Source)
	}
}

func TestSelectQuad_PrefersRegularAmongLargest(t *testing.T) {
	m := newMask(400, 300)
	// A near-rectangle plus a stray point that yields a bigger but skewed
	// quad; the angle range decides between the five largest.
	corners := []geometry.Point{{X: 50, Y: 50}, {X: 350, Y: 50}, {X: 350, Y: 250}, {X: 50, Y: 250}, {X: 390, Y: 290}}

	sel := SelectQuad(m, corners, DefaultSelectOptions())

	if sel.Source != SourceCorners {
		t.Fatalf("source: got %s", sel.Source)
	}
	if sel.AngleRange > 1e-9 {
		t.Errorf("angle range: got %.2f, want the rectangle", sel.AngleRange)
	}
}

func TestSelectQuad_EndToEnd(t *testing.T) {
	// A white page on a black desk, as in a scan at 1000x800.
	full := image.NewRGBA(image.Rect(0, 0, 1000, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 1000; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 100 && x < 900 && y >= 100 && y < 700 {
				c = color.RGBA{255, 255, 255, 255}
			}
			full.Set(x, y, c)
		}
	}

	work := imaging.Resize(full, 0, 500)
	edges := imaging.EdgeMap(work, imaging.DefaultEdgeOptions())
	corners := CandidateCorners(edges, DefaultCornerOptions())
	sel := SelectQuad(edges, corners, DefaultSelectOptions())

	if sel.Degraded() {
		t.Fatal("document was not found")
	}
	if sel.Area < 0.25*625*500 {
		t.Errorf("area %.0f below a quarter of the working image", sel.Area)
	}
	if sel.AngleRange >= 40 {
		t.Errorf("angle range %.1f, want < 40", sel.AngleRange)
	}

	ratio := 800.0 / 500.0
	warped := imaging.PerspectiveTransform(full, sel.Quad.Scale(ratio))
	w, h := warped.Bounds().Dx(), warped.Bounds().Dy()
	// Corners may sit on the padded stroke ends, up to 5 working pixels
	// (8 original pixels) outside the page on each side.
	if w < 798 || w > 818 || h < 598 || h > 618 {
		t.Errorf("rectified size %dx%d, want 800x600 plus at most the stroke padding", w, h)
	}
}
