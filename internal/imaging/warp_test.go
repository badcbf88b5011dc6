package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

func TestWarpSize(t *testing.T) {
	tests := []struct {
		name  string
		quad  geometry.Quad
		wantW int
		wantH int
	}{
		{"rectangle", geometry.RectQuad(10, 20, 110, 70), 100, 50},
		{"unordered", geometry.Quad{{X: 110, Y: 70}, {X: 10, Y: 20}, {X: 110, Y: 20}, {X: 10, Y: 70}}, 100, 50},
		{"trapezoid", geometry.Quad{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 180, Y: 100}, {X: 20, Y: 100}}, 200, 102},
		{"collapsed", geometry.Quad{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := WarpSize(tt.quad)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("WarpSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPerspectiveTransform_AxisAligned(t *testing.T) {
	img := rectImage(200, 150, image.Rect(40, 30, 160, 120), color.White, color.Black)
	quad := geometry.RectQuad(40, 30, 159, 119)

	out := PerspectiveTransform(img, quad)

	if out.Bounds().Dx() != 119 || out.Bounds().Dy() != 89 {
		t.Fatalf("size: got %v, want 119x89", out.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {118, 0}, {118, 88}, {0, 88}, {60, 45}} {
		if c := out.NRGBAAt(p.X, p.Y); c.R != 255 || c.G != 255 || c.B != 255 {
			t.Errorf("pixel %v: got %v, want white", p, c)
		}
	}
}

func TestPerspectiveTransform_Skewed(t *testing.T) {
	// Left half red, right half blue; the warp must keep that layout.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	quad := geometry.Quad{{X: 10, Y: 5}, {X: 90, Y: 15}, {X: 95, Y: 90}, {X: 5, Y: 95}}

	out := PerspectiveTransform(img, quad)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	left := out.NRGBAAt(w/8, h/2)
	right := out.NRGBAAt(w-1-w/8, h/2)
	if left.R < 200 || left.B > 50 {
		t.Errorf("left sample: got %v, want red", left)
	}
	if right.B < 200 || right.R > 50 {
		t.Errorf("right sample: got %v, want blue", right)
	}
}

func TestPerspectiveTransform_Degenerate(t *testing.T) {
	img := solidImage(50, 50, color.White)
	line := geometry.Quad{{X: 0, Y: 10}, {X: 40, Y: 10}, {X: 40, Y: 10}, {X: 0, Y: 10}}

	out := PerspectiveTransform(img, line)

	if out.Bounds().Dx() < 1 || out.Bounds().Dy() < 1 {
		t.Fatalf("degenerate quad produced %v", out.Bounds())
	}
}

func TestPerspectiveTransform_DoesNotModifyInput(t *testing.T) {
	img := solidImage(30, 30, color.RGBA{10, 20, 30, 255})
	before := append([]uint8(nil), img.Pix...)

	PerspectiveTransform(img, geometry.Quad{{X: 3, Y: 2}, {X: 25, Y: 4}, {X: 27, Y: 28}, {X: 1, Y: 26}})

	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("input image was modified")
		}
	}
}

func nearPoint(a, b geometry.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestInverseMapping(t *testing.T) {
	dst := geometry.RectQuad(0, 0, 20, 20)

	tests := []struct {
		name string
		src  geometry.Quad
		want geometry.Quad
	}{
		{"projective", geometry.Quad{{X: 10, Y: 20}, {X: 50, Y: 22}, {X: 48, Y: 60}, {X: 12, Y: 58}},
			geometry.Quad{{X: 10, Y: 20}, {X: 50, Y: 22}, {X: 48, Y: 60}, {X: 12, Y: 58}}},
		// No projective solution: the box of src is a single point.
		{"collapsed", geometry.Quad{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}},
			geometry.Quad{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := inverseMapping(tt.src, dst)
			for i, p := range dst {
				if got := inv.Apply(p); !nearPoint(got, tt.want[i]) {
					t.Errorf("corner %d: got %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestBoxMapping(t *testing.T) {
	src := geometry.Quad{{X: 10, Y: 20}, {X: 30, Y: 40}, {X: 50, Y: 60}, {X: 20, Y: 30}}
	dst := geometry.RectQuad(0, 0, 20, 20)
	want := geometry.Quad{{X: 10, Y: 20}, {X: 50, Y: 20}, {X: 50, Y: 60}, {X: 10, Y: 60}}

	m := boxMapping(src, dst)
	for i, p := range dst {
		if got := m.Apply(p); !nearPoint(got, want[i]) {
			t.Errorf("corner %d: got %v, want %v", i, got, want[i])
		}
	}
}
