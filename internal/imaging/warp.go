package imaging

import (
	"image"
	"math"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// WarpSize returns the output size of PerspectiveTransform for quad: the
// rounded longer of each pair of opposing edges, never below 1.
func WarpSize(quad geometry.Quad) (width, height int) {
	w, h := quad.Ordered().Size()
	width = int(math.Round(w))
	height = int(math.Round(h))
	if width < 1 || math.IsNaN(w) {
		width = 1
	}
	if height < 1 || math.IsNaN(h) {
		height = 1
	}
	return width, height
}

// PerspectiveTransform maps the region of img enclosed by quad onto an
// upright rectangle anchored at (0,0).
//
// The corners are re-ordered canonically first. The output is as wide as
// the longer of the top and bottom edges and as tall as the longer of the
// left and right edges; corners land on (0,0), (w-1,0), (w-1,h-1) and
// (0,h-1). Resampling is bilinear on every backend. Degenerate quads never
// fail: the output is clamped to at least 1x1.
func PerspectiveTransform(img image.Image, quad geometry.Quad) *image.NRGBA {
	src := quad.Ordered()
	w, h := WarpSize(src)
	dst := geometry.RectQuad(0, 0, float64(w-1), float64(h-1))
	return warpPerspective(img, src, dst, w, h)
}

// inverseMapping maps output pixels in dst back to img coordinates in src.
// Solving dst -> src directly means no inversion is needed per pixel.
func inverseMapping(src, dst geometry.Quad) geometry.Homography {
	inv, err := geometry.SolveHomography(dst, src)
	if err != nil {
		return boxMapping(src, dst)
	}
	return inv
}

// boxMapping is the affine fallback for quads with no projective solution:
// it stretches the destination rectangle over the bounding box of src.
func boxMapping(src, dst geometry.Quad) geometry.Homography {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range src {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	dw := dst[geometry.BottomRight].X - dst[geometry.TopLeft].X
	dh := dst[geometry.BottomRight].Y - dst[geometry.TopLeft].Y
	sx, sy := 0.0, 0.0
	if dw > 0 {
		sx = (maxX - minX) / dw
	}
	if dh > 0 {
		sy = (maxY - minY) / dh
	}
	return geometry.Homography{sx, 0, minX, 0, sy, minY, 0, 0, 1}
}
