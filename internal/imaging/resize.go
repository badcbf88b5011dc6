package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// Resize scales img to the requested size.
//
// A zero width or height means "not given". With exactly one dimension
// given, the other is derived from the source aspect ratio and truncated to
// an integer. With neither given, img is returned unchanged. Downscaling uses
// an area-averaging (box) filter; upscaling uses linear interpolation.
func Resize(img image.Image, width, height int) image.Image {
	if width <= 0 && height <= 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	switch {
	case width <= 0:
		r := float64(height) / float64(h)
		width = int(float64(w) * r)
	case height <= 0:
		r := float64(width) / float64(w)
		height = int(float64(h) * r)
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	filter := imaging.Box
	if width > w || height > h {
		filter = imaging.Linear
	}
	return imaging.Resize(img, width, height, filter)
}

// Rotate turns img by angle degrees around center, scaling by scale. The
// canvas keeps the source size; uncovered pixels are black. A nil center
// means the image center. Positive angles rotate counter-clockwise.
func Rotate(img image.Image, angle float64, center *geometry.Point, scale float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	c := geometry.Point{X: float64(w) / 2, Y: float64(h) / 2}
	if center != nil {
		c = *center
	}
	if scale == 0 {
		scale = 1
	}

	return warpAffine(img, geometry.Rotation(c, angle, scale), w, h)
}

// Translate shifts img by (dx, dy) pixels on a canvas of the same size.
func Translate(img image.Image, dx, dy float64) *image.NRGBA {
	b := img.Bounds()
	return warpAffine(img, geometry.Translation(dx, dy), b.Dx(), b.Dy())
}

func warpAffine(img image.Image, m geometry.Homography, width, height int) *image.NRGBA {
	inv, err := m.Inverse()
	if err != nil {
		// A zero scale collapses everything onto one point.
		return image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	return remap(img, inv, width, height)
}
