//go:build !gocv

package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

func edgeMap(img image.Image, opts EdgeOptions) *image.Gray {
	gray := ToGray(img)
	if opts.BlurRadius > 0 {
		gray = ToGray(blur.Gaussian(gray, opts.BlurRadius))
	}
	if r := int(opts.CloseRadius); r > 0 {
		gray = morphClose(gray, r)
	}
	return Canny(gray, opts.Low, opts.High)
}
