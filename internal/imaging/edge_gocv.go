//go:build gocv

package imaging

import (
	"image"

	"gocv.io/x/gocv"
)

// edgeMap runs the OpenCV equivalents of the pure-Go pipeline. If the image
// cannot be converted to a Mat the pure-Go Canny is used on the unfiltered
// grayscale instead.
func edgeMap(img image.Image, opts EdgeOptions) *image.Gray {
	gray := ToGray(img)
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return Canny(gray, opts.Low, opts.High)
	}
	defer src.Close()

	work := src.Clone()
	defer work.Close()

	if opts.BlurRadius > 0 {
		k := 2*int(opts.BlurRadius) + 1
		gocv.GaussianBlur(work, &work, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}
	if opts.CloseRadius > 0 {
		k := 2*int(opts.CloseRadius) + 1
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
		defer kernel.Close()
		gocv.MorphologyEx(work, &work, gocv.MorphClose, kernel)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(work, &edges, float32(opts.Low), float32(opts.High))

	out, err := edges.ToImage()
	if err != nil {
		return Canny(gray, opts.Low, opts.High)
	}
	if g, ok := out.(*image.Gray); ok {
		return g
	}
	return ToGray(out)
}
