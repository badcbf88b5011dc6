//go:build gocv

package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// warpPerspective resamples img with OpenCV so that src lands on dst in a
// w x h canvas. Conversion failures fall back to the pure-Go resampler so a
// scan never fails on a backend quirk. Degenerate quads take the same
// bounding-box stretch as the pure-Go build.
func warpPerspective(img image.Image, src, dst geometry.Quad, w, h int) *image.NRGBA {
	// OpenCV has no answer for a quad without a projective solution.
	if _, err := geometry.SolveHomography(src, dst); err != nil {
		return remapFallback(img, src, dst, w, h)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return remapFallback(img, src, dst, w, h)
	}
	defer mat.Close()

	srcPts := gocv.NewPoint2fVectorFromPoints(toPoint2f(src))
	defer srcPts.Close()
	dstPts := gocv.NewPoint2fVectorFromPoints(toPoint2f(dst))
	defer dstPts.Close()

	m := gocv.GetPerspectiveTransform2f(srcPts, dstPts)
	defer m.Close()

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspectiveWithParams(mat, &warped, m, image.Pt(w, h),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{A: 255})

	out, err := warped.ToImage()
	if err != nil {
		return remapFallback(img, src, dst, w, h)
	}
	return imaging.Clone(out)
}

func toPoint2f(q geometry.Quad) []gocv.Point2f {
	pts := make([]gocv.Point2f, len(q))
	for i, p := range q {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return pts
}

func remapFallback(img image.Image, src, dst geometry.Quad, w, h int) *image.NRGBA {
	return remap(img, inverseMapping(src, dst), w, h)
}
