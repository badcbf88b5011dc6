package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// remap fills a width x height canvas by pulling every destination pixel
// through inv into src and sampling bilinearly. Samples that fall more than
// one pixel outside src are opaque black, matching a constant border.
func remap(src image.Image, inv geometry.Homography, width, height int) *image.NRGBA {
	s := imaging.Clone(src)
	sw, sh := s.Bounds().Dx(), s.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if sw == 0 || sh == 0 {
		return dst
	}

	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < width; x++ {
			p := inv.Apply(geometry.Point{X: float64(x), Y: float64(y)})
			r, g, b, a := bilinear(s, sw, sh, p.X, p.Y)
			i := x * 4
			row[i+0] = r
			row[i+1] = g
			row[i+2] = b
			row[i+3] = a
		}
	}
	return dst
}

// bilinear samples s at (fx, fy) with edge clamping inside a one-pixel
// margin and black beyond it.
func bilinear(s *image.NRGBA, sw, sh int, fx, fy float64) (uint8, uint8, uint8, uint8) {
	if math.IsNaN(fx) || math.IsNaN(fy) || fx < -1 || fy < -1 || fx > float64(sw) || fy > float64(sh) {
		return 0, 0, 0, 255
	}

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	wx := fx - float64(x0)
	wy := fy - float64(y0)

	x1 := clamp(x0+1, 0, sw-1)
	y1 := clamp(y0+1, 0, sh-1)
	x0 = clamp(x0, 0, sw-1)
	y0 = clamp(y0, 0, sh-1)

	p00 := s.Pix[y0*s.Stride+x0*4:]
	p10 := s.Pix[y0*s.Stride+x1*4:]
	p01 := s.Pix[y1*s.Stride+x0*4:]
	p11 := s.Pix[y1*s.Stride+x1*4:]

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-wx) + float64(p10[c])*wx
		bot := float64(p01[c])*(1-wx) + float64(p11[c])*wx
		v := top*(1-wy) + bot*wy
		out[c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return out[0], out[1], out[2], out[3]
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
