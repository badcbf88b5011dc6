package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

const (
	// UnsharpRadius is the sharpening radius handed to bild.
	UnsharpRadius = 1.0
	// UnsharpAmount weighs the detail layer: out = img + amount*(img - blur).
	UnsharpAmount = 0.5

	// ThresholdBlockRadius is the radius of the Gaussian window used as the
	// local mean in AdaptiveThreshold (a 21 pixel block).
	ThresholdBlockRadius = 10.0
	// ThresholdOffset is subtracted from the local mean.
	ThresholdOffset = 15.0
)

// ToGray converts img to an 8-bit grayscale image with bounds at (0,0)
// using ITU-R BT.601 luminance weights.
func ToGray(img image.Image) *image.Gray {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// UnsharpMask sharpens gray as 1.5*gray - 0.5*gaussian(gray).
func UnsharpMask(gray *image.Gray) *image.Gray {
	return ToGray(effect.UnsharpMask(gray, UnsharpRadius, UnsharpAmount))
}

// AdaptiveThreshold binarises gray against a Gaussian-weighted local mean:
// a pixel becomes white when it is brighter than the mean of its
// neighbourhood minus ThresholdOffset, black otherwise.
func AdaptiveThreshold(gray *image.Gray) *image.Gray {
	mean := ToGray(blur.Gaussian(gray, ThresholdBlockRadius))
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.Pix[y*gray.Stride+x])
			t := float64(mean.Pix[y*mean.Stride+x]) - ThresholdOffset
			if v > t {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// Enhance turns a rectified page into a scan-like grayscale image: grayscale,
// unsharp mask and, when binarize is set, adaptive thresholding.
func Enhance(img image.Image, binarize bool) *image.Gray {
	out := UnsharpMask(ToGray(img))
	if binarize {
		out = AdaptiveThreshold(out)
	}
	return out
}
