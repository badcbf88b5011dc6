package imaging

import "image"

// morphClose dilates then erodes gray with a (2r+1)x(2r+1) rectangle.
// Pixels outside the image are ignored, as OpenCV does for MORPH_RECT.
func morphClose(gray *image.Gray, r int) *image.Gray {
	return erode(dilate(gray, r), r)
}

func dilate(gray *image.Gray, r int) *image.Gray {
	return rectFilter(gray, r, func(a, b uint8) bool { return a > b })
}

func erode(gray *image.Gray, r int) *image.Gray {
	return rectFilter(gray, r, func(a, b uint8) bool { return a < b })
}

// rectFilter replaces every pixel by the extreme, as chosen by better, of
// its rectangular neighbourhood. The rectangle is separable, so rows are
// filtered first and the result is filtered along columns.
func rectFilter(gray *image.Gray, r int, better func(a, b uint8) bool) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	rows := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		dst := rows.Pix[y*rows.Stride : y*rows.Stride+w]
		for x := 0; x < w; x++ {
			v := src[x]
			for i := max(x-r, 0); i <= min(x+r, w-1); i++ {
				if better(src[i], v) {
					v = src[i]
				}
			}
			dst[x] = v
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		lo, hi := max(y-r, 0), min(y+r, h-1)
		for x := 0; x < w; x++ {
			v := rows.Pix[y*rows.Stride+x]
			for i := lo; i <= hi; i++ {
				if c := rows.Pix[i*rows.Stride+x]; better(c, v) {
					v = c
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
