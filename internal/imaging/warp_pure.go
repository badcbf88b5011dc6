//go:build !gocv

package imaging

import (
	"image"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// warpPerspective resamples img so that src lands on dst in a w x h canvas.
func warpPerspective(img image.Image, src, dst geometry.Quad, w, h int) *image.NRGBA {
	return remap(img, inverseMapping(src, dst), w, h)
}
