package imaging

import (
	"fmt"
	"image"
	"math"
)

// EdgeOptions configures EdgeMap.
type EdgeOptions struct {
	// BlurRadius is the Gaussian radius applied before edge detection.
	// A radius of 3 corresponds to a 7-tap kernel.
	BlurRadius float64

	// CloseRadius is the radius of the morphological close (dilate then
	// erode) that bridges small gaps in the document border. Zero disables it.
	CloseRadius float64

	// Low and High are the hysteresis thresholds on the L1 gradient
	// magnitude, in 8-bit intensity units.
	Low, High float64
}

// DefaultEdgeOptions returns the settings used for document detection.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		BlurRadius:  3,
		CloseRadius: 4,
		Low:         0,
		High:        84,
	}
}

// EdgeMap computes the binary edge mask used for corner and contour
// detection: grayscale, Gaussian blur, morphological close, then Canny.
// Edge pixels are 255, everything else 0. The result always has bounds
// starting at (0,0) and never aliases img.
func EdgeMap(img image.Image, opts EdgeOptions) *image.Gray {
	b := img.Bounds()
	if b.Empty() {
		return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	return edgeMap(img, opts)
}

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs the document edge map on img with the given hysteresis
// thresholds and returns it as a base64 PNG.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Gradients at or below this value are never edges.
//   - thresholdHigh: Gradients above this value always are.
//
// The blur and close radii are the detection defaults, so the output is
// what the corner detector sees.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int) (*EdgeDetectResult, error) {
	opts := DefaultEdgeOptions()
	opts.Low = float64(thresholdLow)
	opts.High = float64(thresholdHigh)

	edges := EdgeMap(img, opts)
	encoded, err := EncodePNGBase64(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       edges.Bounds().Dx(),
		Height:      edges.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// Canny finds edges in gray.
//
// # Algorithm
//
//  1. Gradient: 3x3 Sobel in X and Y, magnitude |Gx| + |Gy| (L1 norm).
//     Border pixels replicate their neighbours.
//
//  2. Non-maximum suppression: a pixel survives only if its magnitude is not
//     smaller than both neighbours along the quantised gradient direction
//     (0, 45, 90 or 135 degrees).
//
//  3. Hysteresis: survivors above high are strong edges. Survivors above low
//     are kept when 8-connected, directly or through other kept pixels, to a
//     strong edge.
//
// The output has the same size as gray with edges at 255.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return out
	}
	if low > high {
		low, high = high, low
	}

	px := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)
	tan22 := math.Tan(math.Pi / 8)
	tan67 := math.Tan(3 * math.Pi / 8)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x-1, y) + px(x-1, y+1))
			gy := (px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x, y-1) + px(x+1, y-1))

			i := y*w + x
			mag[i] = math.Abs(gx) + math.Abs(gy)

			ax, ay := math.Abs(gx), math.Abs(gy)
			switch {
			case ay <= ax*tan22:
				dir[i] = 0
			case ay >= ax*tan67:
				dir[i] = 2
			case (gx > 0) == (gy > 0):
				dir[i] = 3
			default:
				dir[i] = 1
			}
		}
	}

	const (
		none uint8 = iota
		weak
		strong
	)
	class := make([]uint8, w*h)
	stack := make([]int, 0, 1024)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			var n1, n2 float64
			switch dir[i] {
			case 0:
				n1, n2 = mag[i-1], mag[i+1]
			case 2:
				n1, n2 = mag[i-w], mag[i+w]
			case 1:
				// gradient along (+x, -y) or (-x, +y)
				n1, n2 = mag[i-w+1], mag[i+w-1]
			default:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			}
			if m < n1 || m < n2 {
				continue
			}

			if m > high {
				class[i] = strong
				stack = append(stack, i)
			} else {
				class[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = 255

		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if class[j] == weak {
					class[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}
