package detection

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// CornerOptions configures CandidateCorners.
type CornerOptions struct {
	// Segments configures the underlying segment detector.
	Segments SegmentOptions

	// Padding extends every painted segment along its dominant axis, in
	// pixels, so that perpendicular strokes meet at the document corners.
	Padding int

	// Thickness is the width, in pixels, of the brush used to paint
	// segments.
	Thickness int

	// MinDistance is the minimum distance between two kept candidates.
	MinDistance float64

	// ContoursPerMask is how many of the longest painted strokes per mask
	// contribute their extreme points.
	ContoursPerMask int
}

// DefaultCornerOptions returns the settings used for document detection.
func DefaultCornerOptions() CornerOptions {
	return CornerOptions{
		Segments:        DefaultSegmentOptions(),
		Padding:         5,
		Thickness:       2,
		MinDistance:     20,
		ContoursPerMask: 2,
	}
}

// CandidateCorners derives likely document corners from an edge mask.
//
// Horizontal-dominant segments are painted onto one mask and vertical ones
// onto another, each stretched by Padding along its dominant axis. The
// candidates, in discovery order, are:
//
//  1. for the ContoursPerMask longest outer contours of the horizontal
//     mask, the points with the smallest and largest x, then the same for
//     the vertical mask along y;
//  2. every pixel set in both masks, in raster order.
//
// Candidates closer than MinDistance to an earlier kept one are dropped.
// The result is empty when the mask has no segments.
func CandidateCorners(edges *image.Gray, opts CornerOptions) []geometry.Point {
	if opts.ContoursPerMask <= 0 {
		opts.ContoursPerMask = DefaultCornerOptions().ContoursPerMask
	}

	segments := DetectSegments(edges, opts.Segments)
	if len(segments) == 0 {
		return nil
	}

	b := edges.Bounds()
	width, height := b.Dx(), b.Dy()
	horizontal := image.NewGray(image.Rect(0, 0, width, height))
	vertical := image.NewGray(image.Rect(0, 0, width, height))

	pad := float64(opts.Padding)
	maxX, maxY := float64(width-1), float64(height-1)
	for _, s := range segments {
		if s.Horizontal() {
			a, c := s.A, s.B
			if a.X > c.X {
				a, c = c, a
			}
			a.X = math.Max(a.X-pad, 0)
			c.X = math.Min(c.X+pad, maxX)
			paintLine(horizontal, a, c, opts.Thickness)
		} else {
			a, c := s.A, s.B
			if a.Y > c.Y {
				a, c = c, a
			}
			a.Y = math.Max(a.Y-pad, 0)
			c.Y = math.Min(c.Y+pad, maxY)
			paintLine(vertical, a, c, opts.Thickness)
		}
	}

	corners := strokeExtremes(horizontal, true, opts.ContoursPerMask)
	corners = append(corners, strokeExtremes(vertical, false, opts.ContoursPerMask)...)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if horizontal.Pix[i] != 0 && vertical.Pix[i] != 0 {
				corners = append(corners, geometry.Point{X: float64(x), Y: float64(y)})
			}
		}
	}

	return FilterCorners(corners, opts.MinDistance)
}

// FilterCorners keeps, in order, every point whose distance to all
// previously kept points is at least minDistance.
func FilterCorners(points []geometry.Point, minDistance float64) []geometry.Point {
	kept := make([]geometry.Point, 0, len(points))
	for _, p := range points {
		ok := true
		for _, k := range kept {
			if p.Distance(k) < minDistance {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, p)
		}
	}
	return kept
}

// strokeExtremes returns the two extreme points along the mask's axis of its
// n longest outer contours.
func strokeExtremes(mask *image.Gray, alongX bool, n int) []geometry.Point {
	contours := FindExternalContours(mask)
	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].Perimeter() > contours[j].Perimeter()
	})
	if len(contours) > n {
		contours = contours[:n]
	}

	out := make([]geometry.Point, 0, 2*len(contours))
	for _, c := range contours {
		if len(c) == 0 {
			continue
		}
		lo, hi := c[0], c[0]
		for _, p := range c[1:] {
			if alongX {
				if p.X < lo.X {
					lo = p
				}
				if p.X > hi.X {
					hi = p
				}
			} else {
				if p.Y < lo.Y {
					lo = p
				}
				if p.Y > hi.Y {
					hi = p
				}
			}
		}
		out = append(out, lo, hi)
	}
	return out
}

var colorOn = color.Gray{Y: 255}

// paintLine sets every pixel under a square brush of the given width
// along the segment from a to b. Even widths extend towards +x and +y.
func paintLine(mask *image.Gray, a, b geometry.Point, width int) {
	if width < 1 {
		width = 1
	}
	lo := -(width - 1) / 2
	hi := lo + width - 1
	bounds := mask.Bounds()
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		for dy := lo; dy <= hi; dy++ {
			for dx := lo; dx <= hi; dx++ {
				if image.Pt(x+dx, y+dy).In(bounds) {
					mask.SetGray(x+dx, y+dy, colorOn)
				}
			}
		}
	}
}
