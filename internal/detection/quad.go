package detection

import (
	"image"
	"sort"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// Source names where a selected quadrilateral came from.
type Source string

const (
	// SourceCorners is a quadrilateral assembled from candidate corners.
	SourceCorners Source = "corners"
	// SourceContour is a polygon approximation of an edge-map contour.
	SourceContour Source = "contour"
	// SourceFallback is the full image rectangle used when nothing else
	// was valid. Results built on it should be treated as degraded.
	SourceFallback Source = "fallback"
	// SourceManual is a quadrilateral supplied by a human correction.
	SourceManual Source = "manual"
)

// SelectOptions configures SelectQuad.
type SelectOptions struct {
	// MinAreaRatio is the fraction of the image a quadrilateral must exceed.
	MinAreaRatio float64

	// MaxAngleRange is the largest allowed difference, in degrees, between
	// the biggest and smallest interior angle.
	MaxAngleRange float64

	// Epsilon is the polygon approximation tolerance for contours, in pixels.
	Epsilon float64

	// TopByArea is how many of the largest hypotheses from each path are
	// examined.
	TopByArea int
}

// DefaultSelectOptions returns the settings used for document detection.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{
		MinAreaRatio:  0.25,
		MaxAngleRange: 40,
		Epsilon:       80,
		TopByArea:     5,
	}
}

func (o SelectOptions) withDefaults() SelectOptions {
	d := DefaultSelectOptions()
	if o.MinAreaRatio <= 0 {
		o.MinAreaRatio = d.MinAreaRatio
	}
	if o.MaxAngleRange <= 0 {
		o.MaxAngleRange = d.MaxAngleRange
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	if o.TopByArea <= 0 {
		o.TopByArea = d.TopByArea
	}
	return o
}

// Selection is the outcome of SelectQuad.
type Selection struct {
	// Quad is the chosen quadrilateral in canonical corner order.
	Quad geometry.Quad `json:"quad"`

	// Source names the path that produced Quad.
	Source Source `json:"source"`

	// Area is the area enclosed by Quad, in square pixels.
	Area float64 `json:"area"`

	// AngleRange is the interior angle spread of Quad, in degrees.
	AngleRange float64 `json:"angle_range"`
}

// Degraded reports whether the selection is the full-image fallback.
func (s Selection) Degraded() bool {
	return s.Source == SourceFallback
}

// SelectQuad picks the document quadrilateral for an edge mask.
//
// Two independent paths each propose at most one candidate:
//
//   - Corners: with at least four corners, every 4-combination is put in
//     canonical order, the TopByArea largest are kept, and the one with the
//     smallest angle range among them is proposed if valid.
//
//   - Contours: the TopByArea largest external contours of the mask are
//     approximated with ApproxPolyDP(Epsilon); the first approximation that
//     is a valid quadrilateral is proposed.
//
// A quadrilateral is valid when it has four vertices, encloses more than
// MinAreaRatio of the mask and its angle range is below MaxAngleRange. The
// larger valid proposal wins (corners on a tie). With no valid proposal the
// full mask rectangle is returned with SourceFallback. SelectQuad never
// fails.
func SelectQuad(edges *image.Gray, corners []geometry.Point, opts SelectOptions) Selection {
	opts = opts.withDefaults()

	b := edges.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())
	minArea := opts.MinAreaRatio * width * height

	valid := func(pts []geometry.Point) bool {
		return len(pts) == 4 &&
			geometry.PolygonArea(pts) > minArea &&
			geometry.AngleRange(pts) < opts.MaxAngleRange
	}

	var best *Selection
	consider := func(q geometry.Quad, src Source) {
		sel := newSelection(q, src)
		if best == nil || sel.Area > best.Area {
			best = &sel
		}
	}

	if q, ok := bestCornerQuad(corners, opts.TopByArea); ok && valid(q.Points()) {
		consider(q, SourceCorners)
	}

	if pts, ok := bestContourPolygon(edges, opts, valid); ok {
		consider(geometry.Quad{pts[0], pts[1], pts[2], pts[3]}, SourceContour)
	}

	if best == nil {
		return newSelection(FullQuad(b.Dx(), b.Dy()), SourceFallback)
	}
	return *best
}

// FullQuad is the rectangle spanning a width x height image, corner to
// corner.
func FullQuad(width, height int) geometry.Quad {
	return geometry.RectQuad(0, 0, float64(width), float64(height))
}

func newSelection(q geometry.Quad, src Source) Selection {
	q = q.Ordered()
	return Selection{
		Quad:       q,
		Source:     src,
		Area:       q.Area(),
		AngleRange: q.AngleRange(),
	}
}

// bestCornerQuad ranks every 4-combination of corners: the top n by area
// are kept and the one with the smallest angle range wins.
func bestCornerQuad(corners []geometry.Point, n int) (geometry.Quad, bool) {
	if len(corners) < 4 {
		return geometry.Quad{}, false
	}

	type ranked struct {
		quad geometry.Quad
		area float64
	}
	top := make([]ranked, 0, n+1)

	k := len(corners)
	for a := 0; a < k-3; a++ {
		for b := a + 1; b < k-2; b++ {
			for c := b + 1; c < k-1; c++ {
				for d := c + 1; d < k; d++ {
					q := geometry.OrderCorners([4]geometry.Point{corners[a], corners[b], corners[c], corners[d]})
					area := q.Area()
					if len(top) == n && area <= top[n-1].area {
						continue
					}
					// Insert after equal areas so earlier combinations win ties.
					i := sort.Search(len(top), func(i int) bool { return top[i].area < area })
					top = append(top, ranked{})
					copy(top[i+1:], top[i:])
					top[i] = ranked{quad: q, area: area}
					if len(top) > n {
						top = top[:n]
					}
				}
			}
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].quad.AngleRange() < top[j].quad.AngleRange()
	})
	return top[0].quad, true
}

// bestContourPolygon returns the first valid 4-vertex approximation among
// the largest external contours of edges.
func bestContourPolygon(edges *image.Gray, opts SelectOptions, valid func([]geometry.Point) bool) ([]geometry.Point, bool) {
	contours := FindExternalContours(edges)
	areas := make([]float64, len(contours))
	for i, c := range contours {
		areas[i] = c.Area()
	}
	idx := make([]int, len(contours))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return areas[idx[i]] > areas[idx[j]] })
	if len(idx) > opts.TopByArea {
		idx = idx[:opts.TopByArea]
	}

	for _, i := range idx {
		approx := ApproxPolyDP(contours[i], opts.Epsilon, true)
		if valid(approx) {
			return approx, true
		}
	}
	return nil, false
}
