package detection

import (
	"image"
	"math"
	"sort"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// Segment is a straight run of edge pixels between two endpoints.
type Segment struct {
	A geometry.Point `json:"a"`
	B geometry.Point `json:"b"`
}

// Horizontal reports whether the segment spans more columns than rows.
// Every segment is either horizontal-dominant or vertical-dominant.
func (s Segment) Horizontal() bool {
	return math.Abs(s.B.X-s.A.X) > math.Abs(s.B.Y-s.A.Y)
}

// Length returns the Euclidean distance between the endpoints.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// SegmentOptions configures DetectSegments.
type SegmentOptions struct {
	// MinLength is the shortest run, in pixels, reported as a segment. It is
	// also the vote threshold for a Hough peak.
	MinLength int

	// MaxGap is the largest break, in pixels along the line, that still
	// joins two runs into one segment.
	MaxGap int

	// Tolerance is the largest perpendicular distance from a Hough line at
	// which an edge pixel still belongs to it.
	Tolerance float64

	// MaxLines caps the number of Hough peaks examined, strongest first.
	MaxLines int
}

// DefaultSegmentOptions returns the settings used for document detection.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		MinLength: 20,
		MaxGap:    5,
		Tolerance: 1.5,
		MaxLines:  100,
	}
}

func (o SegmentOptions) withDefaults() SegmentOptions {
	d := DefaultSegmentOptions()
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.MaxGap < 0 {
		o.MaxGap = d.MaxGap
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxLines <= 0 {
		o.MaxLines = d.MaxLines
	}
	return o
}

// DetectSegments finds straight line segments in a binary edge mask.
//
// # Algorithm
//
//  1. Voting: every edge pixel votes for all lines through it in (rho, theta)
//     space, with a 1 degree angle step and 1 pixel distance step.
//
//  2. Peaks: accumulator cells with at least MinLength votes that are a
//     local maximum in a 5x5 neighbourhood, strongest first.
//
//  3. Runs: for each peak, the unclaimed edge pixels within Tolerance of the
//     line are ordered along it and split wherever the gap exceeds MaxGap.
//     Every run at least MinLength long becomes a segment whose endpoints are
//     the run's extremes projected onto the line. Its pixels are claimed so
//     weaker peaks on the same stroke do not report it again.
//
// Returns nil when the mask has no segments.
func DetectSegments(edges *image.Gray, opts SegmentOptions) []Segment {
	opts = opts.withDefaults()

	b := edges.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v != 0 {
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}
	if len(points) < opts.MinLength {
		return nil
	}

	const numAngles = 180
	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		angle := float64(t) * math.Pi / 180
		cosT[t] = math.Cos(angle)
		sinT[t] = math.Sin(angle)
	}

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	numRho := 2*maxDist + 1
	accumulator := make([]int, numRho*numAngles)
	for _, p := range points {
		for t := 0; t < numAngles; t++ {
			rho := float64(p.X)*cosT[t] + float64(p.Y)*sinT[t]
			r := int(math.Round(rho)) + maxDist
			accumulator[r*numAngles+t]++
		}
	}

	type peak struct {
		rho, theta, votes int
	}
	peaks := make([]peak, 0)
	for r := 0; r < numRho; r++ {
		for t := 0; t < numAngles; t++ {
			v := accumulator[r*numAngles+t]
			if v < opts.MinLength {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr, nt := r+dr, t+dt
					if nr < 0 || nr >= numRho || nt < 0 || nt >= numAngles {
						continue
					}
					if accumulator[nr*numAngles+nt] > v {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: r - maxDist, theta: t, votes: v})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})
	if len(peaks) > opts.MaxLines {
		peaks = peaks[:opts.MaxLines]
	}

	claimed := make([]bool, len(points))
	segments := make([]Segment, 0)

	type onLine struct {
		idx int
		t   float64
	}

	for _, pk := range peaks {
		c, s := cosT[pk.theta], sinT[pk.theta]
		rho := float64(pk.rho)

		near := make([]onLine, 0)
		for i, p := range points {
			if claimed[i] {
				continue
			}
			if math.Abs(float64(p.X)*c+float64(p.Y)*s-rho) <= opts.Tolerance {
				// Position along the line direction (-sin, cos).
				near = append(near, onLine{idx: i, t: -float64(p.X)*s + float64(p.Y)*c})
			}
		}
		if len(near) < opts.MinLength {
			continue
		}

		sort.Slice(near, func(i, j int) bool { return near[i].t < near[j].t })

		start := 0
		for i := 1; i <= len(near); i++ {
			if i < len(near) && near[i].t-near[i-1].t <= float64(opts.MaxGap) {
				continue
			}
			run := near[start:i]
			start = i

			// Endpoints are projected onto the line so that pixels pulled
			// in by the tolerance band do not tilt the segment.
			seg := Segment{
				A: geometry.Point{X: rho*c - run[0].t*s, Y: rho*s + run[0].t*c},
				B: geometry.Point{X: rho*c - run[len(run)-1].t*s, Y: rho*s + run[len(run)-1].t*c},
			}
			if seg.Length() < float64(opts.MinLength) {
				continue
			}
			for _, r := range run {
				claimed[r.idx] = true
			}
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		return nil
	}
	return segments
}
