package detection

import (
	"image"
	"math"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// Contour is the traced outer border of one connected group of mask pixels,
// in tracing order. Thin strokes are walked on both sides, so pixels can
// repeat.
type Contour []geometry.Point

// Perimeter returns the length of the closed polyline through the contour.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var sum float64
	for i := range c {
		sum += c[i].Distance(c[(i+1)%len(c)])
	}
	return sum
}

// Area returns the absolute shoelace area enclosed by the contour.
func (c Contour) Area() float64 {
	return geometry.PolygonArea(c)
}

// neighbours in clockwise order (y down): E, SE, S, SW, W, NW, N, NE.
var neighbours = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func neighbourIndex(d image.Point) int {
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 4
}

// FindExternalContours traces the outer border of every 8-connected group
// of non-zero pixels in mask that is not enclosed by another group. Groups
// sitting inside the hole of another group are skipped. Contours are
// returned in raster order of their top-left pixel.
//
// # Algorithm
//
//  1. Outside: flood the zero pixels 4-connected from the image border.
//
//  2. Labelling: flood-fill every group of non-zero pixels (8-connected). A
//     group is external when it touches the border or an outside pixel.
//
//  3. Tracing: Moore-neighbour tracing clockwise from the group's first
//     pixel in raster order, stopping when the first step repeats.
func FindExternalContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	set := func(x, y int) bool {
		return mask.Pix[y*mask.Stride+x] != 0
	}

	outside := floodOutside(set, width, height)

	labels := make([]int, width*height)
	contours := make([]Contour, 0)
	next := 0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !set(x, y) || labels[y*width+x] != 0 {
				continue
			}
			next++
			external := labelGroup(set, outside, labels, x, y, next, width, height)
			if external {
				contours = append(contours, traceBorder(labels, next, image.Pt(x, y), width, height))
			}
		}
	}
	return contours
}

// floodOutside marks the zero pixels reachable from the image border
// through 4-connected zero pixels.
func floodOutside(set func(x, y int) bool, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]image.Point, 0, 2*(width+height))

	push := func(x, y int) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		i := y*width + x
		if outside[i] || set(x, y) {
			return
		}
		outside[i] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// labelGroup flood-fills the 8-connected group containing (startX, startY)
// with label and reports whether the group is external.
func labelGroup(set func(x, y int) bool, outside []bool, labels []int, startX, startY, label, width, height int) bool {
	stack := []image.Point{{X: startX, Y: startY}}
	labels[startY*width+startX] = label
	external := false

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			external = true
		}

		for _, d := range neighbours {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			i := ny*width + nx
			if !set(nx, ny) {
				// Only 4-neighbours can connect the group to the outside.
				if (d.X == 0 || d.Y == 0) && outside[i] {
					external = true
				}
				continue
			}
			if labels[i] == 0 {
				labels[i] = label
				stack = append(stack, image.Pt(nx, ny))
			}
		}
	}
	return external
}

// traceBorder walks the outer border of the group with the given label,
// starting at its first pixel in raster order.
func traceBorder(labels []int, label int, start image.Point, width, height int) Contour {
	in := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < width && p.Y < height && labels[p.Y*width+p.X] == label
	}

	contour := Contour{geometry.FromImagePoint(start)}

	// Nothing of the group lies left of or above start, so the west
	// neighbour is background.
	cur, back := start, 4
	var second image.Point
	limit := 4*width*height + 8

	for step := 0; step < limit; step++ {
		found := false
		var nextPt image.Point
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			cand := cur.Add(neighbours[d])
			if in(cand) {
				prev := cur.Add(neighbours[(back+k-1)%8])
				back = neighbourIndex(prev.Sub(cand))
				nextPt = cand
				found = true
				break
			}
		}
		if !found {
			// isolated pixel
			return contour
		}

		if step == 0 {
			second = nextPt
		} else if cur == start && nextPt == second {
			break
		}

		cur = nextPt
		contour = append(contour, geometry.FromImagePoint(cur))
	}

	// The walk ends back on start; drop the repeated point.
	if len(contour) > 1 && contour[len(contour)-1] == contour[0] {
		contour = contour[:len(contour)-1]
	}
	return contour
}

// ApproxPolyDP simplifies a polyline with the Ramer-Douglas-Peucker
// algorithm so that no dropped point lies farther than epsilon from the
// result. For a closed curve the split starts at the first point and the
// point farthest from it, and the returned polygon does not repeat its
// first vertex.
func ApproxPolyDP(points []geometry.Point, epsilon float64, closed bool) []geometry.Point {
	n := len(points)
	if n < 3 {
		return append([]geometry.Point(nil), points...)
	}

	if !closed {
		return simplify(points, epsilon)
	}

	far, farDist := 0, -1.0
	for i, p := range points {
		if d := p.Distance(points[0]); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return []geometry.Point{points[0]}
	}

	first := simplify(points[:far+1], epsilon)

	rest := make([]geometry.Point, 0, n-far+1)
	rest = append(rest, points[far:]...)
	rest = append(rest, points[0])
	second := simplify(rest, epsilon)

	out := make([]geometry.Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

// simplify runs Ramer-Douglas-Peucker on an open chain, keeping both ends.
func simplify(chain []geometry.Point, epsilon float64) []geometry.Point {
	n := len(chain)
	if n < 3 {
		return append([]geometry.Point(nil), chain...)
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, maxD := -1, epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := pointLineDistance(chain[i], chain[s.lo], chain[s.hi]); d > maxD {
				idx, maxD = i, d
			}
		}
		if idx < 0 {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}

	out := make([]geometry.Point, 0)
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// pointLineDistance is the distance from p to the line through a and b, or
// to a itself when a and b coincide.
func pointLineDistance(p, a, b geometry.Point) float64 {
	ab := b.Sub(a)
	l := ab.Norm()
	if l == 0 {
		return p.Distance(a)
	}
	return math.Abs(ab.X*(p.Y-a.Y)-ab.Y*(p.X-a.X)) / l
}
