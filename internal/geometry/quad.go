package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Corner indexes into a canonical Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quad is a quadrilateral. After OrderCorners it holds top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// RectQuad returns the axis-aligned quadrilateral spanning (x0,y0)-(x1,y1)
// in canonical order.
func RectQuad(x0, y0, x1, y1 float64) Quad {
	return Quad{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// OrderCorners returns pts in canonical order.
//
// The points are sorted by x, ties broken by y. The two leftmost, sorted by
// y, become top-left and bottom-left. Of the two rightmost, the one farther
// from top-left is bottom-right and the nearer is top-right. The result
// depends only on the set of points, so ordering an ordered Quad returns it
// unchanged. Collinear or repeated points yield a degenerate but valid Quad.
func OrderCorners(pts [4]Point) Quad {
	xs := pts
	sort.Slice(xs[:], func(i, j int) bool {
		return xs[i].X < xs[j].X || xs[i].X == xs[j].X && xs[i].Y < xs[j].Y
	})

	left := [2]Point{xs[0], xs[1]}
	right := [2]Point{xs[2], xs[3]}
	if left[1].Y < left[0].Y {
		left[0], left[1] = left[1], left[0]
	}
	tl, bl := left[0], left[1]

	tr, br := right[0], right[1]
	if tl.Distance(right[0]) > tl.Distance(right[1]) {
		tr, br = right[1], right[0]
	}
	return Quad{tl, tr, br, bl}
}

// Ordered is shorthand for OrderCorners(q).
func (q Quad) Ordered() Quad {
	return OrderCorners(q)
}

// Points returns the corners as a slice.
func (q Quad) Points() []Point {
	return []Point{q[0], q[1], q[2], q[3]}
}

// Area returns the absolute enclosed area in the stored vertex order.
func (q Quad) Area() float64 {
	return PolygonArea(q[:])
}

// InteriorAngles returns the angle at each vertex, in degrees, in vertex order.
func (q Quad) InteriorAngles() [4]float64 {
	var out [4]float64
	for i := range q {
		out[i] = AngleAt(q[(i+3)%4], q[i], q[(i+1)%4])
	}
	return out
}

// AngleRange is the largest minus the smallest interior angle. A rectangle
// has a range of 0.
func (q Quad) AngleRange() float64 {
	return AngleRange(q[:])
}

// Size returns the width and height of the rectangle the quad rectifies to:
// the longer of the top and bottom edges and the longer of the left and
// right edges. The quad must be in canonical order.
func (q Quad) Size() (width, height float64) {
	e := q.Edges()
	return math.Max(e[0], e[2]), math.Max(e[1], e[3])
}

// Edges returns the lengths of the top, right, bottom and left edges.
func (q Quad) Edges() [4]float64 {
	return [4]float64{
		q[TopLeft].Distance(q[TopRight]),
		q[TopRight].Distance(q[BottomRight]),
		q[BottomRight].Distance(q[BottomLeft]),
		q[BottomLeft].Distance(q[TopLeft]),
	}
}

// Scale multiplies every coordinate by f.
func (q Quad) Scale(f float64) Quad {
	for i := range q {
		q[i] = q[i].Mul(f)
	}
	return q
}

// Clamp limits every corner to [0, width] x [0, height].
func (q Quad) Clamp(width, height float64) Quad {
	for i := range q {
		q[i].X = math.Max(0, math.Min(width, q[i].X))
		q[i].Y = math.Max(0, math.Min(height, q[i].Y))
	}
	return q
}

// String implements fmt.Stringer.
func (q Quad) String() string {
	return fmt.Sprintf("[%v %v %v %v]", q[0], q[1], q[2], q[3])
}
