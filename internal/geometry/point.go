package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point is a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer image.Point.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales both coordinates by f.
func (p Point) Mul(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// ImagePoint rounds p to the nearest integer pixel.
func (p Point) ImagePoint() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// AngleBetween returns the angle between vectors u and v in degrees.
//
// The cosine is clamped to [-1, 1] before math.Acos so floating-point drift
// never produces NaN. A zero-length vector has no direction; the angle is
// reported as 0.
func AngleBetween(u, v Point) float64 {
	nu, nv := u.Norm(), v.Norm()
	if nu == 0 || nv == 0 {
		return 0
	}
	cos := u.Dot(v) / (nu * nv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// AngleAt returns the angle at vertex b formed by the segments b→a and b→c,
// in degrees.
func AngleAt(a, b, c Point) float64 {
	return AngleBetween(a.Sub(b), c.Sub(b))
}

// PolygonArea returns the absolute area enclosed by pts using the shoelace
// formula. The polygon is implicitly closed.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// AngleRange returns the difference between the largest and smallest
// interior angle of a polygon, visiting vertices in the given order.
// Polygons with fewer than three vertices have a range of 0.
func AngleRange(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		a := AngleAt(pts[(i+n-1)%n], pts[i], pts[(i+1)%n])
		lo = math.Min(lo, a)
		hi = math.Max(hi, a)
	}
	return hi - lo
}
