package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a transform cannot be solved or inverted
// because the input points are degenerate.
var ErrSingular = errors.New("geometry: singular transform")

// Homography is a row-major 3x3 projective transform.
//
//	x' = (h0 x + h1 y + h2) / (h6 x + h7 y + h8)
//	y' = (h3 x + h4 y + h5) / (h6 x + h7 y + h8)
//
// Affine transforms are the special case h6 = h7 = 0, h8 = 1.
type Homography [9]float64

// Identity is the transform that maps every point to itself.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// SolveHomography computes the transform mapping src[i] to dst[i].
//
// The eight unknowns h0..h7 (h8 fixed to 1) are found from the 8x8 linear
// system built from the four correspondences.
func SolveHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		r := 2 * i
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		// An ill-conditioned system still returns a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Identity, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	var out Homography
	for i := 0; i < 8; i++ {
		v := h.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Identity, ErrSingular
		}
		out[i] = v
	}
	out[8] = 1
	return out, nil
}

// Translation returns the affine transform moving points by (dx, dy).
func Translation(dx, dy float64) Homography {
	return Homography{1, 0, dx, 0, 1, dy, 0, 0, 1}
}

// Rotation returns the affine transform rotating points by angle degrees
// around center and scaling them by scale. Positive angles rotate
// counter-clockwise as seen on screen (y down), matching the usual image
// library convention.
func Rotation(center Point, angle, scale float64) Homography {
	rad := angle * math.Pi / 180
	alpha := scale * math.Cos(rad)
	beta := scale * math.Sin(rad)
	return Homography{
		alpha, beta, (1-alpha)*center.X - beta*center.Y,
		-beta, alpha, beta*center.X + (1-alpha)*center.Y,
		0, 0, 1,
	}
}

// Apply maps p through h. Points that land on the line at infinity map to
// (+Inf, +Inf).
func (h Homography) Apply(p Point) Point {
	d := h[6]*p.X + h[7]*p.Y + h[8]
	if d == 0 {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / d,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / d,
	}
}

// Mul returns the transform that applies o first, then h.
func (h Homography) Mul(o Homography) Homography {
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += h[r*3+k] * o[k*3+c]
			}
			out[r*3+c] = s
		}
	}
	return out
}

// Inverse returns the transform undoing h.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Identity, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := inv.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Identity, ErrSingular
			}
			out[r*3+c] = v
		}
	}
	return out, nil
}
