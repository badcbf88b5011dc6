// Package geometry holds the value types shared by the scanning pipeline:
// points, quadrilaterals and 3x3 projective transforms.
//
// Everything here is a pure function over immutable values. A Quad is an
// array, not a slice, so passing one around never aliases the caller's copy.
//
// # Coordinate System
//
// Coordinates follow the image convention used across this module:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Values are float64 so that detection-scale corners can be scaled to the
// full-resolution image without rounding until the final resample.
//
// # Corner Order
//
// A canonical Quad is ordered top-left, top-right, bottom-right, bottom-left.
// The order is always re-derived from raw coordinates with OrderCorners;
// input order is never trusted.
package geometry
