// Package detection locates the four corners of a document in an edge map.
//
// It works on the binary masks produced by imaging.EdgeMap (edge pixels are
// 255, everything else 0) and returns points in the mask's pixel
// coordinates.
//
// # Pipeline
//
//  1. Segments: DetectSegments finds straight runs of edge pixels with a
//     Hough transform and splits every accepted line into its collinear runs.
//
//  2. Candidate corners: CandidateCorners paints horizontal and vertical
//     segments onto two masks, then collects the pixels where both masks
//     overlap and the extreme points of the longest painted strokes.
//     Candidates closer than a minimum distance to an earlier one are dropped.
//
//  3. Selection: SelectQuad scores quadrilaterals built from the candidates
//     and quadrilaterals approximated from the largest external contours of
//     the edge map, and keeps the larger valid one. When nothing is valid it
//     returns the full image rectangle, so selection never fails.
//
// # Validity
//
// A quadrilateral is accepted when it encloses more than MinAreaRatio of the
// image and the spread between its largest and smallest interior angle is
// below MaxAngleRange degrees. Both thresholds are tunable.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Performance Considerations
//
// The Hough transform costs one vote per edge pixel and angle step, and
// quad hypotheses grow with the fourth power of the candidate count. Run
// detection on a downscaled working image (the scanner uses a height of 500
// pixels).
package detection
