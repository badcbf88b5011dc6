// Package imaging provides the raster operations of the scanning pipeline.
//
// It covers decoding source photographs, aspect-preserving resize, affine
// rotate/translate, the four-point perspective warp, the edge map fed to
// corner detection, and the grayscale/sharpen/threshold post-processing of
// the rectified page. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Backends
//
// The default build is pure Go: resampling and Canny edges are implemented
// here along with the rectangular morphology close, blur comes from bild,
// resizing and codecs from disintegration/imaging. Building with the gocv tag routes EdgeMap and
// PerspectiveTransform through OpenCV instead:
//
//	go build -tags gocv ./...
//
// Both backends expose the same functions and parameters.
//
// # Ownership
//
// Every function returns a newly allocated image and never modifies its
// input, so stages of a scan never alias each other's pixels.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Undecodable or unsupported image data
//   - Encoding errors during image output
//
// Geometric edge cases (degenerate quadrilaterals, zero sizes) are never
// errors; outputs are clamped to at least 1x1 pixel.
package imaging
