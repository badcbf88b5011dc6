// Package scan turns a photograph of a document into a flat, scan-like
// page.
//
// A Scanner drives one Session per image through four states:
//
//	Detecting -> [AwaitingCorrection] -> Rectifying -> Done
//
// Detection downscales the photo, builds an edge map and selects the page
// quadrilateral (see package detection). When the scanner is interactive
// the session pauses so a Corrector can adjust the corners; otherwise, or
// when the correction is abandoned, the best guess is used. Rectification
// warps the original full resolution image, then sharpens and optionally
// binarises it.
//
// Results can be written as an image plus a single page PDF with
// SaveResult, and whole directories are processed with Scanner.Batch.
package scan
