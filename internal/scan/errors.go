package scan

import "errors"

var (
	// ErrUnreadableImage is returned when the input cannot be opened or
	// decoded as a supported raster format.
	ErrUnreadableImage = errors.New("unreadable image")

	// ErrCorrectionAbandoned is returned by a Corrector that gives up
	// without a corrected quadrilateral. The scan continues with the best
	// guess.
	ErrCorrectionAbandoned = errors.New("correction abandoned")

	// ErrInvalidQuad is returned for a correction with NaN or infinite
	// coordinates.
	ErrInvalidQuad = errors.New("invalid quadrilateral")

	// ErrInvalidState is returned when a session operation is called out of
	// order.
	ErrInvalidState = errors.New("invalid scan state")
)
