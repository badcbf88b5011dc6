package scan

import (
	"fmt"
	"image"

	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// State is the stage a Session has reached.
type State int

const (
	// StateDetecting is the state while the working image is analysed.
	StateDetecting State = iota
	// StateAwaitingCorrection holds the proposal until Correct or Abandon.
	StateAwaitingCorrection
	// StateRectifying means the quadrilateral is final and Rectify may run.
	StateRectifying
	// StateDone is reached once the page is produced; the session's images
	// have been released.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateAwaitingCorrection:
		return "awaiting_correction"
	case StateRectifying:
		return "rectifying"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CorrectionRequest is everything a Corrector is shown: the working image
// and the proposed quadrilateral in working coordinates.
type CorrectionRequest struct {
	Image  image.Image
	Quad   geometry.Quad
	Source detection.Source
	Width  int
	Height int
}

// Session holds the state of one scan. A Session is owned by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	original  image.Image
	working   image.Image
	ratio     float64
	selection detection.Selection
	quad      geometry.Quad
	source    detection.Source
	state     State
}

// State returns the current stage.
func (s *Session) State() State { return s.state }

// Ratio is original height divided by working height.
func (s *Session) Ratio() float64 { return s.ratio }

// Quad returns the active quadrilateral in working coordinates.
func (s *Session) Quad() geometry.Quad { return s.quad }

// Source reports where the active quadrilateral came from.
func (s *Session) Source() detection.Source { return s.source }

// Selection returns the detector's original proposal.
func (s *Session) Selection() detection.Selection { return s.selection }

// Working returns the downscaled image detection ran on. It is nil once
// the session is done.
func (s *Session) Working() image.Image { return s.working }

// Degraded reports whether the active quadrilateral is the full-image
// fallback that nobody corrected.
func (s *Session) Degraded() bool {
	return s.source == detection.SourceFallback
}

// Proposal returns the working image and best-guess quadrilateral for a
// Corrector.
func (s *Session) Proposal() CorrectionRequest {
	req := CorrectionRequest{
		Image:  s.working,
		Quad:   s.quad,
		Source: s.source,
	}
	if s.working != nil {
		req.Width = s.working.Bounds().Dx()
		req.Height = s.working.Bounds().Dy()
	}
	return req
}

// Correct replaces the proposal with q, clamped to the working image, and
// moves the session on to rectification. Non-finite coordinates are
// rejected with ErrInvalidQuad; the quadrilateral is otherwise taken as
// given. Handing back the proposal unchanged keeps its source.
func (s *Session) Correct(q geometry.Quad) error {
	if s.state != StateAwaitingCorrection {
		return fmt.Errorf("correct in state %s: %w", s.state, ErrInvalidState)
	}
	for i, p := range q {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("correct: corner %d is %v: %w", i, p, ErrInvalidQuad)
		}
	}
	b := s.working.Bounds()
	q = q.Clamp(float64(b.Dx()), float64(b.Dy()))
	if q != s.quad {
		s.quad = q
		s.source = detection.SourceManual
	}
	s.state = StateRectifying
	return nil
}

// Abandon keeps the best guess and moves the session on to rectification.
func (s *Session) Abandon() error {
	if s.state != StateAwaitingCorrection {
		return fmt.Errorf("abandon in state %s: %w", s.state, ErrInvalidState)
	}
	s.state = StateRectifying
	return nil
}

// release drops the images once the output exists.
func (s *Session) release() {
	s.original = nil
	s.working = nil
	s.state = StateDone
}
