package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/geometry"
	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/sirupsen/logrus"
)

// Result is a rectified document.
type Result struct {
	// Image is the enhanced grayscale page.
	Image *image.Gray

	// Warped is the colour page straight out of the perspective warp.
	Warped *image.NRGBA

	// Quad is the page quadrilateral in original image coordinates.
	Quad geometry.Quad

	// WorkingQuad is the same quadrilateral in working coordinates.
	WorkingQuad geometry.Quad

	// Working is the downscaled image detection ran on.
	Working image.Image

	// Ratio is original height divided by working height.
	Ratio float64

	// Source reports where the quadrilateral came from.
	Source detection.Source

	// Degraded is set when the page was never found and the whole photo
	// was rectified instead.
	Degraded bool
}

// Scanner detects and rectifies documents. A Scanner is safe for
// concurrent use as long as its Corrector is.
type Scanner struct {
	opts      Options
	corrector Corrector
	log       logrus.FieldLogger
}

// New creates a Scanner. Zero fields in opts take their defaults.
func New(opts Options, options ...Option) *Scanner {
	s := &Scanner{
		opts: opts.withDefaults(),
		log:  logrus.StandardLogger(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the effective options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Detect runs detection on img and returns a session that is either
// awaiting correction (interactive scanners) or ready to rectify.
func (s *Scanner) Detect(img image.Image) (*Session, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image: %w", ErrUnreadableImage)
	}

	work := imaging.Resize(img, 0, s.opts.DetectionHeight)
	ratio := float64(img.Bounds().Dy()) / float64(work.Bounds().Dy())

	edges := imaging.EdgeMap(work, s.opts.Edge)
	corners := detection.CandidateCorners(edges, s.opts.cornerOptions())
	sel := detection.SelectQuad(edges, corners, s.opts.selectOptions())

	sess := &Session{
		original:  img,
		working:   work,
		ratio:     ratio,
		selection: sel,
		quad:      sel.Quad,
		source:    sel.Source,
		state:     StateRectifying,
	}
	if s.opts.Interactive {
		sess.state = StateAwaitingCorrection
	}

	entry := s.log.WithFields(logrus.Fields{
		"source":      sel.Source,
		"corners":     len(corners),
		"area":        int(sel.Area),
		"angle_range": fmt.Sprintf("%.1f", sel.AngleRange),
		"ratio":       fmt.Sprintf("%.3f", ratio),
	})
	if sel.Degraded() {
		entry.Warn("No document outline found, using the full image")
	} else {
		entry.Debug("Document outline detected")
	}
	return sess, nil
}

// Rectify warps the original image to the session's quadrilateral and
// enhances it. The session must be ready to rectify.
func (s *Scanner) Rectify(sess *Session) (*Result, error) {
	if sess == nil {
		return nil, fmt.Errorf("rectify: nil session: %w", ErrInvalidState)
	}
	if sess.state != StateRectifying {
		return nil, fmt.Errorf("rectify in state %s: %w", sess.state, ErrInvalidState)
	}

	quad := sess.quad.Scale(sess.ratio)
	warped := imaging.PerspectiveTransform(sess.original, quad)
	res := &Result{
		Image:       imaging.Enhance(warped, s.opts.Binarize),
		Warped:      warped,
		Quad:        quad,
		WorkingQuad: sess.quad,
		Working:     sess.working,
		Ratio:       sess.ratio,
		Source:      sess.source,
		Degraded:    sess.Degraded(),
	}
	sess.release()

	s.log.WithFields(logrus.Fields{
		"width":  warped.Bounds().Dx(),
		"height": warped.Bounds().Dy(),
		"source": res.Source,
	}).Debug("Document rectified")
	return res, nil
}

// Scan runs the whole flow on img. Interactive scanners hand the proposal
// to their Corrector and wait for it or for ctx; an abandoned or cancelled
// correction rectifies the best guess.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (*Result, error) {
	sess, err := s.Detect(img)
	if err != nil {
		return nil, err
	}
	if sess.State() == StateAwaitingCorrection {
		if err := s.awaitCorrection(ctx, sess); err != nil {
			return nil, err
		}
	}
	return s.Rectify(sess)
}

// ScanReader decodes an image from r and scans it.
func (s *Scanner) ScanReader(ctx context.Context, r io.Reader) (*Result, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return s.Scan(ctx, img)
}

// ScanFile opens and scans the image at path.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	res, err := s.ScanReader(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return res, nil
}

type correction struct {
	quad geometry.Quad
	err  error
}

func (s *Scanner) awaitCorrection(ctx context.Context, sess *Session) error {
	if s.corrector == nil {
		s.log.Warn("Interactive scan without a corrector, using the detected outline")
		return sess.Abandon()
	}

	done := make(chan correction, 1)
	req := sess.Proposal()
	go func() {
		q, err := s.corrector.Correct(ctx, req)
		done <- correction{quad: q, err: err}
	}()

	select {
	case <-ctx.Done():
		s.log.WithError(ctx.Err()).Warn("Correction cancelled, using the detected outline")
		return sess.Abandon()
	case c := <-done:
		if c.err != nil {
			if !errors.Is(c.err, ErrCorrectionAbandoned) {
				s.log.WithError(c.err).Warn("Correction failed, using the detected outline")
			}
			return sess.Abandon()
		}
		s.log.WithField("quad", c.quad.String()).Debug("Correction received")
		if err := sess.Correct(c.quad); err != nil {
			if !errors.Is(err, ErrInvalidQuad) {
				return err
			}
			s.log.WithError(err).Warn("Correction rejected, using the detected outline")
			return sess.Abandon()
		}
		return nil
	}
}
