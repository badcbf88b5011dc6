package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/geometry"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// pageImage is a white 800x600 page on a black 1000x800 desk.
func pageImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 1000; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 100 && x < 900 && y >= 100 && y < 700 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func uniformImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func quadNear(a, b geometry.Quad, tol float64) bool {
	for i := range a {
		if a[i].Distance(b[i]) > tol {
			return false
		}
	}
	return true
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestScanner(opts Options, options ...Option) *Scanner {
	return New(opts, append([]Option{WithLogger(quietLogger())}, options...)...)
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{})
	opts := s.Options()
	if opts.DetectionHeight != 500 {
		t.Errorf("DetectionHeight: got %d, want 500", opts.DetectionHeight)
	}
	if opts.MinQuadAreaRatio != 0.25 || opts.MaxQuadAngleRange != 40 {
		t.Errorf("thresholds: got %v and %v", opts.MinQuadAreaRatio, opts.MaxQuadAngleRange)
	}
	if opts.MinCornerDistance != 20 {
		t.Errorf("MinCornerDistance: got %v, want 20", opts.MinCornerDistance)
	}
}

func TestScan_FindsPage(t *testing.T) {
	s := newTestScanner(DefaultOptions())

	res, err := s.Scan(context.Background(), pageImage())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Degraded {
		t.Fatalf("page not found, source %s", res.Source)
	}
	if res.Ratio != 1.6 {
		t.Errorf("ratio: got %v, want 1.6", res.Ratio)
	}
	w, h := res.Image.Bounds().Dx(), res.Image.Bounds().Dy()
	// Detected corners may include the 5 pixel stroke padding, 8 pixels at
	// full scale.
	if w < 798 || w > 818 || h < 598 || h > 618 {
		t.Errorf("page size %dx%d, want about 800x600", w, h)
	}
	if res.Warped.Bounds() != res.Image.Bounds() {
		t.Errorf("warped bounds %v differ from image bounds %v", res.Warped.Bounds(), res.Image.Bounds())
	}
	// The page interior is white.
	if v := res.Image.GrayAt(w/2, h/2).Y; v < 240 {
		t.Errorf("page centre: got %d, want white", v)
	}
}

func TestScan_FallbackIsDegraded(t *testing.T) {
	s := newTestScanner(DefaultOptions())

	res, err := s.Scan(context.Background(), uniformImage(300, 200))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Degraded || res.Source != detection.SourceFallback {
		t.Errorf("got source %s degraded=%v, want fallback", res.Source, res.Degraded)
	}
	if res.Image.Bounds().Dx() != 300 || res.Image.Bounds().Dy() != 200 {
		t.Errorf("size: got %v, want the whole 300x200 image", res.Image.Bounds())
	}
}

func TestScan_Binarize(t *testing.T) {
	opts := DefaultOptions()
	opts.Binarize = true
	s := newTestScanner(opts)

	res, err := s.Scan(context.Background(), pageImage())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for i, v := range res.Image.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d = %d, want binary output", i, v)
		}
	}
}

func TestDetect_EmptyImage(t *testing.T) {
	s := newTestScanner(DefaultOptions())
	for _, img := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 0))} {
		if _, err := s.Detect(img); !errors.Is(err, ErrUnreadableImage) {
			t.Errorf("Detect(%v): got %v, want ErrUnreadableImage", img, err)
		}
	}
}

func TestScanReader_Unreadable(t *testing.T) {
	s := newTestScanner(DefaultOptions())
	_, err := s.ScanReader(context.Background(), strings.NewReader("not an image"))
	if !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("got %v, want ErrUnreadableImage", err)
	}
}

func TestScanFile_Missing(t *testing.T) {
	s := newTestScanner(DefaultOptions())
	_, err := s.ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("got %v, want ErrUnreadableImage", err)
	}
}

func TestSession_NonInteractiveStates(t *testing.T) {
	s := newTestScanner(DefaultOptions())

	sess, err := s.Detect(pageImage())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if sess.State() != StateRectifying {
		t.Fatalf("state: got %s, want rectifying", sess.State())
	}
	if err := sess.Correct(sess.Quad()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Correct: got %v, want ErrInvalidState", err)
	}
	if err := sess.Abandon(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Abandon: got %v, want ErrInvalidState", err)
	}

	if _, err := s.Rectify(sess); err != nil {
		t.Fatalf("Rectify: %v", err)
	}
	if sess.State() != StateDone {
		t.Errorf("state: got %s, want done", sess.State())
	}
	if sess.Working() != nil {
		t.Error("working image should be released once done")
	}
	if _, err := s.Rectify(sess); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Rectify: got %v, want ErrInvalidState", err)
	}
}

func TestSession_InteractiveStates(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	s := newTestScanner(opts)

	sess, err := s.Detect(pageImage())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if sess.State() != StateAwaitingCorrection {
		t.Fatalf("state: got %s, want awaiting_correction", sess.State())
	}
	if _, err := s.Rectify(sess); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Rectify before correction: got %v, want ErrInvalidState", err)
	}

	req := sess.Proposal()
	if req.Width != 625 || req.Height != 500 {
		t.Errorf("proposal size: got %dx%d, want 625x500", req.Width, req.Height)
	}
	if req.Quad != sess.Quad() {
		t.Errorf("proposal quad %v differs from session quad %v", req.Quad, sess.Quad())
	}

	if err := sess.Correct(geometry.Quad{{X: -10, Y: -10}, {X: 700, Y: 0}, {X: 700, Y: 600}, {X: 0, Y: 600}}); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	want := geometry.Quad{{X: 0, Y: 0}, {X: 625, Y: 0}, {X: 625, Y: 500}, {X: 0, Y: 500}}
	if sess.Quad() != want {
		t.Errorf("clamped quad: got %v, want %v", sess.Quad(), want)
	}
	if sess.Source() != detection.SourceManual {
		t.Errorf("source: got %s, want manual", sess.Source())
	}
	if err := sess.Correct(want); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Correct: got %v, want ErrInvalidState", err)
	}
}

func TestSession_AcceptingProposalKeepsSource(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	s := newTestScanner(opts)

	sess, err := s.Detect(uniformImage(300, 200))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if err := sess.Correct(sess.Proposal().Quad); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if sess.Source() != detection.SourceFallback || !sess.Degraded() {
		t.Errorf("source: got %s, want fallback kept", sess.Source())
	}
}

func TestSession_CorrectRejectsNonFinite(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	s := newTestScanner(opts)

	sess, err := s.Detect(uniformImage(300, 200))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	proposal := sess.Quad()

	bad := geometry.RectQuad(10, 10, 200, 150)
	bad[2].X = math.NaN()
	if err := sess.Correct(bad); !errors.Is(err, ErrInvalidQuad) {
		t.Fatalf("Correct with NaN: got %v, want ErrInvalidQuad", err)
	}
	bad[2].X, bad[3].Y = 200, math.Inf(1)
	if err := sess.Correct(bad); !errors.Is(err, ErrInvalidQuad) {
		t.Fatalf("Correct with Inf: got %v, want ErrInvalidQuad", err)
	}
	if sess.State() != StateAwaitingCorrection || sess.Quad() != proposal {
		t.Errorf("rejected correction changed the session: state %s quad %v", sess.State(), sess.Quad())
	}
}

func TestScan_NonFiniteCorrectionKeepsProposal(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	corrector := CorrectorFunc(func(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
		q := req.Quad
		q[0].Y = math.NaN()
		return q, nil
	})
	s := newTestScanner(opts, WithCorrector(corrector))

	res, err := s.Scan(context.Background(), pageImage())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Source == detection.SourceManual || res.Degraded {
		t.Errorf("source: got %s, want the detected outline", res.Source)
	}
}

func TestScan_CorrectorQuad(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	var got CorrectionRequest
	corrector := CorrectorFunc(func(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
		got = req
		return geometry.RectQuad(50, 50, 550, 450), nil
	})
	s := newTestScanner(opts, WithCorrector(corrector))

	res, err := s.Scan(context.Background(), pageImage())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got.Image == nil {
		t.Fatal("corrector was not called with the working image")
	}
	if res.Source != detection.SourceManual {
		t.Errorf("source: got %s, want manual", res.Source)
	}
	if want := geometry.RectQuad(80, 80, 880, 720); !quadNear(res.Quad, want, 1e-9) {
		t.Errorf("full-scale quad: got %v, want %v", res.Quad, want)
	}
	if res.Image.Bounds().Dx() != 800 || res.Image.Bounds().Dy() != 640 {
		t.Errorf("size: got %v, want 800x640", res.Image.Bounds())
	}
}

func TestScan_CorrectorAbandons(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	corrector := CorrectorFunc(func(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
		return geometry.Quad{}, ErrCorrectionAbandoned
	})
	s := newTestScanner(opts, WithCorrector(corrector))

	res, err := s.Scan(context.Background(), pageImage())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Source == detection.SourceManual || res.Degraded {
		t.Errorf("source: got %s, want the detected outline", res.Source)
	}
}

func TestScan_CancelledCorrection(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// The corrector ignores ctx, so only the scanner can stop waiting.
	corrector := CorrectorFunc(func(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
		<-release
		return geometry.Quad{}, nil
	})
	s := newTestScanner(opts, WithCorrector(corrector))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := s.Scan(ctx, uniformImage(300, 200))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Source != detection.SourceFallback {
		t.Errorf("source: got %s, want the best guess", res.Source)
	}
}

func TestScan_InteractiveWithoutCorrector(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	s := newTestScanner(opts)

	if _, err := s.Scan(context.Background(), uniformImage(120, 80)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
}

func TestScan_LogsFallbackWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := New(DefaultOptions(), WithLogger(logger))

	if _, err := s.Scan(context.Background(), uniformImage(120, 80)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["source"] == detection.SourceFallback {
			found = true
		}
	}
	if !found {
		t.Errorf("no fallback warning among %d entries", len(hook.AllEntries()))
	}
}
