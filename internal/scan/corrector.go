package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/foundersai25/talkdoc-core/internal/geometry"
	docimaging "github.com/foundersai25/talkdoc-core/internal/imaging"
)

// Corrector lets a human, or anything else, adjust a proposed
// quadrilateral. Correct returns the corrected quadrilateral in working
// coordinates, or ErrCorrectionAbandoned to keep the proposal.
// Implementations should return promptly once ctx is done.
type Corrector interface {
	Correct(ctx context.Context, req CorrectionRequest) (geometry.Quad, error)
}

// CorrectorFunc adapts a function to the Corrector interface.
type CorrectorFunc func(ctx context.Context, req CorrectionRequest) (geometry.Quad, error)

// Correct calls f(ctx, req).
func (f CorrectorFunc) Correct(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
	return f(ctx, req)
}

// TerminalCorrector asks for corners on a line-oriented terminal.
//
// For every request it writes a preview PNG of the working image with the
// proposed outline, prints the corners and reads one line:
//
//	x,y x,y x,y x,y   four corners in working coordinates, any order
//	(empty)           accept the proposal
//	q                 abandon the correction
//
// Unparseable lines are reported and asked again. End of input abandons.
// Out defaults to standard output and In to standard input.
// A TerminalCorrector serves one request at a time.
type TerminalCorrector struct {
	In  io.Reader
	Out io.Writer

	// PreviewDir receives the preview images. Empty means the system
	// temporary directory.
	PreviewDir string

	// OverlayColor is the hex colour of the outline in previews.
	OverlayColor string

	once  sync.Once
	lines chan string
}

// Correct implements Corrector.
func (t *TerminalCorrector) Correct(ctx context.Context, req CorrectionRequest) (geometry.Quad, error) {
	t.once.Do(t.startReader)
	out := t.Out
	if out == nil {
		out = os.Stdout
	}

	preview, err := t.writePreview(req)
	if err != nil {
		fmt.Fprintf(out, "could not write preview: %v\n", err)
	} else {
		fmt.Fprintf(out, "Preview: %s\n", preview)
	}
	fmt.Fprintf(out, "Detected corners (%s): %s\n", req.Source, formatQuad(req.Quad))

	for {
		fmt.Fprint(out, "Enter corners as \"x,y x,y x,y x,y\", empty to accept, q to skip: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return geometry.Quad{}, ctx.Err()
		case line, ok = <-t.lines:
		}
		if !ok {
			return geometry.Quad{}, ErrCorrectionAbandoned
		}

		text := strings.TrimSpace(line)
		switch {
		case text == "":
			return req.Quad, nil
		case strings.EqualFold(text, "q"):
			return geometry.Quad{}, ErrCorrectionAbandoned
		}

		q, err := ParseQuad(text)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		return q, nil
	}
}

// startReader feeds input lines to a channel so that a pending read never
// blocks a cancelled correction.
func (t *TerminalCorrector) startReader() {
	t.lines = make(chan string)
	in := t.In
	if in == nil {
		in = os.Stdin
	}
	go func() {
		defer close(t.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			t.lines <- sc.Text()
		}
	}()
}

func (t *TerminalCorrector) writePreview(req CorrectionRequest) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("no working image")
	}
	f, err := os.CreateTemp(t.PreviewDir, "docscan-preview-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()

	overlay := docimaging.DrawQuad(req.Image, req.Quad, t.OverlayColor)
	if err := imaging.Encode(f, overlay, imaging.PNG); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// ParseQuad reads four "x,y" pairs separated by whitespace.
func ParseQuad(s string) (geometry.Quad, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return geometry.Quad{}, fmt.Errorf("expected 4 corners, got %d", len(fields))
	}
	var q geometry.Quad
	for i, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return geometry.Quad{}, fmt.Errorf("corner %q: expected x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return geometry.Quad{}, fmt.Errorf("corner %q: invalid x: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return geometry.Quad{}, fmt.Errorf("corner %q: invalid y: %w", f, err)
		}
		if !finite(x) || !finite(y) {
			return geometry.Quad{}, fmt.Errorf("corner %q: coordinates must be finite", f)
		}
		q[i] = geometry.Pt(x, y)
	}
	return q, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatQuad(q geometry.Quad) string {
	parts := make([]string, len(q))
	for i, p := range q {
		parts[i] = fmt.Sprintf("%.0f,%.0f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}
