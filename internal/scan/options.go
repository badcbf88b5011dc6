package scan

import (
	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultPDFDPI is the resolution at which rectified pages are embedded in
// PDF output.
const DefaultPDFDPI = 100

// Options configures a Scanner.
type Options struct {
	// DetectionHeight is the height, in pixels, of the working image used
	// for detection.
	DetectionHeight int

	// MinQuadAreaRatio is the fraction of the working image a detected
	// quadrilateral must exceed.
	MinQuadAreaRatio float64

	// MaxQuadAngleRange is the largest allowed interior angle spread, in
	// degrees.
	MaxQuadAngleRange float64

	// MinCornerDistance is the deduplication distance for candidate corners,
	// in working image pixels.
	MinCornerDistance float64

	// Interactive pauses every scan for a correction before rectifying.
	Interactive bool

	// Binarize applies adaptive thresholding after sharpening.
	Binarize bool

	// Edge controls the edge map built for detection.
	Edge imaging.EdgeOptions
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	sel := detection.DefaultSelectOptions()
	return Options{
		DetectionHeight:   500,
		MinQuadAreaRatio:  sel.MinAreaRatio,
		MaxQuadAngleRange: sel.MaxAngleRange,
		MinCornerDistance: detection.DefaultCornerOptions().MinDistance,
		Edge:              imaging.DefaultEdgeOptions(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DetectionHeight <= 0 {
		o.DetectionHeight = d.DetectionHeight
	}
	if o.MinQuadAreaRatio <= 0 {
		o.MinQuadAreaRatio = d.MinQuadAreaRatio
	}
	if o.MaxQuadAngleRange <= 0 {
		o.MaxQuadAngleRange = d.MaxQuadAngleRange
	}
	if o.MinCornerDistance <= 0 {
		o.MinCornerDistance = d.MinCornerDistance
	}
	if o.Edge == (imaging.EdgeOptions{}) {
		o.Edge = d.Edge
	}
	return o
}

func (o Options) cornerOptions() detection.CornerOptions {
	c := detection.DefaultCornerOptions()
	c.MinDistance = o.MinCornerDistance
	return c
}

func (o Options) selectOptions() detection.SelectOptions {
	s := detection.DefaultSelectOptions()
	s.MinAreaRatio = o.MinQuadAreaRatio
	s.MaxAngleRange = o.MaxQuadAngleRange
	return s
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithCorrector sets the Corrector consulted by interactive scans.
func WithCorrector(c Corrector) Option {
	return func(s *Scanner) {
		s.corrector = c
	}
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}
