package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/foundersai25/talkdoc-core/internal/geometry"
)

// DefaultOverlayColor is the quad colour used when none or an invalid one
// is configured.
const DefaultOverlayColor = "#FFFF00"

// OverlayColor parses a "#RRGGBB" string, falling back to
// DefaultOverlayColor.
func OverlayColor(hex string) color.NRGBA {
	return toNRGBA(parseOverlayColor(hex))
}

// ParseHexColor parses a "#RRGGBB" string.
func ParseHexColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return toNRGBA(c), nil
}

func parseOverlayColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(DefaultOverlayColor)
	}
	return c
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// DrawQuad renders quad on a copy of img: its four edges, a handle on every
// corner and the corner coordinates next to each handle. The copy has
// bounds at (0,0); quad is in those coordinates.
func DrawQuad(img image.Image, quad geometry.Quad, hexColor string) *image.NRGBA {
	out := imaging.Clone(img)
	c := parseOverlayColor(hexColor)
	fg := toNRGBA(c)
	// Labels sit on a darkened shade of the quad colour.
	bg := toNRGBA(c.BlendLab(colorful.Color{}, 0.75))

	q := quad.Ordered()
	for i := range q {
		drawLine(out, q[i], q[(i+1)%4], 2, fg)
	}
	for _, p := range q {
		fillCircle(out, p, 5, fg)
		label := fmt.Sprintf("%d,%d", int(math.Round(p.X)), int(math.Round(p.Y)))
		drawLabel(out, int(p.X)+8, int(p.Y)+8, label, fg, bg)
	}
	return out
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// drawLine strokes a segment with a square brush of the given half width.
func drawLine(img *image.NRGBA, a, b geometry.Point, half int, c color.NRGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				setPixel(img, x+dx, y+dy, c)
			}
		}
	}
}

func fillCircle(img *image.NRGBA, center geometry.Point, r int, c color.NRGBA) {
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

// drawLabel draws text with a 3x5 pixel font for digits, comma and minus.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						setPixel(img, cx+col, y+row+1, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
