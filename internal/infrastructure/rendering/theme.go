package rendering

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a colour in 0-255 components
type RGB struct {
	R, G, B int
}

// Hex returns the colour as #RRGGBB
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses #RRGGBB or RRGGBB
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, nil
}

// Theme holds the brand colours shared by the PDF and HTML renderers
type Theme struct {
	Stripe    [3]RGB
	Accent    RGB
	Shade     RGB
	TotalFill RGB
	Text      RGB
	Muted     RGB
}

// DefaultTheme returns the green/white/blue brand stripe
func DefaultTheme() Theme {
	return Theme{
		Stripe:    [3]RGB{{30, 181, 58}, {255, 255, 255}, {0, 114, 198}},
		Accent:    RGB{15, 61, 62},
		Shade:     RGB{240, 247, 242},
		TotalFill: RGB{225, 236, 228},
		Text:      RGB{33, 37, 41},
		Muted:     RGB{108, 117, 125},
	}
}

// WithStripe returns a copy of the theme using the given stripe colours.
// An empty list leaves the theme unchanged.
func (t Theme) WithStripe(hex []string) (Theme, error) {
	if len(hex) == 0 {
		return t, nil
	}
	if len(hex) != 3 {
		return t, fmt.Errorf("stripe needs exactly 3 colours, got %d", len(hex))
	}
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			return t, err
		}
		t.Stripe[i] = c
	}
	return t, nil
}
