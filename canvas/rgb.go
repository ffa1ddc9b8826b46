package canvas

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGB is a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Predefined colors
var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
)

// ParseHex parses "#rrggbb" or "#rgb"
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, errors.Wrapf(err, "canvas: parse color %q", s)
	}
	return FromColorful(c), nil
}

// MustHex is ParseHex for compile-time palettes, panics on malformed input
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FromColorful converts a colorful.Color, clamping out-of-gamut values
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Colorful converts to colorful.Color
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Hex formats as "#rrggbb"
func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

// Blend performs linear alpha blending: dst*(1-alpha) + src*alpha
func Blend(dst, src RGB, alpha float64) RGB {
	if alpha <= 0 {
		return dst
	}
	if alpha >= 1 {
		return src
	}
	return FromColorful(dst.Colorful().BlendRgb(src.Colorful(), alpha))
}
