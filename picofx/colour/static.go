package colour

import (
	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
)

// RGB is a fixed colour; components are clamped on read.
type RGB struct {
	R, G, B int
}

func NewRGB(r, g, b int) *RGB { return &RGB{R: r, G: g, B: b} }

func (c *RGB) RGB() (r, g, b int) {
	return mathx.Clamp(c.R, 0, 255), mathx.Clamp(c.G, 0, 255), mathx.Clamp(c.B, 0, 255)
}

// HSV is a fixed colour given as hue, saturation and value.
type HSV struct {
	H, S, V float64
}

func NewHSV(h, s, v float64) *HSV { return &HSV{H: h, S: s, V: v} }

func (c *HSV) RGB() (r, g, b int) { return picofx.RGB8FromHSV(c.H, c.S, c.V) }
