package colour

import (
	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
)

// Red is the colour Blink uses when none is given.
var Red = [3]int{255, 0, 0}

// Blink flashes through a list of colours; Next and Prev select which one
// is shown during the on part of the cycle.
type Blink struct {
	picofx.Cycling
	Phase   float64
	Duty    float64
	colours [][3]int
	index   int
}

func NewBlink(colours [][3]int, speed, phase, duty float64) *Blink {
	if len(colours) == 0 {
		colours = [][3]int{Red}
	}
	return &Blink{
		Cycling: picofx.Cycling{Speed: speed},
		Phase:   phase,
		Duty:    duty,
		colours: append([][3]int(nil), colours...),
	}
}

func (b *Blink) RGB() (int, int, int) {
	if mathx.Frac(b.Offset()+b.Phase) < b.Duty {
		c := b.colours[b.index]
		return c[0], c[1], c[2]
	}
	return 0, 0, 0
}

func (b *Blink) Next() { b.index = (b.index + 1) % len(b.colours) }

func (b *Blink) Prev() { b.index = (b.index - 1 + len(b.colours)) % len(b.colours) }

// Index is the colour currently selected.
func (b *Blink) Index() int { return b.index }
