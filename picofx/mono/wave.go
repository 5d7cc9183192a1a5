package mono

import (
	"math"

	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
)

// Pulse follows a sine wave, one period per second at speed 1.
type Pulse struct {
	picofx.Cycling
	Phase float64
}

func NewPulse(speed, phase float64) *Pulse {
	return &Pulse{Cycling: picofx.Cycling{Speed: speed}, Phase: phase}
}

func (p *Pulse) Brightness() float64 { return sine(p.Offset() + p.Phase) }

func sine(turns float64) float64 {
	return (math.Sin(turns*2*math.Pi) + 1) / 2
}

// PulseWave spreads a pulse across Length positions.
type PulseWave struct {
	picofx.Cycling
	Length float64
	Phase  float64
}

func NewPulseWave(speed, length, phase float64) *PulseWave {
	if length <= 0 {
		length = 1
	}
	return &PulseWave{Cycling: picofx.Cycling{Speed: speed}, Length: length, Phase: phase}
}

// At returns the view for position pos.
func (w *PulseWave) At(pos int) picofx.Mono {
	return view{src: w, fn: func() float64 {
		return sine(w.Offset() + w.Phase + float64(pos)/w.Length)
	}}
}

// Blink is on for Duty of each cycle.
type Blink struct {
	picofx.Cycling
	Phase float64
	Duty  float64
}

func NewBlink(speed, phase, duty float64) *Blink {
	return &Blink{Cycling: picofx.Cycling{Speed: speed}, Phase: phase, Duty: duty}
}

func (b *Blink) Brightness() float64 { return square(b.Offset()+b.Phase, b.Duty) }

func square(turns, duty float64) float64 {
	if mathx.Frac(turns) < duty {
		return 1
	}
	return 0
}

// BlinkWave spreads a blink across Length positions.
type BlinkWave struct {
	picofx.Cycling
	Length float64
	Phase  float64
	Duty   float64
}

func NewBlinkWave(speed, length, phase, duty float64) *BlinkWave {
	if length <= 0 {
		length = 1
	}
	return &BlinkWave{Cycling: picofx.Cycling{Speed: speed}, Length: length, Phase: phase, Duty: duty}
}

func (w *BlinkWave) At(pos int) picofx.Mono {
	return view{src: w, fn: func() float64 {
		return square(w.Offset()+w.Phase+float64(pos)/w.Length, w.Duty)
	}}
}

// view is a positional reading of a shared effect.
type view struct {
	src picofx.Updatable
	fn  func() float64
}

func (v view) Brightness() float64      { return v.fn() }
func (v view) Source() picofx.Updatable { return v.src }
