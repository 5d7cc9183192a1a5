package colour

import (
	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
)

// Rainbow sweeps the hue once per second at speed 1.
type Rainbow struct {
	picofx.Cycling
	Sat, Val float64
}

func NewRainbow(speed, sat, val float64) *Rainbow {
	return &Rainbow{Cycling: picofx.Cycling{Speed: speed}, Sat: sat, Val: val}
}

func (r *Rainbow) RGB() (int, int, int) { return picofx.RGB8FromHSV(r.Offset(), r.Sat, r.Val) }

// RainbowWave spreads the rainbow across Length positions.
type RainbowWave struct {
	picofx.Cycling
	Length   float64
	Sat, Val float64
}

func NewRainbowWave(speed, length, sat, val float64) *RainbowWave {
	if length <= 0 {
		length = 1
	}
	return &RainbowWave{Cycling: picofx.Cycling{Speed: speed}, Length: length, Sat: sat, Val: val}
}

func (w *RainbowWave) At(pos int) picofx.Colour {
	return view{src: w, fn: func() (int, int, int) {
		hue := mathx.Frac(w.Offset() + float64(pos)/w.Length)
		return picofx.RGB8FromHSV(hue, w.Sat, w.Val)
	}}
}

type view struct {
	src picofx.Updatable
	fn  func() (int, int, int)
}

func (v view) RGB() (int, int, int)     { return v.fn() }
func (v view) Source() picofx.Updatable { return v.src }

// HueStep jumps the hue by 1/Steps every interval.
type HueStep struct {
	iv       picofx.Interval
	Hue      float64
	Sat, Val float64
	steps    int
	current  int
}

func NewHueStep(intervalS, hue, sat, val float64, steps int) *HueStep {
	if steps <= 0 {
		steps = 1
	}
	return &HueStep{iv: picofx.Interval{Seconds: intervalS}, Hue: hue, Sat: sat, Val: val, steps: steps}
}

func (h *HueStep) RGB() (int, int, int) {
	hue := mathx.Frac(h.Hue + float64(h.current)/float64(h.steps))
	return picofx.RGB8FromHSV(hue, h.Sat, h.Val)
}

func (h *HueStep) Tick(deltaMs int) {
	if h.iv.Advance(deltaMs) {
		h.current = (h.current + 1) % h.steps
	}
}

func (h *HueStep) Reset() {
	h.iv.Reset()
	h.current = 0
}
