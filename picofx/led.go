package picofx

import (
	"math"
	"sync"

	"tinyfx-go/x/mathx"
)

// MaxDuty is the full-scale duty value accepted by DutyChannel.
const MaxDuty = 0xFFFF

// DutyChannel is one PWM output with a 16-bit duty cycle.
type DutyChannel interface {
	SetDuty(duty uint16)
}

// gammaDuty maps a 0..1 level to a 16-bit duty with gamma correction,
// rounding to nearest.
func gammaDuty(level, gamma float64, invert bool) uint16 {
	level = mathx.Unit(level)
	d := uint16(math.Pow(level, gamma)*MaxDuty + 0.5)
	if invert {
		d = MaxDuty - d
	}
	return d
}

// PWMLED is a single LED on a PWM channel with brightness control.
type PWMLED struct {
	mu         sync.Mutex
	ch         DutyChannel
	gamma      float64
	invert     bool
	brightness float64
	duty       uint16
}

// NewPWMLED wraps ch. The LED starts off.
func NewPWMLED(ch DutyChannel, gamma float64, invert bool) *PWMLED {
	if gamma <= 0 {
		gamma = 1
	}
	l := &PWMLED{ch: ch, gamma: gamma, invert: invert}
	l.SetBrightness(0)
	return l
}

// SetBrightness clamps b to [0, 1] and applies it.
func (l *PWMLED) SetBrightness(b float64) {
	b = mathx.Unit(b)
	d := gammaDuty(b, l.gamma, l.invert)
	l.mu.Lock()
	l.brightness, l.duty = b, d
	l.mu.Unlock()
	l.ch.SetDuty(d)
}

func (l *PWMLED) Brightness() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness
}

// Duty is the last duty written, after gamma and inversion.
func (l *PWMLED) Duty() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.duty
}

func (l *PWMLED) Gamma() float64 { return l.gamma }

func (l *PWMLED) On()     { l.SetBrightness(1) }
func (l *PWMLED) Off()    { l.SetBrightness(0) }
func (l *PWMLED) Toggle() { l.SetBrightness(1 - l.Brightness()) }

// RGBLED is a three-channel LED sharing one gamma.
type RGBLED struct {
	mu      sync.Mutex
	r, g, b DutyChannel
	gamma   float64
	invert  bool
	last    [3]int
}

func NewRGBLED(r, g, b DutyChannel, gamma float64, invert bool) *RGBLED {
	if gamma <= 0 {
		gamma = 1
	}
	l := &RGBLED{r: r, g: g, b: b, gamma: gamma, invert: invert}
	l.SetRGB(0, 0, 0)
	return l
}

func (l *RGBLED) levels(r, g, b float64) {
	l.r.SetDuty(gammaDuty(r, l.gamma, l.invert))
	l.g.SetDuty(gammaDuty(g, l.gamma, l.invert))
	l.b.SetDuty(gammaDuty(b, l.gamma, l.invert))
}

// SetRGB clamps each component to 0..255.
func (l *RGBLED) SetRGB(r, g, b int) {
	r, g, b = mathx.Clamp(r, 0, 255), mathx.Clamp(g, 0, 255), mathx.Clamp(b, 0, 255)
	l.mu.Lock()
	l.last = [3]int{r, g, b}
	l.mu.Unlock()
	l.levels(float64(r)/255, float64(g)/255, float64(b)/255)
}

// SetHSV sets the colour from hue, saturation and value, each 0..1.
// The hue wraps.
func (l *RGBLED) SetHSV(h, s, v float64) {
	r, g, b := RGBFromHSV(h, s, v)
	l.mu.Lock()
	l.last = [3]int{int(r * 255), int(g * 255), int(b * 255)}
	l.mu.Unlock()
	l.levels(r, g, b)
}

// RGB returns the last colour set, in 0..255.
func (l *RGBLED) RGB() (r, g, b int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last[0], l.last[1], l.last[2]
}

// Channels exposes the three channels as individual mono LEDs, so a
// MonoPlayer can drive the RGB output one component at a time.
func (l *RGBLED) Channels() [3]*PWMLED {
	return [3]*PWMLED{
		NewPWMLED(l.r, l.gamma, l.invert),
		NewPWMLED(l.g, l.gamma, l.invert),
		NewPWMLED(l.b, l.gamma, l.invert),
	}
}
