package picofx

import "tinyfx-go/x/mathx"

// Updatable is effect state advanced once per player frame.
type Updatable interface {
	Tick(deltaMs int)
	Reset()
}

// Mono yields a brightness in 0..1.
type Mono interface {
	Brightness() float64
}

// Colour yields r, g, b in 0..255.
type Colour interface {
	RGB() (r, g, b int)
}

// Sourced is implemented by per-output views of a shared effect. The
// player ticks Source instead of the view.
type Sourced interface {
	Source() Updatable
}

// MonoFunc adapts a plain function to Mono.
type MonoFunc func() float64

func (f MonoFunc) Brightness() float64 { return f() }

// ColourFunc adapts a plain function to Colour.
type ColourFunc func() (r, g, b int)

func (f ColourFunc) RGB() (r, g, b int) { return f() }

// updatableOf returns the state a player must tick for effect e, if any.
func updatableOf(e any) Updatable {
	if s, ok := e.(Sourced); ok {
		return s.Source()
	}
	if u, ok := e.(Updatable); ok {
		return u
	}
	return nil
}

// Cycling keeps a phase that wraps every 1000 ms at speed 1.
type Cycling struct {
	Speed    float64
	offsetMs int
}

func (c *Cycling) Tick(deltaMs int) {
	c.offsetMs = mathx.Wrap(c.offsetMs+int(float64(deltaMs)*c.Speed), 1000)
}

func (c *Cycling) Reset() { c.offsetMs = 0 }

// Offset is the current phase in [0, 1).
func (c *Cycling) Offset() float64 { return float64(c.offsetMs) / 1000 }

// Interval fires once every Seconds of accumulated tick time, carrying
// the remainder over.
type Interval struct {
	Seconds float64
	elapsed float64
}

// Advance adds deltaMs and reports whether the interval elapsed.
func (iv *Interval) Advance(deltaMs int) bool {
	iv.elapsed += float64(deltaMs)
	limit := iv.Seconds * 1000
	if iv.elapsed >= limit {
		iv.elapsed -= limit
		return true
	}
	return false
}

func (iv *Interval) Reset() { iv.elapsed = 0 }

// Grey turns a Mono effect into a Colour by repeating its level on all
// three channels.
func Grey(m Mono) Colour { return grey{m} }

type grey struct{ m Mono }

func (g grey) RGB() (r, g2, b int) {
	v := int(g.m.Brightness() * 255)
	return v, v, v
}

func (g grey) Source() Updatable { return updatableOf(g.m) }
