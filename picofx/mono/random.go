package mono

import (
	"math/rand"

	"tinyfx-go/picofx"
)

// Random picks a new brightness in [Min, Max] every interval.
type Random struct {
	iv       picofx.Interval
	Min, Max float64
	rnd      *rand.Rand
	level    float64
}

// NewRandom uses the shared source when rnd is nil.
func NewRandom(intervalS, lo, hi float64, rnd *rand.Rand) *Random {
	r := &Random{iv: picofx.Interval{Seconds: intervalS}, Min: lo, Max: hi, rnd: rnd}
	r.level = r.pick()
	return r
}

func (r *Random) pick() float64 {
	f := rand.Float64
	if r.rnd != nil {
		f = r.rnd.Float64
	}
	return r.Min + (r.Max-r.Min)*f()
}

func (r *Random) Brightness() float64 { return r.level }

func (r *Random) Tick(deltaMs int) {
	if r.iv.Advance(deltaMs) {
		r.level = r.pick()
	}
}

func (r *Random) Reset() { r.iv.Reset() }

// Flicker alternates between bright and dim spells of random length, like
// a failing bulb or a candle.
type Flicker struct {
	Level     float64 // bright level
	Dimness   float64 // fraction removed while dim
	BrightMin float64 // seconds
	BrightMax float64
	DimMin    float64
	DimMax    float64

	rnd     *rand.Rand
	dim     bool
	elapsed float64
	spell   float64
}

func NewFlicker(level, dimness, brightMin, brightMax, dimMin, dimMax float64, rnd *rand.Rand) *Flicker {
	f := &Flicker{Level: level, Dimness: dimness, BrightMin: brightMin, BrightMax: brightMax, DimMin: dimMin, DimMax: dimMax, rnd: rnd}
	f.Reset()
	return f
}

func (f *Flicker) uniform(lo, hi float64) float64 {
	u := rand.Float64
	if f.rnd != nil {
		u = f.rnd.Float64
	}
	return (lo + (hi-lo)*u()) * 1000
}

func (f *Flicker) Brightness() float64 {
	if f.dim {
		return f.Level * (1 - f.Dimness)
	}
	return f.Level
}

func (f *Flicker) Tick(deltaMs int) {
	f.elapsed += float64(deltaMs)
	if f.elapsed < f.spell {
		return
	}
	f.elapsed -= f.spell
	f.dim = !f.dim
	if f.dim {
		f.spell = f.uniform(f.DimMin, f.DimMax)
	} else {
		f.spell = f.uniform(f.BrightMin, f.BrightMax)
	}
}

func (f *Flicker) Reset() {
	f.dim = false
	f.elapsed = 0
	f.spell = f.uniform(f.BrightMin, f.BrightMax)
}
