package mono

import (
	"math"
	"math/rand"
	"testing"

	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPulse(t *testing.T) {
	p := NewPulse(1, 0)
	if !near(p.Brightness(), 0.5) {
		t.Fatalf("start=%v", p.Brightness())
	}
	p.Tick(250)
	if !near(p.Brightness(), 1) {
		t.Fatalf("quarter=%v", p.Brightness())
	}
	p.Tick(500)
	if !near(p.Brightness(), 0) {
		t.Fatalf("three quarters=%v", p.Brightness())
	}
}

func TestPulseWave_PositionsShareSource(t *testing.T) {
	w := NewPulseWave(1, 4, 0)
	a, b := w.At(0), w.At(1)
	if a.(picofx.Sourced).Source() != b.(picofx.Sourced).Source() {
		t.Fatal("positions must share one source")
	}
	// Position 1 of 4 is a quarter turn ahead.
	if !near(b.Brightness(), 1) || !near(a.Brightness(), 0.5) {
		t.Fatalf("a=%v b=%v", a.Brightness(), b.Brightness())
	}
}

func TestBlinkAndWave(t *testing.T) {
	b := NewBlink(1, 0, 0.5)
	if b.Brightness() != 1 {
		t.Fatal("blink should start on")
	}
	b.Tick(600)
	if b.Brightness() != 0 {
		t.Fatal("blink should be off after duty")
	}
	w := NewBlinkWave(1, 2, 0, 0.5)
	if w.At(0).Brightness() != 1 || w.At(1).Brightness() != 0 {
		t.Fatal("half-cycle positions should be opposite")
	}
}

func TestFlash(t *testing.T) {
	if _, err := NewFlash(1, 0, 0.5, 0, 0.5); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("zero flashes err=%v", err)
	}
	f, err := NewFlash(1, 2, 0.2, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// Window 0.2 with 2 flashes: on 0-50ms, off 50-100, on 100-150, off after.
	steps := []struct {
		tick int
		want float64
	}{{0, 1}, {60, 0}, {50, 1}, {50, 0}, {100, 0}}
	for i, s := range steps {
		f.Tick(s.tick)
		if got := f.Brightness(); got != s.want {
			t.Fatalf("step %d: got %v want %v", i, got, s.want)
		}
	}
	if err := f.SetFlashes(-1); err == nil || f.Flashes() != 2 {
		t.Fatal("SetFlashes must reject non-positive values")
	}
}

func TestNegativePhaseWrapsForward(t *testing.T) {
	// -0.25 of a turn sits at 0.75, in the off half.
	if b := NewBlink(1, -0.25, 0.5).Brightness(); b != 0 {
		t.Fatalf("blink phase -0.25: %v", b)
	}
	if b := NewBlink(1, -0.75, 0.5).Brightness(); b != 1 {
		t.Fatalf("blink phase -0.75: %v", b)
	}
	f, err := NewFlash(1, 2, 0.5, -0.25, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if b := f.Brightness(); b != 0 {
		t.Fatalf("flash phase -0.25: %v", b)
	}
}

func TestFlashSequence(t *testing.T) {
	s, err := NewFlashSequence(1, 2, 1, 0.5, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.At(0).Brightness() != 1 || s.At(1).Brightness() != 0 {
		t.Fatal("positions 0/1 of 2 should be on/off")
	}
}

func TestRandom_StaysInRange(t *testing.T) {
	r := NewRandom(0.01, 0.2, 0.4, rand.New(rand.NewSource(1)))
	for i := 0; i < 100; i++ {
		r.Tick(10)
		if b := r.Brightness(); b < 0.2 || b > 0.4 {
			t.Fatalf("out of range: %v", b)
		}
	}
}

func TestFlicker_Alternates(t *testing.T) {
	f := NewFlicker(1, 0.5, 0.01, 0.01, 0.01, 0.01, rand.New(rand.NewSource(2)))
	if f.Brightness() != 1 {
		t.Fatal("starts bright")
	}
	f.Tick(10)
	if f.Brightness() != 0.5 {
		t.Fatalf("dim=%v", f.Brightness())
	}
	f.Tick(10)
	if f.Brightness() != 1 {
		t.Fatal("bright again")
	}
}

func TestBinaryCounter(t *testing.T) {
	c := NewBinaryCounter(0.1, 0, 1)
	bits := []picofx.Mono{c.Bit(0), c.Bit(1), c.Bit(2)}
	for i := 0; i < 5; i++ {
		c.Tick(100)
	}
	// 5 = 0b101
	if bits[0].Brightness() != 1 || bits[1].Brightness() != 0 || bits[2].Brightness() != 1 {
		t.Fatalf("counter=%d", c.Counter)
	}
	c.Reset()
	if c.Counter != 0 {
		t.Fatal("reset")
	}
}

func TestBinaryCounter_OutOfRangeBits(t *testing.T) {
	c := NewBinaryCounter(0.1, -1, 1)
	for _, n := range []int{-1, -64, 64, 1000} {
		if got := c.Bit(n).Brightness(); got != 0 {
			t.Fatalf("bit %d = %v, want 0", n, got)
		}
	}
	if c.Bit(0).Brightness() != 1 {
		t.Fatal("bit 0 of -1 should be set")
	}
}

func TestTrafficLight_Sequence(t *testing.T) {
	tl := NewTrafficLight(1, 0.5, 1, 0.5, 1, false) // instant fades
	red, amber, green := tl.Red(), tl.Amber(), tl.Green()

	tl.Tick(10)
	if red.Brightness() != 1 || amber.Brightness() != 0 || green.Brightness() != 0 {
		t.Fatal("expected red")
	}
	tl.Tick(1000)
	if tl.State() != 1 || red.Brightness() != 1 || amber.Brightness() != 1 {
		t.Fatal("expected red+amber")
	}
	tl.Tick(500)
	if tl.State() != 2 || green.Brightness() != 1 || red.Brightness() != 0 {
		t.Fatal("expected green")
	}
	tl.Tick(1000)
	if tl.State() != 3 || amber.Brightness() != 1 || green.Brightness() != 0 {
		t.Fatal("expected amber")
	}
	tl.Tick(500)
	if tl.State() != 0 {
		t.Fatal("expected wrap to red")
	}
}

func TestTrafficLight_FadeAndFlashingAmber(t *testing.T) {
	tl := NewTrafficLight(1, 1, 1, 1, 0.001, true)
	tl.Tick(500)
	if !near(tl.Red().Brightness(), 0.5) {
		t.Fatalf("red fading in: %v", tl.Red().Brightness())
	}
	tl.Tick(500) // enter state 1: flashing amber without red
	if tl.State() != 1 || !near(tl.Red().Brightness(), 0) || !near(tl.Amber().Brightness(), 0.5) {
		t.Fatalf("state=%d red=%v amber=%v", tl.State(), tl.Red().Brightness(), tl.Amber().Brightness())
	}
	tl.Tick(200) // 0.2s into state: off half of the flash cycle
	if !near(tl.Amber().Brightness(), 0.3) {
		t.Fatalf("amber should fade while flashing off: %v", tl.Amber().Brightness())
	}
	tl.Tick(100) // 0.3s: on half again
	if !near(tl.Amber().Brightness(), 0.4) {
		t.Fatalf("amber should rise while flashing on: %v", tl.Amber().Brightness())
	}
}
