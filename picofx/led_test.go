package picofx

import (
	"math"
	"testing"
)

type fakeChannel struct{ duty uint16 }

func (f *fakeChannel) SetDuty(d uint16) { f.duty = d }

func TestPWMLED_GammaAndClamp(t *testing.T) {
	ch := &fakeChannel{duty: 123}
	l := NewPWMLED(ch, 2.8, false)
	if ch.duty != 0 {
		t.Fatalf("new LED not off: duty=%d", ch.duty)
	}

	l.SetBrightness(0.5)
	want := uint16(math.Pow(0.5, 2.8)*65535 + 0.5)
	if ch.duty != want || l.Duty() != want {
		t.Fatalf("duty=%d want %d", ch.duty, want)
	}

	l.SetBrightness(4)
	if ch.duty != MaxDuty || l.Brightness() != 1 {
		t.Fatalf("not clamped high: duty=%d b=%v", ch.duty, l.Brightness())
	}
	l.SetBrightness(-1)
	if ch.duty != 0 || l.Brightness() != 0 {
		t.Fatalf("not clamped low: duty=%d", ch.duty)
	}
}

func TestPWMLED_OnOffToggleInvert(t *testing.T) {
	ch := &fakeChannel{}
	l := NewPWMLED(ch, 1, true)
	if ch.duty != MaxDuty {
		t.Fatalf("inverted off should be full duty, got %d", ch.duty)
	}
	l.On()
	if ch.duty != 0 {
		t.Fatalf("inverted on should be zero duty, got %d", ch.duty)
	}
	l.SetBrightness(0.25)
	l.Toggle()
	if l.Brightness() != 0.75 {
		t.Fatalf("toggle: %v", l.Brightness())
	}
	l.Off()
	if l.Brightness() != 0 {
		t.Fatal("off")
	}
}

func TestRGBLED_SetRGBClamps(t *testing.T) {
	r, g, b := &fakeChannel{}, &fakeChannel{}, &fakeChannel{}
	l := NewRGBLED(r, g, b, 1, false)
	l.SetRGB(300, -5, 128)
	if r.duty != 65535 || g.duty != 0 || b.duty != 32896 {
		t.Fatalf("duties r=%d g=%d b=%d", r.duty, g.duty, b.duty)
	}
	if rr, gg, bb := l.RGB(); rr != 255 || gg != 0 || bb != 128 {
		t.Fatalf("RGB()=%d,%d,%d", rr, gg, bb)
	}
}

func TestRGBLED_SetHSV(t *testing.T) {
	r, g, b := &fakeChannel{}, &fakeChannel{}, &fakeChannel{}
	l := NewRGBLED(r, g, b, 1, false)
	l.SetHSV(0, 1, 1)
	if r.duty != MaxDuty || g.duty != 0 || b.duty != 0 {
		t.Fatalf("red: %d %d %d", r.duty, g.duty, b.duty)
	}
	l.SetHSV(0.5, 0, 0.5)
	if r.duty != g.duty || g.duty != b.duty {
		t.Fatalf("grey channels differ: %d %d %d", r.duty, g.duty, b.duty)
	}
}

func TestRGBFromHSV(t *testing.T) {
	cases := []struct {
		h, s, v float64
		r, g, b int
	}{
		{0, 1, 1, 255, 0, 0},
		{1.0 / 3, 1, 1, 0, 255, 0},
		{2.0 / 3, 1, 1, 0, 0, 255},
		{1, 1, 1, 255, 0, 0}, // wraps
		{0.25, 0, 0.5, 127, 127, 127},
	}
	for _, c := range cases {
		r, g, b := RGB8FromHSV(c.h, c.s, c.v)
		if abs(r-c.r) > 1 || abs(g-c.g) > 1 || abs(b-c.b) > 1 {
			t.Fatalf("hsv(%v,%v,%v) = %d,%d,%d want %d,%d,%d", c.h, c.s, c.v, r, g, b, c.r, c.g, c.b)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
