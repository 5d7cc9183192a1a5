package colour

import (
	"testing"

	"tinyfx-go/picofx"
)

func TestRGB_Clamps(t *testing.T) {
	r, g, b := NewRGB(300, -1, 7).RGB()
	if r != 255 || g != 0 || b != 7 {
		t.Fatalf("%d,%d,%d", r, g, b)
	}
}

func TestHSV(t *testing.T) {
	if r, g, b := NewHSV(0, 1, 1).RGB(); r != 255 || g != 0 || b != 0 {
		t.Fatalf("%d,%d,%d", r, g, b)
	}
}

func TestRainbow(t *testing.T) {
	rb := NewRainbow(1, 1, 1)
	if r, _, _ := rb.RGB(); r != 255 {
		t.Fatal("rainbow starts red")
	}
	rb.Tick(500)
	if r, g, b := rb.RGB(); r != 0 || g != 255 || b != 255 {
		t.Fatalf("half turn should be cyan, got %d,%d,%d", r, g, b)
	}
}

func TestRainbowWave(t *testing.T) {
	w := NewRainbowWave(1, 2, 1, 1)
	a, b := w.At(0), w.At(1)
	if a.(picofx.Sourced).Source() != b.(picofx.Sourced).Source() {
		t.Fatal("shared source")
	}
	if r, g, bb := b.RGB(); r != 0 || g != 255 || bb != 255 {
		t.Fatalf("pos 1 of 2 should be cyan, got %d,%d,%d", r, g, bb)
	}
}

func TestHueStep(t *testing.T) {
	h := NewHueStep(1, 0, 1, 1, 2)
	if r, _, _ := h.RGB(); r != 255 {
		t.Fatal("starts red")
	}
	h.Tick(1000)
	if r, g, b := h.RGB(); r != 0 || g != 255 || b != 255 {
		t.Fatalf("step 1 of 2 should be cyan, got %d,%d,%d", r, g, b)
	}
	h.Tick(1000)
	if r, _, _ := h.RGB(); r != 255 {
		t.Fatal("steps wrap")
	}
}

func TestBlink_NegativePhase(t *testing.T) {
	if r, g, b := NewBlink(nil, 1, -0.25, 0.5).RGB(); r|g|b != 0 {
		t.Fatalf("phase -0.25 should be off, got %d,%d,%d", r, g, b)
	}
	if r, _, _ := NewBlink(nil, 1, -0.75, 0.5).RGB(); r != 255 {
		t.Fatal("phase -0.75 should be on")
	}
}

func TestBlink_ColoursNextPrev(t *testing.T) {
	b := NewBlink(nil, 1, 0, 0.5)
	if r, g, bb := b.RGB(); r != 255 || g != 0 || bb != 0 {
		t.Fatal("default colour is red")
	}

	b = NewBlink([][3]int{{1, 2, 3}, {4, 5, 6}}, 1, 0, 0.5)
	b.Prev()
	if b.Index() != 1 {
		t.Fatalf("prev wraps to last, got %d", b.Index())
	}
	if r, _, _ := b.RGB(); r != 4 {
		t.Fatal("second colour")
	}
	b.Next()
	if b.Index() != 0 {
		t.Fatal("next wraps to first")
	}
	b.Tick(600)
	if r, g, bb := b.RGB(); r|g|bb != 0 {
		t.Fatal("off part of the cycle")
	}
}
