package picofx

import (
	"errors"
	"testing"
	"time"

	"tinyfx-go/errcode"
)

type fakeLED struct{ b float64 }

func (f *fakeLED) SetBrightness(b float64) { f.b = b }

type fakeRGB struct{ r, g, b int }

func (f *fakeRGB) SetRGB(r, g, b int) { f.r, f.g, f.b = r, g, b }

// counter records every tick it receives.
type counter struct {
	ticks  []int
	resets int
}

func (c *counter) Tick(d int)          { c.ticks = append(c.ticks, d) }
func (c *counter) Reset()              { c.resets++ }
func (c *counter) Brightness() float64 { return float64(len(c.ticks)) / 10 }

type counterView struct{ c *counter }

func (v counterView) Brightness() float64 { return 0.5 }
func (v counterView) Source() Updatable   { return v.c }

func monoLEDs(n int) ([]*fakeLED, []BrightnessSetter) {
	fakes := make([]*fakeLED, n)
	out := make([]BrightnessSetter, n)
	for i := range fakes {
		fakes[i] = &fakeLED{b: -1}
		out[i] = fakes[i]
	}
	return fakes, out
}

func TestMonoPlayer_SetEffects(t *testing.T) {
	fakes, leds := monoLEDs(3)
	p := NewMonoPlayer(leds...)

	err := p.SetEffects(MonoFunc(func() float64 { return 1 }), nil, nil, nil)
	if errcode.Of(err) != errcode.TooManyEffects {
		t.Fatalf("err=%v want too_many_effects", err)
	}

	if err := p.SetEffects(MonoFunc(func() float64 { return 0.3 })); err != nil {
		t.Fatal(err)
	}
	p.Update()
	if fakes[0].b != 0.3 {
		t.Fatalf("led0=%v", fakes[0].b)
	}
	if fakes[1].b != -1 || fakes[2].b != -1 {
		t.Fatal("empty slots must not be written")
	}
	if fx := p.Effects(); len(fx) != 3 || fx[0] == nil || fx[1] != nil {
		t.Fatalf("Effects()=%v", fx)
	}
}

func TestMonoPlayer_SharedSourceTickedOnce(t *testing.T) {
	_, leds := monoLEDs(3)
	p := NewMonoPlayer(leds...)
	c := &counter{}
	if err := p.SetEffects(counterView{c}, counterView{c}, c); err != nil {
		t.Fatal(err)
	}
	p.Update()
	if len(c.ticks) != 1 {
		t.Fatalf("shared source ticked %d times", len(c.ticks))
	}
	if c.ticks[0] != 1000 {
		t.Fatalf("default period before Start should be 1000 ms, got %d", c.ticks[0])
	}
}

func TestMonoPlayer_SetAllAndStopReset(t *testing.T) {
	fakes, leds := monoLEDs(2)
	p := NewMonoPlayer(leds...)
	c := &counter{}
	if err := p.SetAll(c); err != nil {
		t.Fatal(err)
	}
	p.Update()
	if fakes[0].b != fakes[1].b {
		t.Fatal("SetAll did not fill every slot")
	}
	p.Stop(true)
	if c.resets != 1 {
		t.Fatalf("resets=%d", c.resets)
	}
}

func TestPlayer_StartRuns(t *testing.T) {
	_, leds := monoLEDs(1)
	p := NewMonoPlayer(leds...)
	c := &counter{}
	_ = p.SetEffects(c)

	if err := p.Start(0, false); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("fps=0 err=%v", err)
	}
	if err := p.Start(DefaultFPS, false); err != nil {
		t.Fatal(err)
	}
	if !p.IsRunning() {
		t.Fatal("not running after Start")
	}
	deadline := time.Now().Add(time.Second)
	for {
		p.mu.Lock()
		n := len(c.ticks)
		p.mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks in 1s", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop(false)
	if p.IsRunning() {
		t.Fatal("still running after Stop")
	}
	p.mu.Lock()
	if c.ticks[0] != 10 {
		t.Fatalf("tick delta=%d want 10", c.ticks[0])
	}
	p.mu.Unlock()
}

func TestPlayer_NoFrameAfterStop(t *testing.T) {
	fakes, leds := monoLEDs(1)
	p := NewMonoPlayer(leds...)
	_ = p.SetEffects(MonoFunc(func() float64 { return 1 }))
	if err := p.Start(1000, false); err != nil {
		t.Fatal(err)
	}

	// Let the ticker fire while the player is held, then stop it.
	p.mu.Lock()
	time.Sleep(20 * time.Millisecond)
	p.stopLocked(true)
	p.mu.Unlock()

	p.mu.Lock()
	fakes[0].b = 0
	p.mu.Unlock()
	time.Sleep(20 * time.Millisecond)

	p.mu.Lock()
	defer p.mu.Unlock()
	if fakes[0].b != 0 {
		t.Fatalf("led written after Stop: %v", fakes[0].b)
	}
}

func TestPlayer_PairAdoptsPeriod(t *testing.T) {
	_, leds := monoLEDs(1)
	mp := NewMonoPlayer(leds...)
	rgb := &fakeRGB{}
	cp := NewColourPlayer(rgb)

	c := &counter{}
	_ = cp.SetEffects(Grey(c))
	mp.Pair(cp)

	if err := mp.Start(50, false); err != nil {
		t.Fatal(err)
	}
	mp.Stop(false)

	mp.Update()
	if len(c.ticks) != 1 || c.ticks[0] != 20 {
		t.Fatalf("paired ticks=%v want [20]", c.ticks)
	}
	if rgb.r != rgb.g || rgb.g != rgb.b {
		t.Fatalf("grey expected, got %d,%d,%d", rgb.r, rgb.g, rgb.b)
	}
	if cp.IsRunning() {
		t.Fatal("paired player must not run its own timer")
	}
}

type fakeStrip struct {
	px    [][3]int
	fail  error
	shows int
}

func (s *fakeStrip) Len() int                { return len(s.px) }
func (s *fakeStrip) SetPixel(i, r, g, b int) { s.px[i] = [3]int{r, g, b} }
func (s *fakeStrip) Show() error             { s.shows++; return s.fail }

func TestStripPlayer(t *testing.T) {
	s := &fakeStrip{px: make([][3]int, 8)}
	p := NewStripPlayer(s, 0)
	if n := len(p.Effects()); n != 8 {
		t.Fatalf("slots=%d want strip length 8", n)
	}
	_ = p.SetEffects(ColourFunc(func() (int, int, int) { return 1, 2, 3 }), Grey(MonoFunc(func() float64 { return 1 })))
	p.Update()
	if s.px[0] != [3]int{1, 2, 3} || s.px[1] != [3]int{255, 255, 255} || s.shows != 1 {
		t.Fatalf("pixels=%v shows=%d", s.px[:2], s.shows)
	}

	s.fail = errors.New("bus fault")
	_ = p.Start(DefaultFPS, false)
	p.Update()
	if p.IsRunning() || p.Err() == nil {
		t.Fatal("show error must stop the player")
	}
}

func TestCycling(t *testing.T) {
	c := Cycling{Speed: 1}
	c.Tick(250)
	if c.Offset() != 0.25 {
		t.Fatalf("offset=%v", c.Offset())
	}
	c.Tick(1000)
	if c.Offset() != 0.25 {
		t.Fatalf("offset after full turn=%v", c.Offset())
	}
	c.Speed = -1
	c.Tick(500)
	if c.Offset() != 0.75 {
		t.Fatalf("negative speed offset=%v", c.Offset())
	}
	c.Reset()
	if c.Offset() != 0 {
		t.Fatal("reset")
	}
}

func TestInterval(t *testing.T) {
	iv := Interval{Seconds: 0.1}
	fired := 0
	for i := 0; i < 25; i++ {
		if iv.Advance(10) {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("fired=%d want 2", fired)
	}
}
