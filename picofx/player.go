package picofx

import (
	"sync"
	"time"

	"tinyfx-go/errcode"
	"tinyfx-go/x/timex"
)

const (
	DefaultFPS       = 100
	DefaultStripLEDs = 60
)

// Player is the common control surface of the effect players.
type Player interface {
	Start(fps int, force bool) error
	Stop(resetFX bool)
	IsRunning() bool
	Pair(other Player)
	Update()
	Err() error

	frame(period time.Duration)
	setPeriod(period time.Duration)
}

// BrightnessSetter is an output a MonoPlayer can drive.
type BrightnessSetter interface {
	SetBrightness(b float64)
}

// RGBSetter is an output a ColourPlayer can drive.
type RGBSetter interface {
	SetRGB(r, g, b int)
}

// Strip is an addressable LED chain driven by a StripPlayer.
type Strip interface {
	Len() int
	SetPixel(i, r, g, b int)
	Show() error
}

// core holds everything shared by the three players. E is the effect
// interface (Mono or Colour).
type core[E comparable] struct {
	mu         sync.Mutex
	effects    []E
	updatables []Updatable
	period     time.Duration
	paired     Player
	running    bool
	stop       chan struct{}
	err        error
	show       func(effects []E) error
}

func (c *core[E]) init(n int, show func([]E) error) {
	c.effects = make([]E, n)
	c.period = time.Second
	c.show = show
}

// Start begins periodic updates at fps. A running player is left alone
// unless force is set.
func (c *core[E]) Start(fps int, force bool) error {
	if fps <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "picofx.Start", Msg: "fps must be positive"}
	}
	c.mu.Lock()
	if c.running && !force {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked(false)
	c.period = timex.FramePeriod(fps)
	if c.period == 0 {
		c.period = time.Millisecond
	}
	if c.paired != nil {
		c.paired.setPeriod(c.period)
	}
	c.err = nil
	c.running = true
	c.stop = make(chan struct{})
	go c.loop(c.stop, c.period)
	c.mu.Unlock()
	return nil
}

// Stop halts updates. With resetFX every updatable effect is reset.
func (c *core[E]) Stop(resetFX bool) {
	c.mu.Lock()
	c.stopLocked(resetFX)
	c.mu.Unlock()
}

func (c *core[E]) stopLocked(resetFX bool) {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.running = false
	if resetFX {
		for _, u := range c.updatables {
			u.Reset()
		}
	}
}

func (c *core[E]) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Err is the error that stopped the player, if any.
func (c *core[E]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pair makes other follow this player: it adopts our frame period on
// Start and is updated after each of our frames.
func (c *core[E]) Pair(other Player) {
	c.mu.Lock()
	c.paired = other
	c.mu.Unlock()
}

func (c *core[E]) setPeriod(p time.Duration) {
	c.mu.Lock()
	c.period = p
	c.mu.Unlock()
}

func (c *core[E]) loop(stop <-chan struct{}, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if !c.tick(stop) {
				return
			}
		}
	}
}

// tick runs a timer frame unless the loop owning stop has been stopped or
// replaced since the timer fired.
func (c *core[E]) tick(stop <-chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop {
		c.mu.Unlock()
		return false
	}
	period := c.period
	paired := c.frameLocked(period)
	c.mu.Unlock()

	if paired != nil {
		paired.frame(period)
	}
	return true
}

// Update advances one frame synchronously: tick, show, then the paired
// player. It is what the timer calls; tests and single-shot callers may
// call it directly.
func (c *core[E]) Update() {
	c.mu.Lock()
	period := c.period
	paired := c.frameLocked(period)
	c.mu.Unlock()

	if paired != nil {
		paired.frame(period)
	}
}

func (c *core[E]) frame(period time.Duration) {
	c.mu.Lock()
	paired := c.frameLocked(period)
	c.mu.Unlock()

	if paired != nil {
		paired.frame(period)
	}
}

// frameLocked ticks and shows one frame and returns the player to update
// next, if any.
func (c *core[E]) frameLocked(period time.Duration) Player {
	ms := int(period / time.Millisecond)
	for _, u := range c.updatables {
		u.Tick(ms)
	}
	if err := c.show(c.effects); err != nil {
		c.err = err
		c.stopLocked(false)
		return nil
	}
	return c.paired
}

// set replaces the effect list. Slots beyond the list are cleared; more
// effects than outputs is an error and leaves the player unchanged.
func (c *core[E]) set(effects []E) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(effects) > len(c.effects) {
		return &errcode.E{C: errcode.TooManyEffects, Op: "picofx.SetEffects"}
	}
	var zero E
	seen := make(map[Updatable]struct{})
	c.updatables = c.updatables[:0]
	for i := range c.effects {
		c.effects[i] = zero
		if i >= len(effects) || effects[i] == zero {
			continue
		}
		c.effects[i] = effects[i]
		u := updatableOf(effects[i])
		if u == nil {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		c.updatables = append(c.updatables, u)
	}
	return nil
}

func (c *core[E]) fill(e E) error {
	c.mu.Lock()
	list := make([]E, len(c.effects))
	c.mu.Unlock()
	for i := range list {
		list[i] = e
	}
	return c.set(list)
}

// Effects returns a copy of the current slots; empty slots are nil.
func (c *core[E]) Effects() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]E(nil), c.effects...)
}

// -----------------------------------------------------------------------------
// Players
// -----------------------------------------------------------------------------

// MonoPlayer plays Mono effects on brightness outputs.
type MonoPlayer struct {
	core[Mono]
	leds []BrightnessSetter
}

func NewMonoPlayer(leds ...BrightnessSetter) *MonoPlayer {
	p := &MonoPlayer{leds: leds}
	p.init(len(leds), p.show)
	return p
}

func (p *MonoPlayer) show(effects []Mono) error {
	for i, e := range effects {
		if e != nil {
			p.leds[i].SetBrightness(e.Brightness())
		}
	}
	return nil
}

func (p *MonoPlayer) SetEffects(effects ...Mono) error { return p.set(effects) }

// SetAll plays e on every output.
func (p *MonoPlayer) SetAll(e Mono) error { return p.fill(e) }

// ColourPlayer plays Colour effects on RGB outputs.
type ColourPlayer struct {
	core[Colour]
	leds []RGBSetter
}

func NewColourPlayer(leds ...RGBSetter) *ColourPlayer {
	p := &ColourPlayer{leds: leds}
	p.init(len(leds), p.show)
	return p
}

func (p *ColourPlayer) show(effects []Colour) error {
	for i, e := range effects {
		if e != nil {
			p.leds[i].SetRGB(e.RGB())
		}
	}
	return nil
}

func (p *ColourPlayer) SetEffects(effects ...Colour) error { return p.set(effects) }

func (p *ColourPlayer) SetAll(e Colour) error { return p.fill(e) }

// StripPlayer plays Colour effects on the pixels of a Strip. Use Grey to
// place a Mono effect on a pixel.
type StripPlayer struct {
	core[Colour]
	strip Strip
}

// NewStripPlayer drives the first n pixels of strip; n<=0 uses
// DefaultStripLEDs, capped at the strip length.
func NewStripPlayer(strip Strip, n int) *StripPlayer {
	if n <= 0 {
		n = DefaultStripLEDs
	}
	if l := strip.Len(); n > l {
		n = l
	}
	p := &StripPlayer{strip: strip}
	p.init(n, p.show)
	return p
}

func (p *StripPlayer) show(effects []Colour) error {
	for i, e := range effects {
		if e != nil {
			r, g, b := e.RGB()
			p.strip.SetPixel(i, r, g, b)
		}
	}
	return p.strip.Show()
}

func (p *StripPlayer) SetEffects(effects ...Colour) error { return p.set(effects) }

func (p *StripPlayer) SetAll(e Colour) error { return p.fill(e) }
