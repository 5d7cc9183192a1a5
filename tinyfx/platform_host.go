//go:build !rp2040

package tinyfx

import (
	"sync"

	"tinygo.org/x/drivers"

	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
)

// Sim is an in-memory Platform for hosts and tests. Inputs read high
// (released) until set.
type Sim struct {
	mu     sync.Mutex
	duty   map[int]uint16
	inputs map[int]bool
	levels map[int]bool
	adc    map[int]uint16
	bus    drivers.I2C
	strip  *SimStrip
}

// NewSim returns a platform whose I2C bus is bus (nil means I2C fails).
func NewSim(bus drivers.I2C) *Sim {
	return &Sim{
		duty:   make(map[int]uint16),
		inputs: make(map[int]bool),
		levels: make(map[int]bool),
		adc:    make(map[int]uint16),
		bus:    bus,
	}
}

// NewPlatform returns the platform of the build target: a Sim without
// I2C on hosts.
func NewPlatform() Platform { return NewSim(nil) }

type simPWM struct {
	s   *Sim
	pin int
}

func (p simPWM) SetDuty(d uint16) {
	p.s.mu.Lock()
	p.s.duty[p.pin] = d
	p.s.mu.Unlock()
}

type simPin struct {
	s   *Sim
	pin int
}

func (p simPin) Get() bool {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	v, ok := p.s.inputs[p.pin]
	return !ok || v
}

func (p simPin) High() { p.s.setLevel(p.pin, true) }
func (p simPin) Low()  { p.s.setLevel(p.pin, false) }

func (s *Sim) setLevel(pin int, v bool) {
	s.mu.Lock()
	s.levels[pin] = v
	s.mu.Unlock()
}

type simADC struct {
	s   *Sim
	pin int
}

func (a simADC) Get() uint16 {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return a.s.adc[a.pin]
}

func (s *Sim) PWM(pin int, freqHz uint32) (picofx.DutyChannel, error) {
	return simPWM{s, pin}, nil
}

func (s *Sim) Input(pin int, pullUp bool) (DigitalIn, error) { return simPin{s, pin}, nil }
func (s *Sim) Output(pin int) (DigitalOut, error)            { return simPin{s, pin}, nil }
func (s *Sim) ADC(pin int) (Analog, error)                   { return simADC{s, pin}, nil }

func (s *Sim) I2C(sda, scl int, freqHz uint32) (drivers.I2C, error) {
	if s.bus == nil {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "tinyfx.Sim.I2C"}
	}
	return s.bus, nil
}

func (s *Sim) Strip(pin, n int) (picofx.Strip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strip = &SimStrip{px: make([][3]int, n)}
	return s.strip, nil
}

// Duty returns the last duty written to a PWM pin.
func (s *Sim) Duty(pin int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty[pin]
}

// Level returns the state of an output pin.
func (s *Sim) Level(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// SetInput drives an input pin.
func (s *Sim) SetInput(pin int, v bool) {
	s.mu.Lock()
	s.inputs[pin] = v
	s.mu.Unlock()
}

// SetADC sets the raw 16-bit reading of an ADC pin.
func (s *Sim) SetADC(pin int, v uint16) {
	s.mu.Lock()
	s.adc[pin] = v
	s.mu.Unlock()
}

// SimStrip records pixels and counts Show calls.
type SimStrip struct {
	mu    sync.Mutex
	px    [][3]int
	shows int
}

func (s *SimStrip) Len() int { return len(s.px) }

func (s *SimStrip) SetPixel(i, r, g, b int) {
	s.mu.Lock()
	if i >= 0 && i < len(s.px) {
		s.px[i] = [3]int{r, g, b}
	}
	s.mu.Unlock()
}

func (s *SimStrip) Show() error {
	s.mu.Lock()
	s.shows++
	s.mu.Unlock()
	return nil
}

func (s *SimStrip) Pixel(i int) [3]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.px[i]
}

func (s *SimStrip) Shows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}
