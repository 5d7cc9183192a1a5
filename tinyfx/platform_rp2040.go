//go:build rp2040

package tinyfx

import (
	"machine"
	"sync"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
	"tinygo.org/x/drivers"

	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
	"tinyfx-go/x/timex"
)

// Machine is the Platform backed by the RP2040 peripherals.
type Machine struct {
	mu     sync.Mutex
	slices map[uint8]uint32 // configured slice -> frequency
	adc    bool
}

func NewMachine() *Machine { return &Machine{slices: make(map[uint8]uint32)} }

// NewPlatform returns the platform of the build target.
func NewPlatform() Platform { return NewMachine() }

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type pwmChannel struct {
	ctrl pwmCtrl
	ch   uint8
	top  uint32
}

// SetDuty scales a 16-bit duty to the slice's counter top.
func (p *pwmChannel) SetDuty(d uint16) {
	p.ctrl.Set(p.ch, uint32(uint64(d)*uint64(p.top)/picofx.MaxDuty))
}

// PWM configures pin's slice at freqHz. Both channels of a slice share
// the frequency; a second pin asking for another one is a conflict.
func (m *Machine) PWM(pin int, freqHz uint32) (picofx.DutyChannel, error) {
	slice, err := machine.PWMPeripheral(machine.Pin(pin))
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownPin, "tinyfx.PWM", err)
	}
	ctrl := pwmGroupBySlice(slice)

	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.slices[slice]; ok {
		if f != freqHz {
			return nil, &errcode.E{C: errcode.Conflict, Op: "tinyfx.PWM", Msg: "slice frequency"}
		}
	} else {
		if err := ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(freqHz)}); err != nil {
			return nil, errcode.Wrap(errcode.Error, "tinyfx.PWM", err)
		}
		m.slices[slice] = freqHz
	}
	ch, err := ctrl.Channel(machine.Pin(pin))
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "tinyfx.PWM", err)
	}
	p := &pwmChannel{ctrl: ctrl, ch: ch, top: mathx.Max(ctrl.Top(), 1)}
	p.SetDuty(0)
	return p, nil
}

// pin satisfies DigitalIn and DigitalOut through machine.Pin's methods.
type pin struct{ machine.Pin }

func (m *Machine) Input(n int, pullUp bool) (DigitalIn, error) {
	mode := machine.PinInput
	if pullUp {
		mode = machine.PinInputPullup
	}
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: mode})
	return pin{p}, nil
}

func (m *Machine) Output(n int) (DigitalOut, error) {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return pin{p}, nil
}

func (m *Machine) ADC(n int) (Analog, error) {
	m.mu.Lock()
	if !m.adc {
		machine.InitADC()
		m.adc = true
	}
	m.mu.Unlock()
	a := machine.ADC{Pin: machine.Pin(n)}
	a.Configure(machine.ADCConfig{})
	return a, nil
}

// I2C configures I2C0, which owns GP16/GP17 on the Qw/ST connector.
func (m *Machine) I2C(sda, scl int, freqHz uint32) (drivers.I2C, error) {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
		Frequency: freqHz,
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "tinyfx.I2C", err)
	}
	return machine.I2C0, nil
}

// Strip drives a WS2812 chain from a PIO1 state machine.
func (m *Machine) Strip(n, leds int) (picofx.Strip, error) {
	sm, err := pio.PIO1.ClaimStateMachine()
	if err != nil {
		return nil, errcode.Wrap(errcode.Busy, "tinyfx.Strip", err)
	}
	ws, err := piolib.NewWS2812B(sm, machine.Pin(n))
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "tinyfx.Strip", err)
	}
	return &ws2812{ws: ws, px: make([]uint32, leds)}, nil
}

type ws2812 struct {
	ws *piolib.WS2812B
	px []uint32
}

func (s *ws2812) Len() int { return len(s.px) }

// SetPixel stores GRB in the top 24 bits, the order the PIO program shifts out.
func (s *ws2812) SetPixel(i, r, g, b int) {
	if i < 0 || i >= len(s.px) {
		return
	}
	s.px[i] = uint32(uint8(g))<<24 | uint32(uint8(r))<<16 | uint32(uint8(b))<<8
}

func (s *ws2812) Show() error { return s.ws.WriteRaw(s.px) }
