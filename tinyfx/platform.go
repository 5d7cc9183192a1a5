package tinyfx

import (
	"tinygo.org/x/drivers"

	"tinyfx-go/picofx"
)

// DigitalIn is a configured input pin.
type DigitalIn interface {
	Get() bool
}

// DigitalOut is a configured output pin.
type DigitalOut interface {
	High()
	Low()
}

// Analog is a configured ADC channel returning 16-bit scaled samples.
type Analog interface {
	Get() uint16
}

// Platform hands out the peripherals the board is wired to. Pins are
// GPIO numbers from package board.
type Platform interface {
	PWM(pin int, freqHz uint32) (picofx.DutyChannel, error)
	Input(pin int, pullUp bool) (DigitalIn, error)
	Output(pin int) (DigitalOut, error)
	ADC(pin int) (Analog, error)
	I2C(sda, scl int, freqHz uint32) (drivers.I2C, error)
	Strip(pin, n int) (picofx.Strip, error)
}
