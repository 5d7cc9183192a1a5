// Package tinyfx is the board library for the Pimoroni TinyFX: six
// gamma-corrected mono outputs, an RGB output, the user switch, voltage
// and sensor ADCs, the amplifier enable and the Qw/ST I2C bus.
package tinyfx

import (
	"context"

	"tinygo.org/x/drivers"

	"tinyfx-go/board"
	"tinyfx-go/drivers/aht20"
	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
)

// Options selects the optional peripherals. The zero value is a bare
// board with the Qw/ST pins left alone.
type Options struct {
	InitI2C   bool
	EnvSensor bool // AHT20 on Qw/ST, needs InitI2C
	PWMFreqHz uint32
	StripLEDs int // WS2812 chain on the Qw/ST SDA pin, only without InitI2C
}

// DefaultOptions mirrors the board library defaults.
func DefaultOptions() Options {
	return Options{InitI2C: true, PWMFreqHz: board.PWMFreqHz}
}

type Board struct {
	outputs [board.NumOutputs]*picofx.PWMLED
	rgb     *picofx.RGBLED

	sw     DigitalIn
	vsense Analog
	sensor Analog
	ampEn  DigitalOut

	i2c   drivers.I2C
	env   *aht20.Device
	strip picofx.Strip
}

// New claims every board peripheral from p.
func New(p Platform, opts Options) (*Board, error) {
	if opts.PWMFreqHz == 0 {
		opts.PWMFreqHz = board.PWMFreqHz
	}
	b := &Board{}
	for i, pin := range board.OutPins {
		ch, err := p.PWM(pin, opts.PWMFreqHz)
		if err != nil {
			return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
		}
		b.outputs[i] = picofx.NewPWMLED(ch, board.OutputGamma, false)
	}
	var rgb [3]picofx.DutyChannel
	for i, pin := range board.RGBPins {
		ch, err := p.PWM(pin, opts.PWMFreqHz)
		if err != nil {
			return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
		}
		rgb[i] = ch
	}
	b.rgb = picofx.NewRGBLED(rgb[0], rgb[1], rgb[2], board.RGBGamma, false)

	var err error
	if b.sw, err = p.Input(board.UserSwPin, true); err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
	}
	if b.vsense, err = p.ADC(board.VSensePin); err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
	}
	if b.sensor, err = p.ADC(board.SensorPin); err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
	}
	if b.ampEn, err = p.Output(board.AmpEnPin); err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
	}
	b.ampEn.Low()

	switch {
	case opts.InitI2C:
		if b.i2c, err = p.I2C(board.I2CSDAPin, board.I2CSCLPin, board.I2CFreqHz); err != nil {
			return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
		}
		if opts.EnvSensor {
			b.env = aht20.New(b.i2c, aht20.Config{})
			if err := b.env.Configure(); err != nil {
				println("[tinyfx] aht20 not responding:", err.Error())
				b.env = nil
			}
		}
	case opts.StripLEDs > 0:
		if b.strip, err = p.Strip(board.I2CSDAPin, opts.StripLEDs); err != nil {
			return nil, errcode.Wrap(errcode.Of(err), "tinyfx.New", err)
		}
	}
	return b, nil
}

// Output returns mono output n, counting from 1 as printed on the board.
func (b *Board) Output(n int) (*picofx.PWMLED, error) {
	if n < 1 || n > board.NumOutputs {
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "tinyfx.Output"}
	}
	return b.outputs[n-1], nil
}

func (b *Board) One() *picofx.PWMLED   { return b.outputs[0] }
func (b *Board) Two() *picofx.PWMLED   { return b.outputs[1] }
func (b *Board) Three() *picofx.PWMLED { return b.outputs[2] }
func (b *Board) Four() *picofx.PWMLED  { return b.outputs[3] }
func (b *Board) Five() *picofx.PWMLED  { return b.outputs[4] }
func (b *Board) Six() *picofx.PWMLED   { return b.outputs[5] }

// Outputs returns the mono outputs in board order.
func (b *Board) Outputs() []*picofx.PWMLED { return b.outputs[:] }

func (b *Board) RGB() *picofx.RGBLED { return b.rgb }

// I2C is nil unless the board was created with InitI2C.
func (b *Board) I2C() drivers.I2C { return b.i2c }

// Strip is nil unless StripLEDs was set.
func (b *Board) Strip() picofx.Strip { return b.strip }

// Amp is the amplifier enable line.
func (b *Board) Amp() DigitalOut { return b.ampEn }

// BootPressed reports the user switch; it pulls the pin low.
func (b *Board) BootPressed() bool { return !b.sw.Get() }

func mean(a Analog, samples int) float64 {
	if samples < 1 {
		samples = 1
	}
	var sum uint64
	for i := 0; i < samples; i++ {
		sum += uint64(a.Get())
	}
	return float64(sum) / float64(samples)
}

// ReadVoltage returns the supply voltage averaged over samples reads.
func (b *Board) ReadVoltage(samples int) float64 {
	v := mean(b.vsense, samples)
	return v*board.ADCRefVolt*board.VSenseGain/65535 + board.VSenseDiodeCorrection
}

// ReadSensor returns the voltage on the sensor connector.
func (b *Board) ReadSensor(samples int) float64 {
	return mean(b.sensor, samples) * board.ADCRefVolt / 65535
}

// HasEnv reports whether an AHT20 answered at startup.
func (b *Board) HasEnv() bool { return b.env != nil }

// Env is the AHT20 driver, nil when absent.
func (b *Board) Env() *aht20.Device { return b.env }

// ReadEnv measures temperature and humidity on the Qw/ST sensor.
func (b *Board) ReadEnv(ctx context.Context) (aht20.Reading, error) {
	if b.env == nil {
		return aht20.Reading{}, &errcode.E{C: errcode.Unsupported, Op: "tinyfx.ReadEnv", Msg: "no env sensor"}
	}
	return b.env.Measure(ctx)
}

// Clear turns every output off, the RGB output and any strip black.
func (b *Board) Clear() {
	for _, out := range b.outputs {
		out.Off()
	}
	b.rgb.SetRGB(0, 0, 0)
	if b.strip != nil {
		for i := 0; i < b.strip.Len(); i++ {
			b.strip.SetPixel(i, 0, 0, 0)
		}
		b.strip.Show()
	}
}

// Shutdown clears the outputs and disables the amplifier.
func (b *Board) Shutdown() {
	b.Clear()
	b.ampEn.Low()
}
