// Package aht20 drives the AHT20 temperature/humidity sensor found on
// Qw/ST breakouts. A measurement is two-phase:
//
//	d.Trigger()           // start a conversion
//	err := d.Collect(&r)  // ErrNotReady while the sensor is busy
//
// Measure does both with bounded polling. Results are fixed point.
package aht20

import (
	"context"
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	fullScale = 1 << 20
)

var (
	ErrTimeout  = errors.New("aht20: timeout")
	ErrNotReady = errors.New("aht20: not ready")
)

// Config is optional; zero fields take defaults.
type Config struct {
	Address      uint16
	PollInterval time.Duration // between Collect attempts, default 15ms
	Timeout      time.Duration // Measure bound, default 250ms
}

// Device is an AHT20 on an already configured I2C bus.
type Device struct {
	bus  drivers.I2C
	cfg  Config
	buf  [7]byte
	last Reading
}

// Reading is one converted sample.
type Reading struct {
	RawHumidity uint32
	RawTemp     uint32
}

// DeciC is the temperature in tenths of a degree Celsius.
func (r Reading) DeciC() int16 {
	return int16(int64(r.RawTemp)*2000/fullScale - 500)
}

// RHx100 is relative humidity in hundredths of a percent.
func (r Reading) RHx100() uint16 {
	return uint16(int64(r.RawHumidity) * 10000 / fullScale)
}

func (r Reading) Celsius() float32  { return float32(r.RawTemp)*200/fullScale - 50 }
func (r Reading) Humidity() float32 { return float32(r.RawHumidity) * 100 / fullScale }

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	return &Device{bus: bus, cfg: cfg}
}

// Configure sends the calibration command unless the sensor already
// reports itself calibrated.
func (d *Device) Configure() error {
	st, err := d.Status()
	if err == nil && st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Reset issues a soft reset; allow ~20ms before the next command.
func (d *Device) Reset() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) Status() (byte, error) {
	var b [1]byte
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) Trigger() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads a finished conversion into r.
func (d *Device) Collect(r *Reading) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusCalibrated == 0 || data[0]&statusBusy != 0 {
		return ErrNotReady
	}
	d.last = Reading{
		RawHumidity: uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4,
		RawTemp:     uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5]),
	}
	if r != nil {
		*r = d.last
	}
	return nil
}

// Measure triggers and polls until a reading arrives, the timeout passes
// or ctx ends.
func (d *Device) Measure(ctx context.Context) (Reading, error) {
	var r Reading
	if err := d.Trigger(); err != nil {
		return r, err
	}
	deadline := time.Now().Add(d.cfg.Timeout)
	for {
		err := d.Collect(&r)
		if err != ErrNotReady {
			return r, err
		}
		if time.Now().After(deadline) {
			return r, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-time.After(d.cfg.PollInterval):
		}
	}
}

// Last returns the most recent successful reading.
func (d *Device) Last() Reading { return d.last }
