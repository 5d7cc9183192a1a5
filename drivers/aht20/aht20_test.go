package aht20

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBus struct {
	writes [][]byte
	status byte
	frames [][]byte // served in order to bare reads
	failTx error
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if f.failTx != nil {
		return f.failTx
	}
	if len(w) > 0 {
		f.writes = append(f.writes, append([]byte(nil), w...))
	}
	switch {
	case len(w) == 1 && w[0] == cmdStatus && len(r) == 1:
		r[0] = f.status
	case len(w) == 0 && len(r) > 0:
		if len(f.frames) == 0 {
			r[0] = statusBusy | statusCalibrated
			return nil
		}
		copy(r, f.frames[0])
		f.frames = f.frames[1:]
	}
	return nil
}

// frame encodes raw humidity and temperature as the sensor does.
func frame(st byte, h, t uint32) []byte {
	return []byte{
		st,
		byte(h >> 12), byte(h >> 4), byte(h<<4) | byte(t>>16&0x0F),
		byte(t >> 8), byte(t), 0,
	}
}

func TestConfigure_SkipsWhenCalibrated(t *testing.T) {
	bus := &fakeBus{status: statusCalibrated}
	d := New(bus, Config{})
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	for _, w := range bus.writes {
		if w[0] == cmdInitialize {
			t.Fatal("initialise sent to calibrated sensor")
		}
	}

	bus = &fakeBus{}
	d = New(bus, Config{})
	d.Configure()
	if last := bus.writes[len(bus.writes)-1]; last[0] != cmdInitialize {
		t.Fatalf("expected initialise, got %v", bus.writes)
	}
}

func TestMeasure_PollsUntilReady(t *testing.T) {
	// 50% RH and 25 °C: raw t = (25+50)/200 * 2^20.
	h, tr := uint32(fullScale/2), uint32(fullScale*75/200)
	bus := &fakeBus{frames: [][]byte{
		frame(statusBusy|statusCalibrated, 0, 0),
		frame(statusCalibrated, h, tr),
	}}
	d := New(bus, Config{PollInterval: time.Millisecond})

	r, err := d.Measure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.RHx100() != 5000 {
		t.Fatalf("RHx100 = %d", r.RHx100())
	}
	if r.DeciC() != 250 {
		t.Fatalf("DeciC = %d", r.DeciC())
	}
	if d.Last() != r {
		t.Fatal("Last not updated")
	}
}

func TestMeasure_Timeout(t *testing.T) {
	d := New(&fakeBus{}, Config{PollInterval: time.Millisecond, Timeout: 5 * time.Millisecond})
	if _, err := d.Measure(context.Background()); err != ErrTimeout {
		t.Fatalf("err = %v", err)
	}
}

func TestMeasure_BusError(t *testing.T) {
	boom := errors.New("nack")
	d := New(&fakeBus{failTx: boom}, Config{})
	if _, err := d.Measure(context.Background()); err != boom {
		t.Fatalf("err = %v", err)
	}
}
