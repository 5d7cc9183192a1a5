//go:build rp2040

package audio

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"tinyfx-go/errcode"
)

// I2SOutput drives a PIO I2S transmitter. The word clock must be on the
// pin after the bit clock.
type I2SOutput struct {
	i2s    *piolib.I2S
	cfg    StreamConfig
	mono   []uint16
	stereo []uint32
}

// NewI2SOutput claims a state machine on PIO1 (PIO0 is left for the
// radio on wireless builds).
func NewI2SOutput(data, bclk machine.Pin) (*I2SOutput, error) {
	sm, err := pio.PIO1.ClaimStateMachine()
	if err != nil {
		return nil, errcode.Wrap(errcode.Busy, "audio.NewI2SOutput", err)
	}
	i2s, err := piolib.NewI2S(sm, data, bclk)
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "audio.NewI2SOutput", err)
	}
	return &I2SOutput{
		i2s:    i2s,
		mono:   make([]uint16, WAVBufferLength/2),
		stereo: make([]uint32, WAVBufferLength/4),
	}, nil
}

func (o *I2SOutput) Configure(cfg StreamConfig) error {
	if cfg.BitsPerSample != 16 {
		return &errcode.E{C: errcode.Unsupported, Op: "audio.I2SOutput", Msg: "16-bit samples only"}
	}
	if err := o.i2s.SetSampleFrequency(cfg.SampleRate); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "audio.I2SOutput", err)
	}
	o.cfg = cfg
	o.i2s.Enable(true)
	return nil
}

// Write converts little-endian PCM bytes to FIFO words in chunks.
func (o *I2SOutput) Write(p []byte) (int, error) {
	total := 0
	if o.cfg.Format == Stereo {
		for len(p) >= 4 {
			n := min(len(p)/4, len(o.stereo))
			for i := 0; i < n; i++ {
				l := uint32(p[4*i]) | uint32(p[4*i+1])<<8
				r := uint32(p[4*i+2]) | uint32(p[4*i+3])<<8
				o.stereo[i] = l<<16 | r
			}
			if _, err := o.i2s.WriteStereo(o.stereo[:n]); err != nil {
				return total, err
			}
			p = p[4*n:]
			total += 4 * n
		}
		return total, nil
	}
	for len(p) >= 2 {
		n := min(len(p)/2, len(o.mono))
		for i := 0; i < n; i++ {
			o.mono[i] = uint16(p[2*i]) | uint16(p[2*i+1])<<8
		}
		if _, err := o.i2s.WriteMono(o.mono[:n]); err != nil {
			return total, err
		}
		p = p[2*n:]
		total += 2 * n
	}
	return total, nil
}

func (o *I2SOutput) Stop() error {
	o.i2s.Enable(false)
	return nil
}
