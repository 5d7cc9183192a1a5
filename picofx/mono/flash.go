package mono

import (
	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
	"tinyfx-go/x/mathx"
)

var errFlashes = &errcode.E{C: errcode.InvalidParams, Op: "mono.Flash", Msg: "flashes must be greater than zero"}

// Flash performs Flashes short flashes within the first Window of each cycle.
type Flash struct {
	picofx.Cycling
	flashes int
	Window  float64
	Phase   float64
	Duty    float64
}

func NewFlash(speed float64, flashes int, window, phase, duty float64) (*Flash, error) {
	if flashes <= 0 {
		return nil, errFlashes
	}
	return &Flash{Cycling: picofx.Cycling{Speed: speed}, flashes: flashes, Window: window, Phase: phase, Duty: duty}, nil
}

func (f *Flash) Flashes() int { return f.flashes }

func (f *Flash) SetFlashes(n int) error {
	if n <= 0 {
		return errFlashes
	}
	f.flashes = n
	return nil
}

func (f *Flash) Brightness() float64 {
	return flashAt(f.Offset()+f.Phase, f.flashes, f.Window, f.Duty)
}

func flashAt(turns float64, flashes int, window, duty float64) float64 {
	offset := mathx.Frac(turns)
	if offset < window {
		percent := mathx.Frac(offset * float64(flashes) / window)
		if percent < duty {
			return 1
		}
	}
	return 0
}

// FlashSequence spreads a flash across Length positions.
type FlashSequence struct {
	Flash
	Length float64
}

func NewFlashSequence(speed, length float64, flashes int, window, phase, duty float64) (*FlashSequence, error) {
	f, err := NewFlash(speed, flashes, window, phase, duty)
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		length = 1
	}
	return &FlashSequence{Flash: *f, Length: length}, nil
}

func (s *FlashSequence) At(pos int) picofx.Mono {
	return view{src: s, fn: func() float64 {
		return flashAt(s.Offset()+s.Phase+float64(pos)/s.Length, s.flashes, s.Window, s.Duty)
	}}
}
