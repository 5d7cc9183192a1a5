package hal

import (
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/types"
	"tinyfx-go/x/mathx"
	"tinyfx-go/x/payload"
	"tinyfx-go/x/ramp"
)

// deferred marks a control whose reply arrives with a sample result.
type deferred struct{}

func (s *service) handleControl(m *bus.Message) {
	c, ok := capFromTopic(m.Topic)
	verb, _ := m.Topic.At(6).(string)
	if !ok || verb == "" {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	if _, ok := s.caps[c]; !ok {
		s.replyErr(m, errcode.UnknownCapability)
		return
	}

	var (
		reply any
		err   error
	)
	switch c.kind {
	case types.KindPWM:
		reply, err = s.ctrlOutput(c, verb, m.Payload)
	case types.KindRGB:
		reply, err = s.ctrlRGB(verb, m.Payload)
	case types.KindButton:
		if verb != "read" {
			err = errcode.Unsupported
			break
		}
		reply = types.ButtonValue{Pressed: s.board.BootPressed()}
	case types.KindVoltage, types.KindTemperature, types.KindHumidity:
		if verb != "read" {
			err = errcode.Unsupported
			break
		}
		reply, err = s.ctrlRead(c, m)
	case types.KindBoard:
		reply, err = s.ctrlBoard(verb)
	default:
		err = errcode.Unsupported
	}

	switch {
	case err != nil:
		s.replyErr(m, errcode.Of(err))
	case reply == nil:
		s.replyOK(m)
	default:
		if _, ok := reply.(deferred); !ok {
			s.replyValue(m, reply)
		}
	}
}

func (s *service) ctrlOutput(c capKey, verb string, p any) (any, error) {
	led := s.board.Outputs()[s.outputs[c]]
	switch verb {
	case "set":
		var req types.OutputSet
		if err := payload.Decode(p, &req); err != nil {
			return nil, err
		}
		s.cancelFade(c)
		led.SetBrightness(float64(mathx.Unit(req.Brightness)))
	case "on":
		s.cancelFade(c)
		led.On()
	case "off":
		s.cancelFade(c)
		led.Off()
	case "toggle":
		s.cancelFade(c)
		led.Toggle()
	case "fade":
		var req types.OutputFade
		if err := payload.Decode(p, &req); err != nil {
			return nil, err
		}
		s.startFade(c, req)
		return nil, nil
	default:
		return nil, errcode.Unsupported
	}
	return s.publishOutput(c), nil
}

func (s *service) publishOutput(c capKey) types.OutputValue {
	v := types.OutputValue{Brightness: float32(s.board.Outputs()[s.outputs[c]].Brightness())}
	s.pubRet(capValue(c), v)
	return v
}

// startFade ramps an output on its own goroutine; any later control on
// the output cancels it.
func (s *service) startFade(c capKey, req types.OutputFade) {
	s.cancelFade(c)
	stop := make(chan struct{})
	s.fades[c] = stop
	led := s.board.Outputs()[s.outputs[c]]
	tick := func(d time.Duration) bool {
		select {
		case <-stop:
			return false
		case <-time.After(d):
			return true
		}
	}
	go func() {
		ramp.StartLinear(float32(led.Brightness()), req.To, req.DurationMs, req.Steps, tick,
			func(level float32) { led.SetBrightness(float64(level)) })
		select {
		case <-stop:
		default:
			s.publishOutput(c)
		}
	}()
}

func (s *service) cancelFade(c capKey) {
	if stop, ok := s.fades[c]; ok {
		close(stop)
		delete(s.fades, c)
	}
}

func (s *service) cancelFades() {
	for c := range s.fades {
		s.cancelFade(c)
	}
}

func (s *service) ctrlRGB(verb string, p any) (any, error) {
	switch verb {
	case "set_rgb":
		var req types.RGBSet
		if err := payload.Decode(p, &req); err != nil {
			return nil, err
		}
		s.board.RGB().SetRGB(req.R, req.G, req.B)
	case "set_hsv":
		var req types.HSVSet
		if err := payload.Decode(p, &req); err != nil {
			return nil, err
		}
		s.board.RGB().SetHSV(float64(req.H), float64(req.S), float64(req.V))
	case "off":
		s.board.RGB().SetRGB(0, 0, 0)
	default:
		return nil, errcode.Unsupported
	}
	return s.publishRGB(), nil
}

func (s *service) publishRGB() types.RGBValue {
	r, g, b := s.board.RGB().RGB()
	v := types.RGBValue{R: uint8(r), G: uint8(g), B: uint8(b)}
	s.pubRet(capValue(capRGB), v)
	return v
}

func (s *service) ctrlRead(c capKey, m *bus.Message) (any, error) {
	id := s.sourceOf(c)
	src, ok := s.sources[id]
	if !ok {
		return nil, errcode.Unsupported
	}
	var req types.ReadSamples
	if err := payload.Decode(m.Payload, &req); err != nil {
		return nil, err
	}
	if a, ok := src.(*adcSource); ok && req.Samples > 0 {
		src = &adcSource{cap: a.cap, read: a.read, samples: req.Samples}
	}
	if !s.sampler.Submit(sampleReq{id: id, src: src, prio: true, msg: m}) {
		return nil, errcode.Busy
	}
	return deferred{}, nil
}

func (s *service) ctrlBoard(verb string) (any, error) {
	switch verb {
	case "info":
		return boardInfo(), nil
	case "clear":
		s.clear()
		return nil, nil
	}
	return nil, errcode.Unsupported
}

// clear stops fades and turns everything off.
func (s *service) clear() {
	s.cancelFades()
	s.board.Clear()
	for c := range s.outputs {
		s.publishOutput(c)
	}
	s.publishRGB()
}
