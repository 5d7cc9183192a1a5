// Package hal exposes the TinyFX board on the bus. Every peripheral is a
// capability under hal/cap/<domain>/<kind>/<name> with retained info,
// status and value topics and a control/<verb> request topic.
package hal

import (
	"context"
	"time"

	"tinyfx-go/board"
	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/tinyfx"
	"tinyfx-go/types"
	"tinyfx-go/x/payload"
	"tinyfx-go/x/timex"
)

const (
	defaultButtonPollMs = 20
	minPollMs           = 50
)

// OutputNames are the capability names of the mono outputs, in board order.
var OutputNames = [board.NumOutputs]string{"one", "two", "three", "four", "five", "six"}

type capKey struct {
	domain string
	kind   types.Kind
	name   string
}

var (
	capRGB         = capKey{domainIO, types.KindRGB, "rgb"}
	capButton      = capKey{domainIO, types.KindButton, "boot"}
	capVSense      = capKey{domainPower, types.KindVoltage, "vsense"}
	capSensor      = capKey{domainIO, types.KindVoltage, "sensor"}
	capTemperature = capKey{domainEnv, types.KindTemperature, "qwst"}
	capHumidity    = capKey{domainEnv, types.KindHumidity, "qwst"}
	capBoard       = capKey{domainSystem, types.KindBoard, "tinyfx"}
)

func outputCap(i int) capKey { return capKey{domainIO, types.KindPWM, OutputNames[i]} }

// poll is a periodically sampled source.
type poll struct {
	src    Source
	period time.Duration
	next   time.Time
}

type service struct {
	conn  *bus.Connection
	board *tinyfx.Board

	cfg     types.HALConfig
	caps    map[capKey]any // capability -> info
	outputs map[capKey]int // pwm capability -> output index
	fades   map[capKey]chan struct{}

	sampler *sampler
	results chan sampleResult
	sources map[string]Source
	polls   map[string]*poll

	pressed bool
}

// Run serves the board until ctx ends.
func Run(ctx context.Context, conn *bus.Connection, b *tinyfx.Board) {
	results := make(chan sampleResult, 8)
	s := &service{
		conn:    conn,
		board:   b,
		caps:    map[capKey]any{},
		outputs: map[capKey]int{},
		fades:   map[capKey]chan struct{}{},
		sampler: newSampler(samplerConfig{}, results),
		results: results,
		sources: map[string]Source{},
		polls:   map[string]*poll{},
	}
	s.sampler.Start(ctx)
	s.loop(ctx)
}

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigHAL())
	ctrlSub := s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.register()
	s.publishState("idle", "awaiting_config")

	button := time.NewTicker(defaultButtonPollMs * time.Millisecond)
	defer button.Stop()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if next := s.nextPoll(); next.IsZero() {
			timex.ResetTimer(timer, time.Hour)
		} else {
			timex.ResetTimer(timer, time.Until(next))
		}

		select {
		case <-ctx.Done():
			s.cancelFades()
			s.publishState("stopped", "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.HALConfig
			if err := payload.Decode(msg.Payload, &cfg); err != nil {
				println("[hal] bad config:", err.Error())
				s.publishState("error", "config_decode_failed")
				continue
			}
			s.applyConfig(cfg)
			button.Reset(time.Duration(s.cfg.ButtonPollMs) * time.Millisecond)
			s.publishState("ready", "configured")

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-button.C:
			s.pollButton()

		case now := <-timer.C:
			for id, p := range s.polls {
				if !now.Before(p.next) {
					s.sampler.Submit(sampleReq{id: id, src: p.src})
					p.next = now.Add(p.period)
				}
			}

		case r := <-s.results:
			s.handleResult(r)
		}
	}
}

// register publishes retained info and status for every capability.
func (s *service) register() {
	for i, pin := range board.OutPins {
		c := outputCap(i)
		s.outputs[c] = i
		s.caps[c] = types.OutputInfo{Index: i + 1, Pin: pin, Gamma: board.OutputGamma, FreqHz: board.PWMFreqHz}
	}
	s.caps[capRGB] = types.RGBInfo{Pins: board.RGBPins, Gamma: board.RGBGamma}
	s.caps[capButton] = types.ButtonInfo{Pin: board.UserSwPin}
	s.caps[capVSense] = types.VoltageInfo{Pin: board.VSensePin, Gain: board.VSenseGain}
	s.caps[capSensor] = types.VoltageInfo{Pin: board.SensorPin, Gain: 1}
	s.caps[capBoard] = boardInfo()

	s.sources["vsense"] = &adcSource{cap: capVSense, read: s.board.ReadVoltage, samples: 1}
	s.sources["sensor"] = &adcSource{cap: capSensor, read: s.board.ReadSensor, samples: 1}
	if dev := s.board.Env(); dev != nil {
		env := types.EnvInfo{Sensor: "aht20", Addr: 0x38, Bus: "qwst"}
		s.caps[capTemperature] = env
		s.caps[capHumidity] = env
		s.sources["env"] = &envSource{dev: dev, temp: capTemperature, hum: capHumidity}
	}

	for c, info := range s.caps {
		s.pubRet(capInfo(c), types.Info{SchemaVersion: 1, Driver: driverOf(c), Detail: info})
		s.publishStatus(c, types.LinkUp, nil)
	}
	for c := range s.outputs {
		s.publishOutput(c)
	}
	s.publishRGB()
	s.pressed = s.board.BootPressed()
	s.pubRet(capValue(capButton), types.ButtonValue{Pressed: s.pressed})
}

func driverOf(c capKey) string {
	switch c.kind {
	case types.KindPWM, types.KindRGB:
		return "picofx"
	case types.KindTemperature, types.KindHumidity:
		return "aht20"
	case types.KindVoltage:
		return "adc"
	case types.KindButton:
		return "gpio"
	}
	return "tinyfx"
}

func boardInfo() types.BoardInfo {
	l := board.Current()
	radio, wireless := board.Radio()
	return types.BoardInfo{
		Name:          board.Name(),
		FlashBytes:    l.FlashBytes,
		FirmwareBytes: l.FirmwareBytes,
		StorageBytes:  l.StorageBytes,
		StorageFixed:  board.StorageFixed(),
		Wireless:      wireless,
		CYW43UseSPI:   radio.UseSPI,
		CYW43LWIP:     radio.LWIP,
		CYW43GPIO:     radio.GPIO,
		CYW43SPIPIO:   radio.SPIPIO,
	}
}

func (s *service) applyConfig(cfg types.HALConfig) {
	if cfg.ButtonPollMs == 0 {
		cfg.ButtonPollMs = defaultButtonPollMs
	}
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	s.cfg = cfg
	if a, ok := s.sources["vsense"].(*adcSource); ok {
		a.samples = cfg.Samples
	}
	if a, ok := s.sources["sensor"].(*adcSource); ok {
		a.samples = cfg.Samples
	}
	s.schedule("vsense", cfg.VoltagePollMs)
	s.schedule("sensor", cfg.SensorPollMs)
	if cfg.EnvSensor {
		s.schedule("env", cfg.EnvPollMs)
	} else {
		s.schedule("env", 0)
	}
	if cfg.ClearOnStartup {
		s.clear()
	}
}

// schedule (re)starts periodic sampling of id; 0 stops it.
func (s *service) schedule(id string, periodMs uint32) {
	src, ok := s.sources[id]
	if !ok || periodMs == 0 {
		delete(s.polls, id)
		return
	}
	period := time.Duration(max(periodMs, minPollMs)) * time.Millisecond
	s.polls[id] = &poll{src: src, period: period, next: time.Now()}
}

func (s *service) nextPoll() time.Time {
	var min time.Time
	for _, p := range s.polls {
		if min.IsZero() || p.next.Before(min) {
			min = p.next
		}
	}
	return min
}

func (s *service) pollButton() {
	pressed := s.board.BootPressed()
	if pressed == s.pressed {
		return
	}
	s.pressed = pressed
	v := types.ButtonValue{Pressed: pressed}
	tag := "released"
	if pressed {
		tag = "pressed"
	}
	s.conn.Publish(s.conn.NewMessage(capEvent(capButton, tag), v, false))
	s.pubRet(capValue(capButton), v)
}

func (s *service) handleResult(r sampleResult) {
	if r.err != nil {
		println("[hal] sample", r.id, "failed:", r.err.Error())
		for c := range s.caps {
			if s.sourceOf(c) == r.id {
				s.publishStatus(c, types.LinkDegraded, r.err)
			}
		}
		for _, m := range r.msgs {
			s.replyErr(m, errcode.Of(r.err))
		}
		return
	}
	for _, rd := range r.readings {
		s.conn.Publish(s.conn.NewMessage(capValue(rd.Cap), rd.Value, false))
		s.publishStatus(rd.Cap, types.LinkUp, nil)
	}
	for _, m := range r.msgs {
		c, _ := capFromTopic(m.Topic)
		for _, rd := range r.readings {
			if rd.Cap == c {
				s.replyValue(m, rd.Value)
			}
		}
	}
}

func (s *service) sourceOf(c capKey) string {
	switch c {
	case capVSense:
		return "vsense"
	case capSensor:
		return "sensor"
	case capTemperature, capHumidity:
		return "env"
	}
	return ""
}

func capFromTopic(t bus.Topic) (capKey, bool) {
	if t.Len() < 5 {
		return capKey{}, false
	}
	d, ok1 := t.At(2).(string)
	k, ok2 := t.At(3).(string)
	n, ok3 := t.At(4).(string)
	return capKey{d, types.Kind(k), n}, ok1 && ok2 && ok3
}
