// Package fx runs the effect players. The mono player drives the six
// outputs and carries the RGB (and optional strip) player paired to it,
// so one timer advances every effect.
package fx

import (
	"context"
	"math/rand"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
	"tinyfx-go/picofx/catalog"
	"tinyfx-go/picofx/colour"
	"tinyfx-go/tinyfx"
	"tinyfx-go/types"
	"tinyfx-go/x/payload"
)

var (
	topicConfigFX = bus.T("config", "fx")
	topicControl  = bus.T("fx", "control", "+")
	topicState    = bus.T("fx", "state")
	topicPressed  = bus.T("hal", "cap", "io", "button", "boot", "event", "pressed")
)

type Service struct {
	board *tinyfx.Board
	rnd   *rand.Rand

	mono   *picofx.MonoPlayer
	colour *picofx.ColourPlayer
	strip  *picofx.StripPlayer
	rgbFX  picofx.Colour
	fps    int
}

func New(b *tinyfx.Board) *Service {
	leds := make([]picofx.BrightnessSetter, 0, len(b.Outputs()))
	for _, o := range b.Outputs() {
		leds = append(leds, o)
	}
	s := &Service{
		board:  b,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		mono:   picofx.NewMonoPlayer(leds...),
		colour: picofx.NewColourPlayer(b.RGB()),
	}
	s.mono.Pair(s.colour)
	if st := b.Strip(); st != nil {
		s.strip = picofx.NewStripPlayer(st, 0)
		s.colour.Pair(s.strip)
	}
	return s
}

// Start runs the service until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigFX)
	ctrlSub := conn.Subscribe(topicControl)
	btnSub := conn.Subscribe(topicPressed)
	go func() {
		defer conn.Unsubscribe(cfgSub)
		defer conn.Unsubscribe(ctrlSub)
		defer conn.Unsubscribe(btnSub)
		s.publishState(conn)
		s.loop(ctx, conn, cfgSub, ctrlSub, btnSub)
	}()
}

func (s *Service) loop(ctx context.Context, conn *bus.Connection, cfgSub, ctrlSub, btnSub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			s.Stop(true)
			println("[fx] stopping")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.FXConfig
			err := payload.Decode(msg.Payload, &cfg)
			if err == nil {
				err = s.Play(cfg)
			}
			if err != nil {
				println("[fx] config rejected:", err.Error())
			}
			s.publishState(conn)

		case msg := <-ctrlSub.Channel():
			verb, _ := msg.Topic.At(2).(string)
			err := s.control(verb, msg.Payload)
			s.publishState(conn)
			if err != nil {
				conn.Reply(msg, types.ErrorReply{Error: string(errcode.Of(err))}, false)
			} else {
				conn.Reply(msg, types.OKReply{OK: true}, false)
			}

		case <-btnSub.Channel():
			println("[fx] boot pressed, stopping effects")
			s.Stop(true)
			s.publishState(conn)
		}
	}
}

func (s *Service) control(verb string, p any) error {
	switch verb {
	case "play":
		var cfg types.FXConfig
		if err := payload.Decode(p, &cfg); err != nil {
			return err
		}
		return s.Play(cfg)
	case "stop":
		var req types.FXStop
		if err := payload.Decode(p, &req); err != nil {
			return err
		}
		s.Stop(req.Reset)
		return nil
	case "next", "prev":
		return s.step(verb == "next")
	}
	return errcode.Unsupported
}

// Play builds every effect first, so an invalid spec leaves the current
// show running.
func (s *Service) Play(cfg types.FXConfig) error {
	b := catalog.NewBuilder(s.rnd)
	if len(cfg.Mono) > len(s.board.Outputs()) {
		return &errcode.E{C: errcode.TooManyEffects, Op: "fx.Play"}
	}
	monos := make([]picofx.Mono, 0, len(cfg.Mono))
	for _, spec := range cfg.Mono {
		m, err := b.Mono(spec)
		if err != nil {
			return err
		}
		monos = append(monos, m)
	}
	var cols []picofx.Colour
	if cfg.Colour != nil {
		c, err := b.Colour(*cfg.Colour)
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	var pixels []picofx.Colour
	if cfg.Strip != nil && s.strip != nil {
		n := len(s.strip.Effects())
		spec := *cfg.Strip
		if spec.Group == "" {
			spec.Group = "strip"
		}
		for i := 0; i < n; i++ {
			spec.Pos = i
			c, err := b.Colour(spec)
			if err != nil {
				return err
			}
			pixels = append(pixels, c)
		}
	}

	s.Stop(false)
	if err := s.mono.SetEffects(monos...); err != nil {
		return err
	}
	if err := s.colour.SetEffects(cols...); err != nil {
		return err
	}
	if s.strip != nil {
		if err := s.strip.SetEffects(pixels...); err != nil {
			return err
		}
	}
	s.rgbFX = nil
	if len(cols) > 0 {
		s.rgbFX = cols[0]
	}
	s.fps = cfg.FPS
	if s.fps <= 0 {
		s.fps = picofx.DefaultFPS
	}
	println("[fx] playing", len(monos), "mono,", len(cols), "colour at", s.fps, "fps")
	return s.mono.Start(s.fps, true)
}

// Stop halts the players and turns every output off. With reset every
// effect on every player starts again from the beginning.
func (s *Service) Stop(reset bool) {
	s.mono.Stop(reset)
	s.colour.Stop(reset)
	if s.strip != nil {
		s.strip.Stop(reset)
	}
	s.board.Clear()
}

func (s *Service) Running() bool { return s.mono.IsRunning() }

// step moves a colour blink on the RGB output to its next or previous
// colour. The players pause around the change.
func (s *Service) step(next bool) error {
	bl, ok := s.rgbFX.(*colour.Blink)
	if !ok {
		return &errcode.E{C: errcode.Unsupported, Op: "fx.step", Msg: "no colour blink playing"}
	}
	running := s.mono.IsRunning()
	s.mono.Stop(false)
	if next {
		bl.Next()
	} else {
		bl.Prev()
	}
	if running {
		return s.mono.Start(s.fps, true)
	}
	return nil
}

func (s *Service) publishState(conn *bus.Connection) {
	st := types.FXState{Running: s.mono.IsRunning()}
	if st.Running {
		st.FPS = s.fps
	}
	conn.Publish(conn.NewMessage(topicState, st, true))
}
