// Package audio exposes the audio player on the bus. Controls arrive on
// audio/control/<verb> and the player state is kept retained on
// audio/state.
package audio

import (
	"context"
	"time"

	"tinyfx-go/audio"
	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/types"
	"tinyfx-go/x/payload"
	"tinyfx-go/x/timex"
)

var (
	topicConfigAudio = bus.T("config", "audio")
	topicControl     = bus.T("audio", "control", "+")
	topicState       = bus.T("audio", "state")
)

const (
	defaultBootToneMs = 150
	statePoll         = 100 * time.Millisecond
)

type Service struct {
	player *audio.Player
	volume float64
	booted bool
	last   types.AudioState
	toneT  *time.Timer
}

func New(p *audio.Player) *Service {
	return &Service{player: p, volume: 1}
}

// Start runs the service until ctx ends; the player is closed on exit.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigAudio)
	ctrlSub := conn.Subscribe(topicControl)
	go func() {
		defer conn.Unsubscribe(cfgSub)
		defer conn.Unsubscribe(ctrlSub)
		s.publishState(conn, true)
		s.loop(ctx, conn, cfgSub, ctrlSub)
	}()
}

func (s *Service) loop(ctx context.Context, conn *bus.Connection, cfgSub, ctrlSub *bus.Subscription) {
	poll := time.NewTicker(statePoll)
	defer poll.Stop()
	s.toneT = time.NewTimer(time.Hour)
	s.toneT.Stop()

	for {
		select {
		case <-ctx.Done():
			s.player.Close()
			println("[audio] stopping")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.AudioConfig
			if err := payload.Decode(msg.Payload, &cfg); err != nil {
				println("[audio] config rejected:", err.Error())
				continue
			}
			s.applyConfig(cfg)
			s.publishState(conn, false)

		case msg := <-ctrlSub.Channel():
			verb, _ := msg.Topic.At(2).(string)
			err := s.control(verb, msg.Payload)
			s.publishState(conn, false)
			if err != nil {
				println("[audio]", verb, "failed:", err.Error())
				conn.Reply(msg, types.ErrorReply{Error: string(errcode.Of(err))}, false)
			} else {
				conn.Reply(msg, types.OKReply{OK: true}, false)
			}

		case <-s.toneT.C:
			s.player.Close()
			s.publishState(conn, false)

		case <-poll.C:
			// A single shot WAV ends on its own; release the stream so
			// the amp is switched off.
			if st, _ := s.player.Status(); st == audio.StateStop {
				if err := s.player.Err(); err != nil {
					println("[audio] stream ended:", err.Error())
				}
				s.player.Close()
			}
			s.publishState(conn, false)
		}
	}
}

func (s *Service) applyConfig(cfg types.AudioConfig) {
	if cfg.Volume > 0 && cfg.Volume <= 1 {
		s.volume = cfg.Volume
	}
	if s.booted || cfg.BootTone == nil {
		return
	}
	s.booted = true
	if err := s.tone(*cfg.BootTone); err != nil {
		println("[audio] boot tone:", err.Error())
		return
	}
	ms := cfg.BootToneMs
	if ms == 0 {
		ms = defaultBootToneMs
	}
	timex.ResetTimer(s.toneT, time.Duration(ms)*time.Millisecond)
}

func (s *Service) control(verb string, p any) error {
	switch verb {
	case "tone":
		var req types.ToneRequest
		if err := payload.Decode(p, &req); err != nil {
			return err
		}
		return s.tone(req)
	case "wav":
		var req types.WavRequest
		if err := payload.Decode(p, &req); err != nil {
			return err
		}
		if req.File == "" {
			return &errcode.E{C: errcode.InvalidParams, Op: "audio.wav", Msg: "file required"}
		}
		return s.player.PlayWAV(req.File, req.Loop)
	case "stop":
		s.toneT.Stop()
		s.player.Close()
		return nil
	case "pause":
		s.player.Pause()
		return nil
	case "resume":
		s.player.Resume()
		return nil
	}
	return errcode.Unsupported
}

func (s *Service) tone(req types.ToneRequest) error {
	shape, err := audio.ParseShape(req.Shapes)
	if err != nil {
		return err
	}
	return s.player.PlayTone(req.FreqHz, req.Amplitude*s.volume, shape)
}

// publishState sends audio/state when it changed, or always with force.
func (s *Service) publishState(conn *bus.Connection, force bool) {
	st, mode := s.player.Status()
	cur := types.AudioState{Playing: s.player.IsPlaying(), Paused: st == audio.StatePause}
	if cur.Playing {
		cur.Mode = mode.String()
	}
	if !force && cur == s.last {
		return
	}
	s.last = cur
	conn.Publish(conn.NewMessage(topicState, cur, true))
}
