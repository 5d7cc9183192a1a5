// Package net connects a wireless TinyFX to the internet. It polls a
// colour source over plain HTTP and drives the outputs through the HAL,
// and forwards heartbeats to an MQTT broker when one is configured.
package net

import (
	"context"
	"log/slog"
	"net/netip"
	"strconv"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/services/hal"
	"tinyfx-go/services/heartbeat"
	"tinyfx-go/types"
	"tinyfx-go/x/payload"
	"tinyfx-go/x/strx"
	"tinyfx-go/x/timex"
)

const (
	CheerLightsURL = "http://api.thingspeak.com/channels/1417/field/2/last.json"
	RandomURL      = "http://random-flat-colors.vercel.app/api/random?count=2"

	ModeCheerLights = "cheerlights"
	ModeRandom      = "random"
	ModeOff         = "off"

	defaultInterval = 5 * time.Second
	minInterval     = time.Second
	retryJoin       = 10 * time.Second
	defaultTopic    = "tinyfx/telemetry"
)

var (
	topicConfigNet = bus.T("config", "net")
	topicState     = bus.T("net", "state")
	topicBeat      = bus.T("heartbeat", "beat")
)

// Link is the network below the service: a joined station that can make
// HTTP requests and publish MQTT messages.
type Link interface {
	Up(ctx context.Context, cfg types.NetConfig) (netip.Addr, error)
	Get(ctx context.Context, url string) (status int, body []byte, err error)
	Publish(ctx context.Context, broker, topic string, payload []byte) error
}

type Service struct {
	link Link
	log  *slog.Logger

	cfg   types.NetConfig
	state types.NetState
	url   string
}

func New(link Link, logger *slog.Logger) *Service {
	return &Service{link: link, log: logger, state: types.NetState{Link: "down"}}
}

// Start runs the service until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigNet)
	beatSub := conn.Subscribe(topicBeat)
	go func() {
		defer conn.Unsubscribe(cfgSub)
		defer conn.Unsubscribe(beatSub)
		s.publishState(conn)
		s.loop(ctx, conn, cfgSub, beatSub)
	}()
}

func (s *Service) loop(ctx context.Context, conn *bus.Connection, cfgSub, beatSub *bus.Subscription) {
	poll := time.NewTimer(time.Hour)
	poll.Stop()
	join := time.NewTimer(time.Hour)
	join.Stop()
	defer poll.Stop()
	defer join.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("net:stopping")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.NetConfig
			if err := payload.Decode(msg.Payload, &cfg); err != nil {
				s.log.Error("net:config", slog.String("err", err.Error()))
				continue
			}
			if err := s.configure(cfg); err != nil {
				s.log.Error("net:config", slog.String("err", err.Error()))
				continue
			}
			if s.state.Link != "up" && s.cfg.SSID != "" {
				timex.ResetTimer(join, 0)
			}
			s.schedule(poll)

		case <-join.C:
			if !s.join(ctx, conn) {
				timex.ResetTimer(join, retryJoin)
				continue
			}
			s.schedule(poll)

		case <-poll.C:
			if err := s.poll(ctx, conn); err != nil {
				s.log.Error("net:poll", slog.String("mode", s.cfg.Mode), slog.String("err", err.Error()))
			}
			s.schedule(poll)

		case msg := <-beatSub.Channel():
			b, ok := msg.Payload.(heartbeat.Beat)
			if !ok || s.state.Link != "up" || s.cfg.MQTTBroker == "" {
				continue
			}
			topic := strx.Coalesce(s.cfg.MQTTTopic, defaultTopic)
			if err := s.link.Publish(ctx, s.cfg.MQTTBroker, topic, beatJSON(b)); err != nil {
				s.log.Error("net:mqtt", slog.String("broker", s.cfg.MQTTBroker), slog.String("err", err.Error()))
			}
		}
	}
}

func (s *Service) configure(cfg types.NetConfig) error {
	switch cfg.Mode {
	case "", ModeOff:
		cfg.Mode = ModeOff
		s.url = ""
	case ModeCheerLights:
		s.url = CheerLightsURL
	case ModeRandom:
		s.url = RandomURL
	default:
		return &errcode.E{C: errcode.InvalidParams, Op: "net.configure", Msg: "unknown mode " + cfg.Mode}
	}
	s.cfg = cfg
	s.log.Info("net:configured", slog.String("ssid", cfg.SSID), slog.String("mode", cfg.Mode))
	return nil
}

func (s *Service) interval() time.Duration {
	d := timex.Ms(s.cfg.IntervalMs)
	if d == 0 {
		return defaultInterval
	}
	return max(d, minInterval)
}

func (s *Service) schedule(poll *time.Timer) {
	if s.state.Link != "up" || s.url == "" {
		poll.Stop()
		timex.DrainTimer(poll)
		return
	}
	timex.ResetTimer(poll, s.interval())
}

func (s *Service) join(ctx context.Context, conn *bus.Connection) bool {
	s.state = types.NetState{Link: "joining"}
	s.publishState(conn)
	start := time.Now()
	ip, err := s.link.Up(ctx, s.cfg)
	if err != nil {
		s.log.Error("net:join", slog.String("ssid", s.cfg.SSID), slog.String("err", err.Error()))
		s.state = types.NetState{Link: "down"}
		s.publishState(conn)
		return false
	}
	s.state = types.NetState{Link: "up", IP: ip.String()}
	s.log.Info("net:up", slog.String("ip", s.state.IP), slog.Duration("took", time.Since(start)))
	s.publishState(conn)
	return true
}

// poll fetches the configured colour source once and applies it.
func (s *Service) poll(ctx context.Context, conn *bus.Connection) error {
	status, body, err := s.link.Get(ctx, s.url)
	if err != nil {
		return err
	}
	if status != 200 {
		return &errcode.E{C: errcode.Error, Op: "net.poll", Msg: "HTTP " + strconv.Itoa(status)}
	}
	switch s.cfg.Mode {
	case ModeCheerLights:
		c, err := ParseCheerLights(body)
		if err != nil {
			return err
		}
		s.setRGB(conn, c)
		s.log.Info("net:cheerlights", slog.Int("r", int(c[0])), slog.Int("g", int(c[1])), slog.Int("b", int(c[2])))
	case ModeRandom:
		rc, err := ParseRandomColours(body)
		if err != nil {
			return err
		}
		for i, name := range hal.OutputNames {
			conn.Publish(conn.NewMessage(hal.CtrlTopic("io", "pwm", name, "set"), types.OutputSet{Brightness: rc.Mono[i]}, false))
		}
		s.setRGB(conn, rc.RGB)
		s.log.Info("net:random", slog.Int("r", int(rc.RGB[0])), slog.Int("g", int(rc.RGB[1])), slog.Int("b", int(rc.RGB[2])))
	}
	return nil
}

func (s *Service) setRGB(conn *bus.Connection, c [3]uint8) {
	conn.Publish(conn.NewMessage(hal.CtrlTopic("io", "rgb", "rgb", "set_rgb"),
		types.RGBSet{R: int(c[0]), G: int(c[1]), B: int(c[2])}, false))
}

func (s *Service) publishState(conn *bus.Connection) {
	conn.Publish(conn.NewMessage(topicState, s.state, true))
}

func beatJSON(b heartbeat.Beat) []byte {
	out := make([]byte, 0, 64)
	out = append(out, `{"seq":`...)
	out = strconv.AppendUint(out, uint64(b.Seq), 10)
	out = append(out, `,"uptime_s":`...)
	out = strconv.AppendInt(out, b.Uptime, 10)
	out = append(out, `,"volts":`...)
	out = strconv.AppendFloat(out, float64(b.Volts), 'f', 3, 32)
	return append(out, '}')
}
