// Package heartbeat prints a periodic liveness line with the latest
// supply voltage seen on the bus.
package heartbeat

import (
	"context"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/types"
	"tinyfx-go/x/payload"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicVSense          = bus.T("hal", "cap", "power", "voltage", "vsense", "value")
	topicBeat            = bus.T("heartbeat", "beat")
)

const defaultInterval = time.Second

// Beat is published on heartbeat/beat each tick.
type Beat struct {
	Seq    uint32  `json:"seq"`
	Uptime int64   `json:"uptime_s"`
	Volts  float32 `json:"volts,omitempty"`
}

type Service struct {
	start time.Time
	volts float32
	seq   uint32
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	vSub := conn.Subscribe(topicVSense)
	defer conn.Unsubscribe(vSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case t := <-tick.C:
			s.seq++
			b := Beat{Seq: s.seq, Uptime: int64(t.Sub(s.start) / time.Second), Volts: s.volts}
			println("[heartbeat]", t.Format("15:04:05"), "seq", b.Seq, "up", b.Uptime, "s", "vsys", int(b.Volts*1000), "mV")
			conn.Publish(conn.NewMessage(topicBeat, b, false))
		case msg := <-vSub.Channel():
			if v, c := payload.As[types.VoltageValue](msg.Payload); c == "" {
				s.volts = v.Volts
			}
		case msg := <-cfgSub.Channel():
			if iv, ok := payload.Field(msg.Payload, "interval"); ok && iv > 0 {
				tick.Reset(time.Duration(iv * float64(time.Second)))
				println("[heartbeat] interval set to", iv, "seconds")
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.start = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
