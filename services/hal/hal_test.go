package hal

import (
	"context"
	"testing"
	"time"

	"tinyfx-go/board"
	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/tinyfx"
	"tinyfx-go/types"
)

type rig struct {
	b    *bus.Bus
	conn *bus.Connection
	sim  *tinyfx.Sim
	fx   *tinyfx.Board
}

func start(t *testing.T) *rig {
	t.Helper()
	sim := tinyfx.NewSim(nil)
	fx, err := tinyfx.New(sim, tinyfx.Options{})
	if err != nil {
		t.Fatal(err)
	}
	b := bus.NewBus(32)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Run(ctx, b.NewConnection("hal"), fx)

	r := &rig{b: b, conn: b.NewConnection("test"), sim: sim, fx: fx}
	waitState(t, r.conn, "idle")
	return r
}

func waitState(t *testing.T, c *bus.Connection, level string) {
	t.Helper()
	sub := c.Subscribe(topicState())
	defer c.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("hal never reached %q", level)
		}
	}
}

func (r *rig) ctrl(t *testing.T, domain, kind, name, verb string, p any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := r.conn.RequestWait(ctx, r.conn.NewMessage(CtrlTopic(domain, kind, name, verb), p, false))
	if err != nil {
		t.Fatalf("%s/%s: %v", name, verb, err)
	}
	return reply.Payload
}

func TestInfoRetainedForEveryCapability(t *testing.T) {
	r := start(t)
	sub := r.conn.Subscribe(bus.T("hal", "cap", "+", "+", "+", "info"))
	seen := map[string]bool{}
	deadline := time.After(500 * time.Millisecond)
	for len(seen) < 11 {
		select {
		case m := <-sub.Channel():
			seen[m.Topic.String()] = true
		case <-deadline:
			t.Fatalf("got %d info topics: %v", len(seen), seen)
		}
	}
	for _, want := range []string{
		"hal/cap/io/pwm/one/info",
		"hal/cap/io/pwm/six/info",
		"hal/cap/io/rgb/rgb/info",
		"hal/cap/io/button/boot/info",
		"hal/cap/power/voltage/vsense/info",
		"hal/cap/system/board/tinyfx/info",
	} {
		if !seen[want] {
			t.Fatalf("missing %s", want)
		}
	}
	if seen["hal/cap/env/temperature/qwst/info"] {
		t.Fatal("env capability without a sensor")
	}
}

func TestOutputControls(t *testing.T) {
	r := start(t)
	pin := board.OutPins[2]

	v, ok := r.ctrl(t, "io", "pwm", "three", "on", nil).(types.OutputValue)
	if !ok || v.Brightness != 1 || r.sim.Duty(pin) != 0xFFFF {
		t.Fatalf("on: %#v duty=%d", v, r.sim.Duty(pin))
	}
	v = r.ctrl(t, "io", "pwm", "three", "toggle", nil).(types.OutputValue)
	if v.Brightness != 0 || r.sim.Duty(pin) != 0 {
		t.Fatalf("toggle: %#v", v)
	}
	v = r.ctrl(t, "io", "pwm", "three", "set", map[string]any{"brightness": 2.0}).(types.OutputValue)
	if v.Brightness != 1 {
		t.Fatalf("set not clamped: %#v", v)
	}
	if got := r.ctrl(t, "io", "pwm", "three", "explode", nil); got.(types.ErrorReply).Error != string(errcode.Unsupported) {
		t.Fatalf("unknown verb reply %#v", got)
	}
	if got := r.ctrl(t, "io", "pwm", "seven", "on", nil); got.(types.ErrorReply).Error != string(errcode.UnknownCapability) {
		t.Fatalf("unknown cap reply %#v", got)
	}
}

func TestOutputFade(t *testing.T) {
	r := start(t)
	sub := r.conn.Subscribe(capValue(outputCap(0)))
	<-sub.Channel() // retained initial value

	if _, ok := r.ctrl(t, "io", "pwm", "one", "fade", types.OutputFade{To: 1, DurationMs: 40, Steps: 4}).(types.OKReply); !ok {
		t.Fatal("fade not acknowledged")
	}
	select {
	case m := <-sub.Channel():
		if m.Payload.(types.OutputValue).Brightness != 1 {
			t.Fatalf("fade ended at %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("fade never completed")
	}
	if r.fx.One().Brightness() != 1 {
		t.Fatal("led not at target")
	}
}

func TestRGBControls(t *testing.T) {
	r := start(t)
	v := r.ctrl(t, "io", "rgb", "rgb", "set_rgb", map[string]any{"r": 300.0, "g": 10.0, "b": -5.0}).(types.RGBValue)
	if v != (types.RGBValue{R: 255, G: 10, B: 0}) {
		t.Fatalf("set_rgb: %#v", v)
	}
	v = r.ctrl(t, "io", "rgb", "rgb", "set_hsv", types.HSVSet{H: 0, S: 1, V: 1}).(types.RGBValue)
	if v != (types.RGBValue{R: 255}) {
		t.Fatalf("set_hsv: %#v", v)
	}
	v = r.ctrl(t, "io", "rgb", "rgb", "off", nil).(types.RGBValue)
	if v != (types.RGBValue{}) {
		t.Fatalf("off: %#v", v)
	}
}

func TestVoltageRead(t *testing.T) {
	r := start(t)
	r.sim.SetADC(board.VSensePin, 65535)
	v, ok := r.ctrl(t, "power", "voltage", "vsense", "read", types.ReadSamples{Samples: 3}).(types.VoltageValue)
	if !ok {
		t.Fatal("no voltage reply")
	}
	if want := float32(3.3*2 + 0.3); v.Volts < want-0.001 || v.Volts > want+0.001 {
		t.Fatalf("volts = %v, want %v", v.Volts, want)
	}
}

func TestButtonEvents(t *testing.T) {
	r := start(t)
	ev := r.conn.Subscribe(capBase(capButton).Append("event", "+"))

	r.sim.SetInput(board.UserSwPin, false)
	select {
	case m := <-ev.Channel():
		if m.Topic.At(6) != "pressed" || !m.Payload.(types.ButtonValue).Pressed {
			t.Fatalf("unexpected event %v %#v", m.Topic, m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no pressed event")
	}
	r.sim.SetInput(board.UserSwPin, true)
	select {
	case m := <-ev.Channel():
		if m.Topic.At(6) != "released" {
			t.Fatalf("unexpected event %v", m.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("no released event")
	}
}

func TestConfigPollsVoltage(t *testing.T) {
	r := start(t)
	vals := r.conn.Subscribe(capValue(capVSense))
	r.sim.SetADC(board.VSensePin, 0)
	r.conn.Publish(r.conn.NewMessage(topicConfigHAL(), map[string]any{"voltage_poll_ms": 50.0}, true))
	waitState(t, r.conn, "ready")

	for i := 0; i < 2; i++ {
		select {
		case m := <-vals.Channel():
			if v := m.Payload.(types.VoltageValue).Volts; v < 0.29 || v > 0.31 {
				t.Fatalf("volts = %v", v)
			}
		case <-time.After(time.Second):
			t.Fatalf("poll %d never arrived", i)
		}
	}
}

func TestBoardInfoAndClear(t *testing.T) {
	r := start(t)
	info := r.ctrl(t, "system", "board", "tinyfx", "info", nil).(types.BoardInfo)
	if info.Name != board.Name() || info.StorageBytes != board.StorageBytes {
		t.Fatalf("info = %#v", info)
	}

	r.fx.Two().On()
	r.fx.RGB().SetRGB(1, 2, 3)
	if _, ok := r.ctrl(t, "system", "board", "tinyfx", "clear", nil).(types.OKReply); !ok {
		t.Fatal("clear not acknowledged")
	}
	if r.sim.Duty(board.OutPins[1]) != 0 {
		t.Fatal("output two still on")
	}
	if rr, g, b := r.fx.RGB().RGB(); rr|g|b != 0 {
		t.Fatal("rgb not cleared")
	}
}
