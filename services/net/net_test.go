package net

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"testing"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/services/heartbeat"
	"tinyfx-go/types"
)

func TestParseHexColour(t *testing.T) {
	c, err := ParseHexColour("#FF8000")
	if err != nil || c != [3]uint8{255, 128, 0} {
		t.Fatalf("got %v %v", c, err)
	}
	for _, bad := range []string{"", "FF8000", "#FF80", "#GG0000", "#FF800000"} {
		if _, err := ParseHexColour(bad); errcode.Of(err) != errcode.InvalidPayload {
			t.Fatalf("%q: err %v", bad, err)
		}
	}
}

func TestParseCheerLights(t *testing.T) {
	c, err := ParseCheerLights([]byte(`{"created_at":"2024-01-01T00:00:00Z","entry_id":1,"field2":"#00ff7f"}`))
	if err != nil || c != [3]uint8{0, 255, 127} {
		t.Fatalf("got %v %v", c, err)
	}
	for _, bad := range []string{`{"field1":"red"}`, `[1,2]`, `{"field2":`} {
		if _, err := ParseCheerLights([]byte(bad)); errcode.Of(err) != errcode.InvalidPayload {
			t.Fatalf("%s: err %v", bad, err)
		}
	}
}

func TestParseRandomColours(t *testing.T) {
	rc, err := ParseRandomColours([]byte(`{"colors":["#F0A5C3","#102030"]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := [6]float32{1, 0, 10.0 / 15, 5.0 / 15, 12.0 / 15, 3.0 / 15}
	if rc.Mono != want || rc.RGB != [3]uint8{0x10, 0x20, 0x30} {
		t.Fatalf("got %+v", rc)
	}
	if _, err := ParseRandomColours([]byte(`{"colors":["#F0A5C3"]}`)); err == nil {
		t.Fatal("one colour accepted")
	}
}

func TestSplitURL(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port uint16
		path string
	}{
		{CheerLightsURL, "api.thingspeak.com", 80, "/channels/1417/field/2/last.json"},
		{"http://10.0.0.2:8080", "10.0.0.2", 8080, "/"},
		{RandomURL, "random-flat-colors.vercel.app", 80, "/api/random?count=2"},
	}
	for _, tc := range cases {
		h, p, path, err := SplitURL(tc.in)
		if err != nil || h != tc.host || p != tc.port || path != tc.path {
			t.Fatalf("%s: %s %d %s %v", tc.in, h, p, path, err)
		}
	}
	if _, _, _, err := SplitURL("https://example.com/"); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("https: %v", err)
	}
	if _, _, _, err := SplitURL("http://host:0/"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("port 0: %v", err)
	}
}

func TestParseResponse(t *testing.T) {
	status, body, err := ParseResponse([]byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{\"a\":1}"))
	if err != nil || status != 200 || string(body) != `{"a":1}` {
		t.Fatalf("%d %q %v", status, body, err)
	}
	chunked := "HTTP/1.1 200 OK\r\ntransfer-encoding: Chunked\r\n\r\n4\r\n{\"a\"\r\n3;x=y\r\n:1}\r\n0\r\n\r\n"
	if _, body, err := ParseResponse([]byte(chunked)); err != nil || string(body) != `{"a":1}` {
		t.Fatalf("chunked %q %v", body, err)
	}
	if status, _, _ := ParseResponse([]byte("HTTP/1.0 404 Not Found\r\n\r\n")); status != 404 {
		t.Fatalf("status %d", status)
	}
	for _, bad := range []string{"HTTP/1.1 200 OK\r\n", "SPDY 200\r\n\r\n", "HTTP/1.1 abc\r\n\r\n"} {
		if _, _, err := ParseResponse([]byte(bad)); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

// fakeLink answers Get from a table and records MQTT publishes.
type fakeLink struct {
	mu      sync.Mutex
	bodies  map[string]string
	failUp  int
	ups     int
	gets    int
	publish []string
}

func (f *fakeLink) Up(context.Context, types.NetConfig) (netip.Addr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ups++
	if f.ups <= f.failUp {
		return netip.Addr{}, errcode.NotConnected
	}
	return netip.MustParseAddr("192.168.1.40"), nil
}

func (f *fakeLink) Get(_ context.Context, url string) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	b, ok := f.bodies[url]
	if !ok {
		return 404, nil, nil
	}
	return 200, []byte(b), nil
}

func (f *fakeLink) Publish(_ context.Context, broker, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publish = append(f.publish, broker+" "+topic+" "+string(payload))
	return nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func expect(t *testing.T, sub *bus.Subscription, what string, cond func(*bus.Message) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if cond(m) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func TestCheerLightsDrivesRGB(t *testing.T) {
	link := &fakeLink{bodies: map[string]string{CheerLightsURL: `{"field2":"#FF00FF"}`}}
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	rgb := conn.Subscribe(bus.T("hal", "cap", "io", "rgb", "rgb", "control", "set_rgb"))
	state := conn.Subscribe(topicState)
	conn.Publish(conn.NewMessage(topicConfigNet, map[string]any{
		"ssid": "lab", "mode": "cheerlights", "interval_ms": 1000.0,
	}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New(link, quiet()).Start(ctx, b.NewConnection("net"))

	expect(t, state, "link up", func(m *bus.Message) bool {
		st := m.Payload.(types.NetState)
		return st.Link == "up" && st.IP == "192.168.1.40"
	})
	expect(t, rgb, "set_rgb", func(m *bus.Message) bool {
		return m.Payload == types.RGBSet{R: 255, G: 0, B: 255}
	})
}

func TestRandomModeAndRetryJoin(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a join retry")
	}
	link := &fakeLink{failUp: 1, bodies: map[string]string{RandomURL: `{"colors":["#F00000","#0000FF"]}`}}
	b := bus.NewBus(32)
	conn := b.NewConnection("test")
	one := conn.Subscribe(bus.T("hal", "cap", "io", "pwm", "one", "control", "set"))
	state := conn.Subscribe(topicState)
	conn.Publish(conn.NewMessage(topicConfigNet, types.NetConfig{SSID: "lab", Mode: ModeRandom}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New(link, quiet()).Start(ctx, b.NewConnection("net"))

	expect(t, state, "joining", func(m *bus.Message) bool { return m.Payload.(types.NetState).Link == "joining" })
	expect(t, state, "first join fails", func(m *bus.Message) bool { return m.Payload.(types.NetState).Link == "down" })
	// Retry after retryJoin, then poll after the default interval.
	deadline := time.After(retryJoin + defaultInterval + 3*time.Second)
	for {
		select {
		case m := <-one.Channel():
			if m.Payload != (types.OutputSet{Brightness: 1}) {
				t.Fatalf("payload %#v", m.Payload)
			}
			return
		case <-deadline:
			t.Fatal("no output set after retry")
		}
	}
}

func TestTelemetryForwardsBeats(t *testing.T) {
	link := &fakeLink{}
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	state := conn.Subscribe(topicState)
	conn.Publish(conn.NewMessage(topicConfigNet, types.NetConfig{SSID: "lab", Mode: ModeOff, MQTTBroker: "test.mosquitto.org"}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New(link, quiet()).Start(ctx, b.NewConnection("net"))
	expect(t, state, "link up", func(m *bus.Message) bool { return m.Payload.(types.NetState).Link == "up" })

	conn.Publish(conn.NewMessage(topicBeat, heartbeat.Beat{Seq: 7, Uptime: 70, Volts: 4.5}, false))
	deadline := time.Now().Add(time.Second)
	for {
		link.mu.Lock()
		got := append([]string(nil), link.publish...)
		link.mu.Unlock()
		if len(got) > 0 {
			want := `test.mosquitto.org tinyfx/telemetry {"seq":7,"uptime_s":70,"volts":4.500}`
			if got[0] != want {
				t.Fatalf("published %q", got[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("beat not forwarded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	link.mu.Lock()
	defer link.mu.Unlock()
	if link.gets != 0 {
		t.Fatalf("mode off made %d requests", link.gets)
	}
}

func TestConfigRejectsUnknownMode(t *testing.T) {
	s := New(&fakeLink{}, quiet())
	if err := s.configure(types.NetConfig{Mode: "disco"}); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err %v", err)
	}
	if err := s.configure(types.NetConfig{}); err != nil || s.cfg.Mode != ModeOff {
		t.Fatalf("empty mode: %v %q", err, s.cfg.Mode)
	}
}
