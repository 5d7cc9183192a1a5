// config/config_test.go
package config

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
)

func withLookup(t *testing.T, raw string) {
	t.Helper()
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "tinyfx" {
			return nil, false
		}
		return []byte(raw), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })
}

func collect(t *testing.T, sub *bus.Subscription, n int) map[string]any {
	t.Helper()
	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic.At(1).(string)
			if !ok || m.Topic.At(0) != configPrefix {
				t.Fatalf("unexpected topic: %v", m.Topic)
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != n {
		t.Fatalf("expected %d retained messages, got %d (%v)", n, len(got), got)
	}
	return got
}

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	withLookup(t, `{
		"mode": "dev",
		"debug": true,
		"heartbeat": {"interval": 2}
	}`)

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	ctx, cancel := context.WithCancel(WithDevice(context.Background(), "tinyfx"))
	defer cancel()
	NewConfigService(nil).Start(ctx, conn)

	got := collect(t, conn.Subscribe(bus.T(configPrefix, "+")), 3)
	if s, ok := got["mode"].(string); !ok || s != "dev" {
		t.Fatalf("mode payload = %#v", got["mode"])
	}
	if v, ok := got["debug"].(bool); !ok || !v {
		t.Fatalf("debug payload = %#v", got["debug"])
	}
	hb, ok := got["heartbeat"].(map[string]any)
	if !ok {
		t.Fatalf("heartbeat payload type = %T", got["heartbeat"])
	}
	if iv, ok := hb["interval"].(float64); !ok || iv != 2 {
		t.Fatalf("heartbeat.interval = %#v, want float64 2", hb["interval"])
	}
}

func TestConfig_OverrideFileWinsPerKey(t *testing.T) {
	withLookup(t, `{"fx": {"fps": 100}, "heartbeat": {"interval": 2}}`)
	fsys := fstest.MapFS{OverrideFile: {Data: []byte(`{"fx": {"fps": 30}, "extra": 1}`)}}

	m, err := NewConfigService(fsys).Load("tinyfx")
	if err != nil {
		t.Fatal(err)
	}
	if fps := m["fx"].(map[string]any)["fps"]; fps != 30.0 {
		t.Fatalf("fx.fps = %v, want override 30", fps)
	}
	if _, ok := m["heartbeat"]; !ok || m["extra"] != 1.0 {
		t.Fatalf("merge lost keys: %v", m)
	}
}

func TestConfig_BadOverrideIgnored(t *testing.T) {
	withLookup(t, `{"heartbeat": {"interval": 2}}`)
	fsys := fstest.MapFS{OverrideFile: {Data: []byte(`{"heartbeat": `)}}
	m, err := NewConfigService(fsys).Load("tinyfx")
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 1 {
		t.Fatalf("m = %v", m)
	}
}

func TestConfig_Reload(t *testing.T) {
	withLookup(t, `{"a": 1}`)
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	ctx, cancel := context.WithCancel(WithDevice(context.Background(), "tinyfx"))
	defer cancel()
	NewConfigService(nil).Start(ctx, conn)

	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	reply, err := conn.RequestWait(rctx, conn.NewMessage(bus.T(configPrefix, "control", "reload"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if ok := reply.Payload.(map[string]any)["ok"]; ok != true {
		t.Fatalf("reload reply %v", reply.Payload)
	}
}

func TestConfig_Errors(t *testing.T) {
	svc := NewConfigService(nil)
	if _, err := svc.Load(""); errcode.Of(err) != errcode.NoConfig {
		t.Fatalf("missing device err = %v", err)
	}
	withLookup(t, `[1,2]`)
	if _, err := svc.Load("unknown-device"); errcode.Of(err) != errcode.NoConfig {
		t.Fatalf("unknown device err = %v", err)
	}
	if _, err := svc.Load("tinyfx"); errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("non-object err = %v", err)
	}
}

func TestEmbeddedConfigsParse(t *testing.T) {
	for dev := range embeddedConfigs {
		m, err := NewConfigService(nil).Load(dev)
		if err != nil {
			t.Fatalf("%s: %v", dev, err)
		}
		for _, key := range []string{"hal", "fx", "heartbeat"} {
			if _, ok := m[key]; !ok {
				t.Fatalf("%s: missing %q", dev, key)
			}
		}
	}
}
