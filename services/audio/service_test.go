package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"tinyfx-go/audio"
	"tinyfx-go/bus"
	"tinyfx-go/types"
)

type amp struct{ on atomic.Bool }

func (a *amp) High() { a.on.Store(true) }
func (a *amp) Low()  { a.on.Store(false) }

// wav16 is a mono 16-bit file holding n silent samples at 44.1 kHz.
func wav16(n int) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	data := make([]byte, 2*n)
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+8+len(data)))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint32(44100))
	binary.Write(&b, le, uint32(88200))
	binary.Write(&b, le, uint16(2))
	binary.Write(&b, le, uint16(16))
	b.WriteString("data")
	binary.Write(&b, le, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

type harness struct {
	conn  *bus.Connection
	amp   *amp
	state *bus.Subscription
}

func start(t *testing.T, retained ...*bus.Message) *harness {
	t.Helper()
	b := bus.NewBus(32)
	h := &harness{conn: b.NewConnection("test"), amp: &amp{}}
	for _, m := range retained {
		h.conn.Publish(m)
	}
	fsys := fstest.MapFS{"chime.wav": {Data: wav16(2205)}}
	p := audio.NewPlayer(&audio.PacedDiscard{}, h.amp, fsys, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	New(p).Start(ctx, b.NewConnection("audio"))
	h.state = h.conn.Subscribe(topicState)
	return h
}

func (h *harness) request(t *testing.T, verb string, p any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := h.conn.RequestWait(ctx, h.conn.NewMessage(bus.T("audio", "control", verb), p, false))
	if err != nil {
		t.Fatal(err)
	}
	return reply.Payload
}

// waitState reads audio/state until cond holds.
func (h *harness) waitState(t *testing.T, what string, cond func(types.AudioState) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-h.state.Channel():
			if cond(m.Payload.(types.AudioState)) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func TestToneAndStop(t *testing.T) {
	h := start(t)
	if r := h.request(t, "tone", types.ToneRequest{FreqHz: 440, Amplitude: 0.5, Shapes: []string{"sine", "square"}}); r != (types.OKReply{OK: true}) {
		t.Fatalf("tone reply %#v", r)
	}
	h.waitState(t, "tone playing", func(s types.AudioState) bool { return s.Playing && s.Mode == "tone" })
	if !h.amp.on.Load() {
		t.Fatal("amp off while playing")
	}

	h.request(t, "pause", nil)
	h.waitState(t, "paused", func(s types.AudioState) bool { return s.Paused })
	h.request(t, "resume", nil)
	h.waitState(t, "resumed", func(s types.AudioState) bool { return s.Playing && !s.Paused })

	h.request(t, "stop", nil)
	h.waitState(t, "stopped", func(s types.AudioState) bool { return !s.Playing })
	if h.amp.on.Load() {
		t.Fatal("amp left on after stop")
	}
}

func TestWAVEndsAndReleasesAmp(t *testing.T) {
	h := start(t)
	if r := h.request(t, "wav", types.WavRequest{File: "chime.wav"}); r != (types.OKReply{OK: true}) {
		t.Fatalf("wav reply %#v", r)
	}
	h.waitState(t, "wav playing", func(s types.AudioState) bool { return s.Playing && s.Mode == "wav" })
	h.waitState(t, "wav finished", func(s types.AudioState) bool { return !s.Playing })
	if h.amp.on.Load() {
		t.Fatal("amp left on after the file ended")
	}
}

func TestControlErrors(t *testing.T) {
	h := start(t)
	cases := []struct {
		verb string
		p    any
		want string
	}{
		{"wav", types.WavRequest{File: "missing.wav"}, "not_found"},
		{"wav", types.WavRequest{}, "invalid_params"},
		{"tone", types.ToneRequest{FreqHz: 5, Amplitude: 0.5}, "out_of_range"},
		{"tone", types.ToneRequest{FreqHz: 440, Amplitude: 0.5, Shapes: []string{"saw"}}, "invalid_params"},
		{"rewind", nil, "unsupported"},
	}
	for _, tc := range cases {
		r, ok := h.request(t, tc.verb, tc.p).(types.ErrorReply)
		if !ok || r.Error != tc.want {
			t.Fatalf("%s %+v: reply %#v, want %s", tc.verb, tc.p, r, tc.want)
		}
	}
}

func TestBootToneFromConfig(t *testing.T) {
	cfg := &bus.Message{Topic: topicConfigAudio, Retained: true, Payload: map[string]any{
		"boot_tone":    map[string]any{"freq_hz": 880.0, "amplitude": 0.3},
		"boot_tone_ms": 300.0,
	}}
	h := start(t, cfg)
	h.waitState(t, "boot tone", func(s types.AudioState) bool { return s.Playing && s.Mode == "tone" })
	h.waitState(t, "boot tone end", func(s types.AudioState) bool { return !s.Playing })
}
