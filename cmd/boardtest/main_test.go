package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"tinyfx-go/board"
	"tinyfx-go/bus"
	"tinyfx-go/services/hal"
	"tinyfx-go/tinyfx"
)

// syncBuf guards output written from the tester while the test reads it.
type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newRig(t *testing.T) (*tester, *tinyfx.Sim, *syncBuf, context.Context) {
	t.Helper()
	sim := tinyfx.NewSim(nil)
	fx, err := tinyfx.New(sim, tinyfx.Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b := bus.NewBus(16)
	go hal.Run(ctx, b.NewConnection("hal"), fx)

	out := &syncBuf{}
	tt := newTester(b.NewConnection("ui"), out, false)
	tt.stepDelay, tt.dwell = time.Millisecond, 10*time.Millisecond
	return tt, sim, out, ctx
}

func TestCyclePassesWithPolledValues(t *testing.T) {
	tt, sim, out, ctx := newRig(t)
	tt.watch(ctx)
	tt.configure()
	if !waitHALReady(tt.ui, time.Second) {
		t.Fatal("hal not ready")
	}

	if !tt.run(ctx, 1) {
		t.Fatalf("cycle failed:\n%s", out.String())
	}
	s := out.String()
	for _, want := range []string{"output up: one", "output down: six", "rgb: 0 0 255", "[PASS]"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
	for i := range board.OutPins {
		if d := sim.Duty(board.OutPins[i]); d != 0 {
			t.Fatalf("output %d left at duty %d", i+1, d)
		}
	}
}

func TestCycleFailsWithoutReadings(t *testing.T) {
	tt, _, out, ctx := newRig(t)
	tt.watch(ctx)
	if !waitHALLevel(tt.ui, "idle", time.Second) {
		t.Fatal("hal never started")
	}

	if tt.run(ctx, 1) {
		t.Fatal("cycle passed with no analogue values")
	}
	if s := out.String(); !strings.Contains(s, "[FAIL] missing or stale: [vsense sensor]") {
		t.Fatalf("unexpected output:\n%s", s)
	}
}
