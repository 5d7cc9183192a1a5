// cmd/boardtest/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/services/hal"
	"tinyfx-go/tinyfx"
	"tinyfx-go/types"
)

// ---------- Configuration ----------

const (
	bootDelay       = 2 * time.Second
	halReadyTimeout = 5 * time.Second
	requestTimeout  = time.Second

	// Sequencing timing
	stepDelay = 300 * time.Millisecond
	dwell     = 2 * time.Second

	// Freshness
	freshMaxAge = 2 * time.Second
	pollMs      = 500

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

// ---------- Topics ----------

func tOutputSet(name string) bus.Topic {
	return hal.CtrlTopic("io", string(types.KindPWM), name, "set")
}
func tRGBSet() bus.Topic    { return hal.CtrlTopic("io", string(types.KindRGB), "rgb", "set_rgb") }
func tHalState() bus.Topic  { return bus.T("hal", "state") }
func tConfigHAL() bus.Topic { return bus.T("config", "hal") }

var (
	tVSenseVal = bus.T("hal", "cap", "power", string(types.KindVoltage), "vsense", "value")
	tSensorVal = bus.T("hal", "cap", "io", string(types.KindVoltage), "sensor", "value")
	tTempVal   = bus.T("hal", "cap", "env", string(types.KindTemperature), "qwst", "value")
	tHumVal    = bus.T("hal", "cap", "env", string(types.KindHumidity), "qwst", "value")
)

var primaries = [][3]int{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}}

// ---------- Tester ----------

type tester struct {
	ui  *bus.Connection
	out io.Writer
	env bool

	stepDelay, dwell time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func newTester(ui *bus.Connection, out io.Writer, env bool) *tester {
	return &tester{
		ui: ui, out: out, env: env,
		stepDelay: stepDelay, dwell: dwell,
		seen: make(map[string]time.Time),
	}
}

func (t *tester) println(a ...any) { fmt.Fprintln(t.out, a...) }

func waitHALReady(c *bus.Connection, d time.Duration) bool {
	return waitHALLevel(c, "ready", d)
}

func waitHALLevel(c *bus.Connection, level string, d time.Duration) bool {
	sub := c.Subscribe(tHalState())
	defer c.Unsubscribe(sub)

	dead := time.After(d)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == level {
				return true
			}
		case <-dead:
			return false
		}
	}
}

// configure asks the HAL to poll every analogue source.
func (t *tester) configure() {
	t.ui.Publish(t.ui.NewMessage(tConfigHAL(), types.HALConfig{
		VoltagePollMs: pollMs,
		SensorPollMs:  pollMs,
		EnvSensor:     t.env,
		EnvPollMs:     2 * pollMs,
	}, true))
}

// watch records value arrivals until ctx ends.
func (t *tester) watch(ctx context.Context) {
	subs := map[string]*bus.Subscription{
		"vsense": t.ui.Subscribe(tVSenseVal),
		"sensor": t.ui.Subscribe(tSensorVal),
	}
	if t.env {
		subs["temperature"] = t.ui.Subscribe(tTempVal)
		subs["humidity"] = t.ui.Subscribe(tHumVal)
	}
	for name, sub := range subs {
		go func(name string, sub *bus.Subscription) {
			defer t.ui.Unsubscribe(sub)
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-sub.Channel():
					if !ok {
						return
					}
					t.mu.Lock()
					t.seen[name] = time.Now()
					t.mu.Unlock()
				}
			}
		}(name, sub)
	}
}

func (t *tester) request(ctx context.Context, topic bus.Topic, p any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	reply, err := t.ui.RequestWait(ctx, t.ui.NewMessage(topic, p, false))
	if err != nil {
		return err
	}
	if e, ok := reply.Payload.(types.ErrorReply); ok {
		return fmt.Errorf("%s: %s", topic, e.Error)
	}
	return nil
}

func (t *tester) setOutput(ctx context.Context, name string, b float32) error {
	return t.request(ctx, tOutputSet(name), types.OutputSet{Brightness: b})
}

func (t *tester) setRGB(ctx context.Context, c [3]int) error {
	return t.request(ctx, tRGBSet(), types.RGBSet{R: c[0], G: c[1], B: c[2]})
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// cycle sequences the outputs and RGB, then checks the analogue
// readings are fresh. It returns what failed.
func (t *tester) cycle(ctx context.Context) []string {
	var fail []string
	note := func(err error) {
		if err != nil {
			t.println("error:", err)
			fail = append(fail, err.Error())
		}
	}

	// Sequence UP (one to six)
	for _, name := range hal.OutputNames {
		note(t.setOutput(ctx, name, 1))
		t.println("output up:", name)
		sleep(ctx, t.stepDelay)
	}
	sleep(ctx, t.dwell)

	// Sequence DOWN (six to one)
	for i := len(hal.OutputNames) - 1; i >= 0; i-- {
		name := hal.OutputNames[i]
		note(t.setOutput(ctx, name, 0))
		t.println("output down:", name)
		sleep(ctx, t.stepDelay)
	}

	for _, c := range primaries {
		note(t.setRGB(ctx, c))
		t.println("rgb:", c[0], c[1], c[2])
		sleep(ctx, t.stepDelay)
	}
	note(t.setRGB(ctx, [3]int{}))
	sleep(ctx, t.dwell)

	// Assess freshness
	names := []string{"vsense", "sensor"}
	if t.env {
		names = append(names, "temperature", "humidity")
	}
	now := time.Now()
	t.mu.Lock()
	for _, n := range names {
		if ts := t.seen[n]; ts.IsZero() || now.Sub(ts) > freshMaxAge {
			fail = append(fail, n)
		}
	}
	t.mu.Unlock()
	return fail
}

func (t *tester) flashPassFail(ctx context.Context, pass bool) {
	if pass {
		// Double short green
		for i := 0; i < 2; i++ {
			_ = t.setRGB(ctx, [3]int{0, 255, 0})
			sleep(ctx, t.stepDelay/2)
			_ = t.setRGB(ctx, [3]int{})
			sleep(ctx, t.stepDelay)
		}
		return
	}
	// Single long red
	_ = t.setRGB(ctx, [3]int{255, 0, 0})
	sleep(ctx, 2*t.stepDelay)
	_ = t.setRGB(ctx, [3]int{})
	sleep(ctx, t.stepDelay)
}

// run executes cycles (0 = forever) and reports whether the last passed.
func (t *tester) run(ctx context.Context, cycles int) bool {
	pass := false
	for n := 1; cycles == 0 || n <= cycles; n++ {
		if ctx.Err() != nil {
			return false
		}
		t.println("=== boardtest: cycle", n, "===")
		miss := t.cycle(ctx)
		pass = len(miss) == 0
		if pass {
			t.println("[PASS] outputs and rgb sequenced; analogue values observed recently")
		} else {
			t.println("[FAIL] missing or stale:", fmt.Sprintf("%v", miss))
		}
		t.flashPassFail(ctx, pass)
	}
	return pass
}

// ---------- Main ----------

func main() {
	time.Sleep(bootDelay)
	ctx := context.Background()

	opts := tinyfx.DefaultOptions()
	fx, err := tinyfx.New(tinyfx.NewPlatform(), opts)
	if err != nil {
		println("[boardtest] board init failed:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}

	b := bus.NewBus(8)
	ui := b.NewConnection("ui")
	go hal.Run(ctx, b.NewConnection("hal"), fx)

	t := newTester(ui, os.Stdout, fx.HasEnv())
	t.watch(ctx)
	t.configure()
	if !waitHALReady(ui, halReadyTimeout) {
		println("[boardtest] HAL not ready within timeout; continuing")
	}

	t.run(ctx, cyclesToRun)
	t.println("completed; halting")
	for {
		time.Sleep(time.Hour)
	}
}
