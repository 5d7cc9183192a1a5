package ramp

import (
	"time"

	"tinyfx-go/x/mathx"
)

// Step sets the new level in [0..1].
type Step func(level float32)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// StartLinear runs a synchronous (caller-driven) ramp from cur to to.
// Call it from a goroutine and provide Tick to handle timing & cancellation.
// steps==0 or durationMs==0 snaps to 'to'.
func StartLinear(cur, to float32, durationMs uint32, steps uint16, tick Tick, set Step) {
	to = mathx.Unit(to)
	if steps == 0 || durationMs == 0 {
		set(to)
		return
	}
	cur = mathx.Unit(cur)
	stepDurMs := durationMs / uint32(steps)
	if stepDurMs == 0 {
		stepDurMs = 1
	}
	stepDur := time.Duration(stepDurMs) * time.Millisecond
	d := (to - cur) / float32(steps)

	for i := uint16(1); i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		set(mathx.Unit(cur + d*float32(i)))
	}
	if !tick(stepDur) {
		return
	}
	set(to)
}
