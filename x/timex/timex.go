package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// FramePeriod returns the whole-millisecond frame period for fps, the way
// the effect players schedule ticks. fps<=0 yields 0.
func FramePeriod(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(1000/fps) * time.Millisecond
}

// Ms converts a millisecond count to a Duration.
func Ms[T ~int | ~uint32 | ~int64](ms T) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ResetTimer stops, drains and re-arms t. Negative d fires immediately.
func ResetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		DrainTimer(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

// DrainTimer empties t.C without blocking.
func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
