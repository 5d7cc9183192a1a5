package audio

import (
	"sync"
	"time"
)

// bytesPerSecond of a stream, for pacing.
func (c StreamConfig) bytesPerSecond() int {
	ch := 1
	if c.Format == Stereo {
		ch = 2
	}
	return int(c.SampleRate) * ch * c.BitsPerSample / 8
}

// Duration is the play time of n bytes of samples.
func (c StreamConfig) Duration(n int) time.Duration {
	bps := c.bytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// PacedDiscard is an Output that drops samples at the rate real hardware
// would consume them. Used on hosts without audio.
type PacedDiscard struct {
	mu      sync.Mutex
	cfg     StreamConfig
	written int
}

func (d *PacedDiscard) Configure(cfg StreamConfig) error {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

func (d *PacedDiscard) Write(p []byte) (int, error) {
	d.mu.Lock()
	cfg := d.cfg
	d.written += len(p)
	d.mu.Unlock()
	time.Sleep(cfg.Duration(len(p)))
	return len(p), nil
}

func (d *PacedDiscard) Stop() error { return nil }

// Written is the total number of bytes accepted.
func (d *PacedDiscard) Written() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}
