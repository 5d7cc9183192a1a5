package mono

import (
	"math/bits"

	"tinyfx-go/picofx"
)

// BinaryCounter adds Step to a counter every interval; each output shows
// one bit of it.
type BinaryCounter struct {
	iv      picofx.Interval
	start   int
	Counter int
	Step    int
}

func NewBinaryCounter(intervalS float64, count, step int) *BinaryCounter {
	return &BinaryCounter{iv: picofx.Interval{Seconds: intervalS}, start: count, Counter: count, Step: step}
}

// Bit returns the view showing bit n of the counter. Bits outside the
// counter are always off.
func (c *BinaryCounter) Bit(n int) picofx.Mono {
	return view{src: c, fn: func() float64 {
		if n < 0 || n >= bits.UintSize {
			return 0
		}
		if c.Counter&(1<<n) != 0 {
			return 1
		}
		return 0
	}}
}

func (c *BinaryCounter) Tick(deltaMs int) {
	if c.iv.Advance(deltaMs) {
		c.Counter += c.Step
	}
}

func (c *BinaryCounter) Reset() {
	c.iv.Reset()
	c.Counter = c.start
}
