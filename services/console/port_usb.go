//go:build rp2040 && !console_uart

package console

import (
	"context"
	"machine"
	"time"
)

// UsesQwST reports whether the console claims the Qw/ST pins.
const UsesQwST = false

type usbPort struct{}

// NewPort serves the console on USB CDC.
func NewPort() (Port, error) { return usbPort{}, nil }

func (usbPort) Write(p []byte) (int, error) { return machine.Serial.Write(p) }

func (usbPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
