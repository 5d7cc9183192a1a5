//go:build !rp2040

package console

import (
	"context"
	"os"
)

// UsesQwST reports whether the console claims the Qw/ST pins.
const UsesQwST = false

// stdioPort reads stdin on its own goroutine so reads can honour ctx.
type stdioPort struct {
	in      chan []byte
	pending []byte
}

// NewPort serves the console on stdin and stdout.
func NewPort() (Port, error) {
	p := &stdioPort{in: make(chan []byte, 4)}
	go func() {
		defer close(p.in)
		for {
			buf := make([]byte, 256)
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				p.in <- buf[:n]
			}
			if err != nil {
				return
			}
		}
	}()
	return p, nil
}

func (p *stdioPort) Write(b []byte) (int, error) { return os.Stdout.Write(b) }

func (p *stdioPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(buf, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b, ok := <-p.in:
		if !ok {
			return 0, os.ErrClosed
		}
		n := copy(buf, b)
		p.pending = b[n:]
		return n, nil
	}
}
