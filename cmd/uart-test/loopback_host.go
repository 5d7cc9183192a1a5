//go:build !rp2040

package main

import "context"

// loopback is a bounded FIFO standing in for a jumpered UART.
type loopback struct{ ch chan byte }

func newLoopback(fifo int) *loopback { return &loopback{ch: make(chan byte, fifo)} }

func (l *loopback) Write(b []byte) (int, error) {
	for _, c := range b {
		l.ch <- c
	}
	return len(b), nil
}

// RecvSomeContext blocks for one byte, then takes whatever else is queued.
func (l *loopback) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case buf[0] = <-l.ch:
	}
	n := 1
	for n < len(buf) {
		select {
		case buf[n] = <-l.ch:
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}
