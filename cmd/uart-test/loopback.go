package main

import (
	"bytes"
	"context"
	"io"
	"time"
)

// Port is a serial port looped back onto itself.
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// sendReceiveExact writes msg and waits for it to come back.
func sendReceiveExact(p Port, msg []byte, timeout time.Duration) bool {
	if _, err := p.Write(msg); err != nil {
		println("[uart] smoke: write error:", err.Error())
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf := make([]byte, 0, 4*len(msg))
	tmp := make([]byte, 128)
	for {
		if bytes.Contains(buf, msg) {
			return true
		}
		n, err := p.RecvSomeContext(ctx, tmp)
		if err != nil {
			println("[uart] smoke: not found; got bytes=", len(buf))
			return false
		}
		buf = append(buf, tmp[:n]...)
		if len(buf) > 4*len(msg) {
			// keep only the tail
			buf = append(buf[:0], buf[len(buf)-len(msg):]...)
		}
	}
}

const (
	fnvOffset = uint32(2166136261)
	fnvPrime  = uint32(16777619)
)

func fnv1a(h uint32, b []byte) uint32 {
	for _, c := range b {
		h ^= uint32(c)
		h *= fnvPrime
	}
	return h
}

// integrityTest streams a deterministic pattern and compares FNV-1a
// hashes of what was written and what came back.
func integrityTest(p Port, totalBytes, chunk int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type result struct {
		n    int
		hash uint32
	}
	rxDone := make(chan result, 1)
	go func() {
		r := result{hash: fnvOffset}
		tmp := make([]byte, 128)
		for r.n < totalBytes {
			n, err := p.RecvSomeContext(ctx, tmp)
			if err != nil {
				break
			}
			r.hash = fnv1a(r.hash, tmp[:n])
			r.n += n
		}
		rxDone <- r
	}()

	gen := patternGenerator(0xA5)
	out := make([]byte, chunk)
	txHash, written := fnvOffset, 0
	for written < totalBytes && ctx.Err() == nil {
		k := min(chunk, totalBytes-written)
		fillPattern(out[:k], &gen)
		n, err := p.Write(out[:k])
		txHash = fnv1a(txHash, out[:n])
		written += n
		if err != nil {
			break
		}
	}
	rx := <-rxDone

	println("[uart] integrity: written=", written, " received=", rx.n)
	println("[uart] integrity: txHash=", txHash, " rxHash=", rx.hash)
	return written == totalBytes && rx.n == totalBytes && txHash == rx.hash
}

// throughput writes for duration while draining, and reports bytes/s.
func throughput(p Port, duration time.Duration, chunk int) (txBps, rxBps int64) {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	gen := patternGenerator(0x42)
	out := make([]byte, chunk)
	fillPattern(out, &gen)

	start := time.Now()
	doneR := make(chan int, 1)
	go func() {
		in := make([]byte, 256)
		got := 0
		// Grace period lets bytes in flight arrive.
		rctx, rcancel := context.WithTimeout(context.Background(), duration+300*time.Millisecond)
		defer rcancel()
		for {
			n, err := p.RecvSomeContext(rctx, in)
			if err != nil {
				doneR <- got
				return
			}
			got += n
		}
	}()

	written := 0
	for ctx.Err() == nil {
		out[0] ^= gen.next()
		n, err := p.Write(out)
		written += n
		if err != nil {
			break
		}
	}
	received := <-doneR

	elapsed := max(time.Since(start), time.Nanosecond)
	txBps = int64(written) * int64(time.Second) / int64(elapsed)
	rxBps = int64(received) * int64(time.Second) / int64(elapsed)
	return txBps, rxBps
}

// run executes the smoke, integrity and throughput tests on p.
func run(p Port, d time.Duration) bool {
	ok := true

	println("[uart] smoke: send 'hello-uart' and verify")
	if sendReceiveExact(p, []byte("hello-uart"), 3*time.Second) {
		println("[uart] smoke: PASS")
	} else {
		println("[uart] smoke: FAIL")
		ok = false
	}

	println("[uart] integrity: 4096 bytes, chunk 64")
	if integrityTest(p, 4096, 64, 5*time.Second) {
		println("[uart] integrity: PASS")
	} else {
		println("[uart] integrity: FAIL")
		ok = false
	}

	println("[uart] throughput: chunk 256, concurrent R/W")
	tx, rx := throughput(p, d, 256)
	println("[uart] throughput: TX ~", tx, " B/s, RX ~", rx, " B/s")
	return ok
}

// Simple deterministic pattern generator (xorshift8 over byte).
type patGen struct{ s byte }

func patternGenerator(seed byte) patGen { return patGen{s: seed} }
func (g *patGen) next() byte {
	x := g.s
	x ^= x << 3
	x ^= x >> 5
	x ^= x << 1
	g.s = x
	return x
}
func fillPattern(dst []byte, g *patGen) {
	for i := 0; i < len(dst); i++ {
		dst[i] = g.next()
	}
}
