//go:build !rp2040

package main

import "time"

// Hosts exercise the same sequence over an in-memory loopback.
func main() {
	if run(newLoopback(1024), time.Second) {
		println("[uart] all PASS")
	}
}
