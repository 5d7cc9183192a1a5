//go:build !rp2040

package main

import "tinyfx-go/tinyfx"

// Hosts run against the simulated board.
const bootDelay = 0

func newPlatform() tinyfx.Platform { return tinyfx.NewPlatform() }
