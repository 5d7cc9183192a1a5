//go:build rp2040

package main

import (
	"time"

	"tinyfx-go/tinyfx"
)

const bootDelay = 2 * time.Second

func newPlatform() tinyfx.Platform { return tinyfx.NewMachine() }
