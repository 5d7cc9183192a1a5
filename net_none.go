//go:build !(cyw43 && rp2040)

package main

import (
	"context"

	"tinyfx-go/bus"
)

func startNet(context.Context, *bus.Connection) {}
