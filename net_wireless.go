//go:build cyw43 && rp2040

package main

import (
	"context"
	"log/slog"
	"machine"

	"tinyfx-go/bus"
	netsvc "tinyfx-go/services/net"
)

func startNet(ctx context.Context, conn *bus.Connection) {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	netsvc.New(netsvc.NewRadio(logger), logger).Start(ctx, conn)
}
