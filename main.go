package main

import (
	"context"
	"io/fs"
	"time"

	"tinyfx-go/audio"
	"tinyfx-go/board"
	"tinyfx-go/bus"
	audiosvc "tinyfx-go/services/audio"
	"tinyfx-go/services/config"
	"tinyfx-go/services/console"
	"tinyfx-go/services/fx"
	"tinyfx-go/services/hal"
	"tinyfx-go/services/heartbeat"
	"tinyfx-go/storage"
	"tinyfx-go/tinyfx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(bootDelay)
	println("[main] booting", board.Name())
	if err := board.Check(); err != nil {
		println("[main] flash layout:", err.Error())
	}

	device := "tinyfx"
	if board.Wireless() {
		device = "tinyfx_w"
	}
	ctx := config.WithDevice(context.Background(), device)

	opts := tinyfx.DefaultOptions()
	opts.InitI2C = !console.UsesQwST
	opts.EnvSensor = opts.InitI2C
	tiny, err := tinyfx.New(newPlatform(), opts)
	if err != nil {
		println("[main] board init failed:", err.Error())
		halt()
	}

	var fsys fs.FS
	if st, err := storage.Mount(int64(board.StorageBytes)); err != nil {
		println("[main] storage unavailable:", err.Error())
	} else {
		fsys = st
	}

	b := bus.NewBus(8)
	go hal.Run(ctx, b.NewConnection("hal"), tiny)
	config.NewConfigService(fsys).Start(ctx, b.NewConnection("config"))
	fx.New(tiny).Start(ctx, b.NewConnection("fx"))

	if out, err := audiosvc.NewOutput(); err != nil {
		println("[main] audio unavailable:", err.Error())
	} else {
		player := audio.NewPlayer(out, tiny.Amp(), fsys, board.I2SInternalBufferBytes)
		audiosvc.New(player).Start(ctx, b.NewConnection("audio"))
	}

	(&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))
	startNet(ctx, b.NewConnection("net"))

	port, err := console.NewPort()
	if err != nil {
		println("[main] console unavailable:", err.Error())
		halt()
	}
	con := console.New(b.NewConnection("console"), fsys)
	for {
		if err := con.Serve(ctx, port); err != nil {
			println("[main] console:", err.Error())
			time.Sleep(time.Second)
		}
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
