// cmd/halmon prints every HAL message and a memory snapshot while
// toggling output one, for bring-up on a bare board.
package main

import (
	"context"
	"runtime"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/services/hal"
	"tinyfx-go/tinyfx"
	"tinyfx-go/types"
)

const togglePeriod = 500 * time.Millisecond

// monitor hands the topic of every message on sub to emit until the
// subscription closes.
func monitor(sub *bus.Subscription, emit func(topic string)) {
	for m := range sub.Channel() {
		emit(m.Topic.String())
	}
}

// halConfig polls the analogue inputs slowly so they show up in the log.
func halConfig(env bool) types.HALConfig {
	return types.HALConfig{
		VoltagePollMs: 2000,
		SensorPollMs:  2000,
		EnvSensor:     env,
		EnvPollMs:     5000,
	}
}

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	fx, err := tinyfx.New(tinyfx.NewPlatform(), tinyfx.DefaultOptions())
	if err != nil {
		println("[main] board init failed:", err.Error())
		return
	}

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)
	halConn := b.NewConnection("hal")
	uiConn := b.NewConnection("ui")

	println("[main] subscribing to hal/# for diagnostics …")
	go monitor(uiConn.Subscribe(bus.T("hal", "#")), func(t string) { println("[monitor] <-", t) })

	println("[main] starting hal.Run …")
	go hal.Run(ctx, halConn, fx)

	println("[main] publishing config/hal …")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "hal"), halConfig(fx.HasEnv()), true))

	time.Sleep(250 * time.Millisecond)

	info := hal.CtrlTopic("system", string(types.KindBoard), "tinyfx", "info")
	println("[main] requesting board info …")
	if reply, err := uiConn.RequestWait(ctx, uiConn.NewMessage(info, nil, false)); err != nil {
		println("[main] info error:", err.Error())
	} else if bi, ok := reply.Payload.(types.BoardInfo); ok {
		println("[main] board:", bi.Name, "storage:", bi.StorageBytes)
	}

	toggle := hal.CtrlTopic("io", string(types.KindPWM), hal.OutputNames[0], "toggle")
	for {
		if _, err := uiConn.RequestWait(ctx, uiConn.NewMessage(toggle, nil, false)); err != nil {
			println("[main] toggle error:", err.Error())
		}
		printMem()
		time.Sleep(togglePeriod)
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
