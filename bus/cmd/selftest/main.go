// cmd/selftest runs the bus checks on the board and reports on the RGB
// LED: solid green when all pass, blinking red otherwise.
package main

import (
	"strconv"
	"time"

	"tinyfx-go/tinyfx"
)

func main() {
	// Give the USB CDC time to enumerate so logs show up reliably.
	time.Sleep(250 * time.Millisecond)

	opts := tinyfx.DefaultOptions()
	opts.InitI2C = false
	fx, err := tinyfx.New(tinyfx.NewPlatform(), opts)
	if err != nil {
		println("[selftest] board init failed:", err.Error())
		return
	}
	rgb := fx.RGB()
	rgb.SetRGB(0, 0, 255) // running

	failed := runChecks(func(s string) { println(s) })
	println("== done: " + strconv.Itoa(len(checks)-failed) + " passed, " + strconv.Itoa(failed) + " failed ==")

	if failed == 0 {
		rgb.SetRGB(0, 255, 0)
		for {
			time.Sleep(2 * time.Second)
		}
	}
	for {
		rgb.SetRGB(255, 0, 0)
		time.Sleep(250 * time.Millisecond)
		rgb.SetRGB(0, 0, 0)
		time.Sleep(250 * time.Millisecond)
	}
}
