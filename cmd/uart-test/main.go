//go:build rp2040

// cmd/uart-test checks UART0 on the Qw/ST connector with SDA (TX)
// jumpered to SCL (RX).
package main

import (
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"tinyfx-go/board"
)

func main() {
	println("[uart] boot …")
	time.Sleep(1500 * time.Millisecond)

	err := uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.Pin(board.I2CSDAPin),
		RX:       machine.Pin(board.I2CSCLPin),
	})
	if err != nil {
		println("[uart] FAIL: configure:", err.Error())
		return
	}
	if run(uartx.UART0, 5*time.Second) {
		println("[uart] all PASS")
	}
	for {
		time.Sleep(time.Hour)
	}
}
