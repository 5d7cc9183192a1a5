//go:build rp2040 && console_uart

package console

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"tinyfx-go/board"
)

// UsesQwST reports whether the console claims the Qw/ST pins.
const UsesQwST = true

const baudRate = 115200

// NewPort serves the console on UART0 routed to the Qw/ST connector
// (TX on SDA, RX on SCL).
func NewPort() (Port, error) {
	err := uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: baudRate,
		TX:       machine.Pin(board.I2CSDAPin),
		RX:       machine.Pin(board.I2CSCLPin),
	})
	if err != nil {
		return nil, err
	}
	return uartx.UART0, nil
}
