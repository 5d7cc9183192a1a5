//go:build rp2040

package audio

import (
	"machine"

	"tinyfx-go/audio"
	"tinyfx-go/board"
)

// NewOutput claims the PIO I2S transmitter wired to the amplifier.
func NewOutput() (audio.Output, error) {
	return audio.NewI2SOutput(machine.Pin(board.I2SDataPin), machine.Pin(board.I2SBClkPin))
}
