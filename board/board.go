// Package board holds the build-time configuration of the Pimoroni TinyFX:
// flash partitioning, radio driver flags and the pin map.
//
// Variants are selected with build tags:
//
//	cyw43          wireless build (TinyFX W), reserves 1.5MB for firmware
//	storage_fixed  storage partition fixed at 3MB instead of derived
package board

import "tinyfx-go/errcode"

const defaultName = "Pimoroni TinyFX"

// name may be set at link time:
//
//	tinygo build -ldflags "-X tinyfx-go/board.name=My TinyFX" ...
var name string

// Name returns the board identifier.
func Name() string {
	if name == "" {
		return defaultName
	}
	return name
}

const (
	KiB = 1024
	MiB = 1024 * KiB

	// FlashSizeBytes is the physical QSPI flash fitted to the board.
	FlashSizeBytes = 4 * MiB
)

// Partitions must fit the physical flash. A violation makes this array
// length negative and the build fails.
var _ [FlashSizeBytes - FirmwareRegionBytes - StorageBytes]struct{}

// CYW43Config is a runtime view of the radio driver flags.
type CYW43Config struct {
	UseSPI bool // SPI transport (as opposed to SDIO)
	LWIP   bool // network stack included
	GPIO   bool // radio GPIO driver mode
	SPIPIO bool // SPI implemented on PIO
}

// Radio returns the CYW43 driver configuration and whether the build
// includes the radio at all.
func Radio() (CYW43Config, bool) { return radio, wireless }

// Wireless reports whether this is a CYW43 build.
func Wireless() bool { return wireless }

// Current returns the resolved flash layout for this build.
func Current() Layout {
	return Layout{
		FlashBytes:    FlashSizeBytes,
		FirmwareBytes: FirmwareRegionBytes,
		StorageBytes:  StorageBytes,
	}
}

// Check validates the layout compiled into this build.
func Check() error {
	if err := Current().Validate(); err != nil {
		return &errcode.E{C: errcode.InvalidLayout, Op: "board.Check", Msg: Name(), Err: err}
	}
	return nil
}
