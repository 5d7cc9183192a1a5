//go:build cyw43

package board

// Network builds need room for the radio firmware blob.
// 1536 * 1024 = 1.5MB
const FirmwareSizeBytes = 1536 * KiB

// CYW43 driver configuration.
const (
	CYW43UseSPI = 1
	CYW43LWIP   = 1
	CYW43GPIO   = 0
	CYW43SPIPIO = 1
)

const wireless = true

var radio = CYW43Config{
	UseSPI: CYW43UseSPI == 1,
	LWIP:   CYW43LWIP == 1,
	GPIO:   CYW43GPIO == 1,
	SPIPIO: CYW43SPIPIO == 1,
}
