package types

// BoardInfo is published retained under hal/cap/system/board/tinyfx/info.
type BoardInfo struct {
	Name          string `json:"name"`
	FlashBytes    uint32 `json:"flash_bytes"`
	FirmwareBytes uint32 `json:"firmware_bytes"`
	StorageBytes  uint32 `json:"storage_bytes"`
	StorageFixed  bool   `json:"storage_fixed"`
	Wireless      bool   `json:"wireless"`
	CYW43UseSPI   bool   `json:"cyw43_use_spi,omitempty"`
	CYW43LWIP     bool   `json:"cyw43_lwip,omitempty"`
	CYW43GPIO     bool   `json:"cyw43_gpio,omitempty"`
	CYW43SPIPIO   bool   `json:"cyw43_spi_pio,omitempty"`
}
