//go:build !cyw43

package board

// FirmwareSizeBytes reserves 1MB for the firmware image.
const FirmwareSizeBytes = 1 * MiB

const wireless = false

var radio CYW43Config
