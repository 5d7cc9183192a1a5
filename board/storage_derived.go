//go:build !storage_fixed

package board

// StorageBytes is whatever flash the firmware does not reserve.
const StorageBytes = FlashSizeBytes - FirmwareSizeBytes

// FirmwareRegionBytes is the flash given to the firmware image.
const FirmwareRegionBytes = FirmwareSizeBytes

const storageFixed = false
