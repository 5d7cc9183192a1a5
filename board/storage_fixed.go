//go:build storage_fixed

package board

// StorageBytes is fixed at 3MB regardless of the firmware reservation.
const StorageBytes = 3 * MiB

// FirmwareRegionBytes is what remains in front of the storage partition.
// It may be smaller than FirmwareSizeBytes.
const FirmwareRegionBytes = FlashSizeBytes - StorageBytes

const storageFixed = true
