package board

import (
	"strconv"
	"strings"

	"tinyfx-go/errcode"
)

// XIP base of the RP2040 flash and the size of the second-stage bootloader
// that occupies the first page of the firmware region.
const (
	FlashBase  = 0x10000000
	Boot2Bytes = 256
	RAMBase    = 0x20000000
	RAMBytes   = 256 * KiB
)

// Layout partitions physical flash into a firmware region at the start and
// a filesystem region at the end.
type Layout struct {
	FlashBytes    uint32 `json:"flash_bytes"`
	FirmwareBytes uint32 `json:"firmware_bytes"`
	StorageBytes  uint32 `json:"storage_bytes"`
}

// NewLayout derives a layout. A zero fixedStorage gives the storage region
// everything the firmware does not reserve.
func NewLayout(flash, firmware, fixedStorage uint32) Layout {
	l := Layout{FlashBytes: flash, FirmwareBytes: firmware, StorageBytes: fixedStorage}
	if fixedStorage == 0 && flash > firmware {
		l.StorageBytes = flash - firmware
	}
	return l
}

// StorageFixed reports whether this build uses the fixed 3MB storage size.
func StorageFixed() bool { return storageFixed }

var (
	errNoFirmware = &errcode.E{C: errcode.InvalidLayout, Msg: "firmware region is empty"}
	errNoStorage  = &errcode.E{C: errcode.InvalidLayout, Msg: "storage region is empty"}
	errOverflow   = &errcode.E{C: errcode.InvalidLayout, Msg: "firmware + storage exceed flash"}
	errUnaligned  = &errcode.E{C: errcode.InvalidLayout, Msg: "partition not aligned to flash sector"}
)

// SectorBytes is the erase granularity of the QSPI flash.
const SectorBytes = 4 * KiB

// Validate checks that both partitions are present, sector aligned and fit
// the physical flash.
func (l Layout) Validate() error {
	switch {
	case l.FirmwareBytes <= Boot2Bytes:
		return errNoFirmware
	case l.StorageBytes == 0:
		return errNoStorage
	case uint64(l.FirmwareBytes)+uint64(l.StorageBytes) > uint64(l.FlashBytes):
		return errOverflow
	case l.FirmwareBytes%SectorBytes != 0 || l.StorageBytes%SectorBytes != 0:
		return errUnaligned
	}
	return nil
}

// StorageOffset is the byte offset of the storage region from the start of
// flash. Storage always sits at the tail.
func (l Layout) StorageOffset() uint32 { return l.FlashBytes - l.StorageBytes }

// Gap is flash that belongs to neither partition.
func (l Layout) Gap() uint32 { return l.StorageOffset() - l.FirmwareBytes }

// LinkerScript renders the MEMORY block and storage symbols consumed by the
// linker when building the firmware image.
func (l Layout) LinkerScript() string {
	var b strings.Builder
	b.WriteString("/* ")
	b.WriteString(Name())
	b.WriteString(" flash layout */\n")
	b.WriteString("MEMORY\n{\n")
	line(&b, "BOOT2_TEXT (rx)", FlashBase, Boot2Bytes)
	line(&b, "FLASH_TEXT (rx)", FlashBase+Boot2Bytes, l.FirmwareBytes-Boot2Bytes)
	line(&b, "RAM (rwx)", RAMBase, RAMBytes)
	b.WriteString("}\n\n")
	b.WriteString("__flash_storage_start = ")
	b.WriteString(hex(FlashBase + l.StorageOffset()))
	b.WriteString(";\n__flash_storage_size = ")
	b.WriteString(hex(l.StorageBytes))
	b.WriteString(";\n")
	return b.String()
}

func line(b *strings.Builder, region string, origin, length uint32) {
	b.WriteString("    ")
	b.WriteString(region)
	for i := len(region); i < 16; i++ {
		b.WriteByte(' ')
	}
	b.WriteString(": ORIGIN = ")
	b.WriteString(hex(origin))
	b.WriteString(", LENGTH = ")
	b.WriteString(hex(length))
	b.WriteByte('\n')
}

func hex(v uint32) string { return "0x" + strconv.FormatUint(uint64(v), 16) }
