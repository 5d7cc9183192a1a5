package storage

import (
	"sync"

	"tinygo.org/x/tinyfs"

	"tinyfx-go/errcode"
)

var _ tinyfs.BlockDevice = (*MemDevice)(nil)

// MemDevice is a RAM-backed block device with NOR flash erase semantics:
// erased bytes read 0xFF. Used on hosts and in tests.
type MemDevice struct {
	mu         sync.Mutex
	data       []byte
	writeBlock int64
	eraseBlock int64
	erases     int
}

// NewMemDevice returns an erased device of size bytes.
func NewMemDevice(size, writeBlock, eraseBlock int64) *MemDevice {
	d := &MemDevice{data: make([]byte, size), writeBlock: writeBlock, eraseBlock: eraseBlock}
	for i := range d.data {
		d.data[i] = 0xFF
	}
	return d
}

func (d *MemDevice) ReadAt(buf []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return 0, &errcode.E{C: errcode.OutOfRange, Op: "storage.MemDevice.ReadAt"}
	}
	return copy(buf, d.data[off:]), nil
}

// WriteAt programs bytes; like NOR flash it can only clear bits.
func (d *MemDevice) WriteAt(buf []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return 0, &errcode.E{C: errcode.OutOfRange, Op: "storage.MemDevice.WriteAt"}
	}
	for i, b := range buf {
		d.data[off+int64(i)] &= b
	}
	return len(buf), nil
}

func (d *MemDevice) Size() int64           { return int64(len(d.data)) }
func (d *MemDevice) WriteBlockSize() int64 { return d.writeBlock }
func (d *MemDevice) EraseBlockSize() int64 { return d.eraseBlock }

func (d *MemDevice) EraseBlocks(start, n int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	lo, hi := start*d.eraseBlock, (start+n)*d.eraseBlock
	if start < 0 || n < 0 || hi > int64(len(d.data)) {
		return &errcode.E{C: errcode.OutOfRange, Op: "storage.MemDevice.EraseBlocks"}
	}
	for i := lo; i < hi; i++ {
		d.data[i] = 0xFF
	}
	d.erases += int(n)
	return nil
}

// Erases counts erased blocks since creation.
func (d *MemDevice) Erases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.erases
}
