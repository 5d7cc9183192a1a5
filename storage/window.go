// Package storage exposes the flash storage partition at the tail of
// flash and adapts the filesystem on it to io/fs.
package storage

import (
	"tinygo.org/x/tinyfs"

	"tinyfx-go/errcode"
)

var _ tinyfs.BlockDevice = (*Window)(nil)

// Window is a contiguous, erase-aligned region of a block device
// presented as a block device of its own.
type Window struct {
	dev  tinyfs.BlockDevice
	off  int64
	size int64
}

// NewTailWindow maps the last size bytes of dev.
func NewTailWindow(dev tinyfs.BlockDevice, size int64) (*Window, error) {
	return NewWindow(dev, dev.Size()-size, size)
}

// NewWindow maps [off, off+size) of dev. Both must be multiples of the
// erase block size.
func NewWindow(dev tinyfs.BlockDevice, off, size int64) (*Window, error) {
	ebs := dev.EraseBlockSize()
	switch {
	case size <= 0 || off < 0 || off+size > dev.Size():
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "storage.NewWindow", Msg: "window outside device"}
	case ebs <= 0 || off%ebs != 0 || size%ebs != 0:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "storage.NewWindow", Msg: "window not erase-block aligned"}
	}
	return &Window{dev: dev, off: off, size: size}, nil
}

func (w *Window) check(op string, off int64, n int) error {
	if off < 0 || off+int64(n) > w.size {
		return &errcode.E{C: errcode.OutOfRange, Op: op}
	}
	return nil
}

func (w *Window) ReadAt(buf []byte, off int64) (int, error) {
	if err := w.check("storage.ReadAt", off, len(buf)); err != nil {
		return 0, err
	}
	return w.dev.ReadAt(buf, w.off+off)
}

func (w *Window) WriteAt(buf []byte, off int64) (int, error) {
	if err := w.check("storage.WriteAt", off, len(buf)); err != nil {
		return 0, err
	}
	return w.dev.WriteAt(buf, w.off+off)
}

func (w *Window) Size() int64           { return w.size }
func (w *Window) Offset() int64         { return w.off }
func (w *Window) WriteBlockSize() int64 { return w.dev.WriteBlockSize() }
func (w *Window) EraseBlockSize() int64 { return w.dev.EraseBlockSize() }

// EraseBlocks erases n blocks starting at block start of the window.
func (w *Window) EraseBlocks(start, n int64) error {
	ebs := w.dev.EraseBlockSize()
	if start < 0 || n < 0 || (start+n)*ebs > w.size {
		return &errcode.E{C: errcode.OutOfRange, Op: "storage.EraseBlocks"}
	}
	return w.dev.EraseBlocks(w.off/ebs+start, n)
}
