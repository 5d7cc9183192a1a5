//go:build rp2040

package storage

import (
	"machine"

	"tinygo.org/x/tinyfs/littlefs"

	"tinyfx-go/errcode"
)

// Mount mounts littlefs on the last size bytes of the on-board flash,
// formatting the partition when no filesystem is found.
func Mount(size int64) (*FS, error) {
	w, err := NewTailWindow(machine.Flash, size)
	if err != nil {
		return nil, err
	}
	lfs := littlefs.New(w)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})
	if err := lfs.Mount(); err != nil {
		println("[storage] no filesystem, formatting", size, "bytes")
		if err := lfs.Format(); err != nil {
			return nil, errcode.Wrap(errcode.Error, "storage.Mount", err)
		}
		if err := lfs.Mount(); err != nil {
			return nil, errcode.Wrap(errcode.Error, "storage.Mount", err)
		}
	}
	println("[storage] mounted", size, "bytes at flash offset", w.Offset())
	return NewFS(lfs), nil
}
