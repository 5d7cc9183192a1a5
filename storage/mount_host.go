//go:build !rp2040

package storage

import "tinyfx-go/errcode"

// Mount is only available on the board; hosts read files from a
// directory instead.
func Mount(size int64) (*FS, error) {
	return nil, &errcode.E{C: errcode.Unsupported, Op: "storage.Mount"}
}
