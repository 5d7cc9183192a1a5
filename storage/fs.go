package storage

import (
	"io"
	"io/fs"
	"os"

	"tinygo.org/x/tinyfs"

	"tinyfx-go/errcode"
)

// Filesystem is the part of tinyfs.Filesystem used by FS.
type Filesystem interface {
	Open(path string) (tinyfs.File, error)
	OpenFile(path string, flags int) (tinyfs.File, error)
	Stat(path string) (os.FileInfo, error)
	Remove(path string) error
}

// FS presents a tinyfs filesystem as an io/fs.FS. Opened files also
// implement io.Seeker when the underlying handle does.
type FS struct {
	fsys Filesystem
}

var (
	_ fs.FS     = (*FS)(nil)
	_ fs.StatFS = (*FS)(nil)
)

func NewFS(fsys Filesystem) *FS { return &FS{fsys: fsys} }

func abs(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + name
}

func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	h, err := f.fsys.Open(abs(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &file{fsys: f.fsys, name: name, h: h}, nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	fi, err := f.fsys.Stat(abs(name))
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return fi, nil
}

// WriteFile replaces name with data.
func (f *FS) WriteFile(name string, data []byte) error {
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	h, err := f.fsys.OpenFile(abs(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return errcode.Wrap(errcode.Error, "storage.WriteFile", err)
	}
	if _, err := h.Write(data); err != nil {
		h.Close()
		return errcode.Wrap(errcode.Error, "storage.WriteFile", err)
	}
	return h.Close()
}

// Remove deletes name.
func (f *FS) Remove(name string) error {
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	if err := f.fsys.Remove(abs(name)); err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	return nil
}

type file struct {
	fsys Filesystem
	name string
	h    tinyfs.File
}

var (
	_ fs.ReadDirFile = (*file)(nil)
	_ io.Seeker      = (*file)(nil)
)

func (f *file) Read(p []byte) (int, error) { return f.h.Read(p) }
func (f *file) Close() error               { return f.h.Close() }

func (f *file) Stat() (fs.FileInfo, error) {
	fi, err := f.fsys.Stat(abs(f.name))
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: f.name, Err: err}
	}
	return fi, nil
}

func (f *file) Seek(off int64, whence int) (int64, error) {
	s, ok := f.h.(io.Seeker)
	if !ok {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: errcode.Unsupported}
	}
	return s.Seek(off, whence)
}

func (f *file) ReadDir(n int) ([]fs.DirEntry, error) {
	if !f.h.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: errcode.Unsupported}
	}
	infos, err := f.h.Readdir(n)
	out := make([]fs.DirEntry, 0, len(infos))
	for _, fi := range infos {
		if n := fi.Name(); n == "." || n == ".." {
			continue
		}
		out = append(out, fs.FileInfoToDirEntry(fi))
	}
	return out, err
}
