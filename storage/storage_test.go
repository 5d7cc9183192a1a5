package storage

import (
	"bytes"
	"testing"

	"tinyfx-go/errcode"
)

const (
	kib = 1024
	mib = 1024 * kib
)

func TestTailWindow_MapsEnd(t *testing.T) {
	dev := NewMemDevice(4*mib, 256, 4*kib)
	w, err := NewTailWindow(dev, 3*mib)
	if err != nil {
		t.Fatal(err)
	}
	if w.Size() != 3*mib || w.Offset() != 1*mib {
		t.Fatalf("size=%d offset=%d", w.Size(), w.Offset())
	}
	if w.EraseBlockSize() != 4*kib || w.WriteBlockSize() != 256 {
		t.Fatalf("block sizes not forwarded")
	}

	if _, err := w.WriteAt([]byte{1, 2, 3}, 0); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 3)
	if _, err := dev.ReadAt(got, 1*mib); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("window write landed elsewhere: %v", got)
	}
}

func TestWindow_Rejects(t *testing.T) {
	dev := NewMemDevice(1*mib, 256, 4*kib)
	cases := []struct {
		name      string
		off, size int64
		want      errcode.Code
	}{
		{"too large", 0, 2 * mib, errcode.OutOfRange},
		{"zero", 0, 0, errcode.OutOfRange},
		{"negative", -4 * kib, 8 * kib, errcode.OutOfRange},
		{"unaligned offset", 100, 8 * kib, errcode.InvalidParams},
		{"unaligned size", 0, 5 * kib, errcode.InvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWindow(dev, tc.off, tc.size)
			if errcode.Of(err) != tc.want {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestWindow_BoundsChecked(t *testing.T) {
	dev := NewMemDevice(64*kib, 256, 4*kib)
	w, err := NewTailWindow(dev, 8*kib)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	if _, err := w.ReadAt(buf, 8*kib-8); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("read past end: %v", err)
	}
	if _, err := w.WriteAt(buf, -1); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("write before start: %v", err)
	}
	if err := w.EraseBlocks(1, 2); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("erase past end: %v", err)
	}
}

func TestWindow_EraseTranslatesBlocks(t *testing.T) {
	dev := NewMemDevice(64*kib, 256, 4*kib)
	w, err := NewTailWindow(dev, 8*kib)
	if err != nil {
		t.Fatal(err)
	}
	// Dirty the byte just before the window and the window's second block.
	dev.WriteAt([]byte{0}, 56*kib-1)
	w.WriteAt([]byte{0}, 4*kib)

	if err := w.EraseBlocks(1, 1); err != nil {
		t.Fatal(err)
	}
	b := make([]byte, 1)
	w.ReadAt(b, 4*kib)
	if b[0] != 0xFF {
		t.Fatalf("window block not erased")
	}
	dev.ReadAt(b, 56*kib-1)
	if b[0] != 0 {
		t.Fatalf("erase leaked outside the window")
	}
	if dev.Erases() != 1 {
		t.Fatalf("erases = %d", dev.Erases())
	}
}

func TestMemDevice_ProgramClearsBitsOnly(t *testing.T) {
	dev := NewMemDevice(4*kib, 1, 4*kib)
	dev.WriteAt([]byte{0xF0}, 0)
	dev.WriteAt([]byte{0x3C}, 0)
	b := make([]byte, 1)
	dev.ReadAt(b, 0)
	if b[0] != 0x30 {
		t.Fatalf("got %#x, want 0x30", b[0])
	}
}

func TestFS_InvalidPaths(t *testing.T) {
	f := NewFS(nil)
	for _, name := range []string{"/abs", "../up", "a//b"} {
		if _, err := f.Open(name); err == nil {
			t.Fatalf("Open(%q) accepted", name)
		}
	}
	if err := f.WriteFile(".", nil); err == nil {
		t.Fatal("WriteFile(.) accepted")
	}
}

func TestHostMountUnsupported(t *testing.T) {
	if _, err := Mount(mib); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("err = %v", err)
	}
}
