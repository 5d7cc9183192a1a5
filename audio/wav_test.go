package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"tinyfx-go/errcode"
)

// makeWAV builds a canonical header, optionally with a junk chunk before
// "data" as some converters emit.
func makeWAV(channels uint16, rate uint32, bits uint16, junk int, data []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+junk+8+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, channels)
	binary.Write(&b, le, rate)
	binary.Write(&b, le, rate*uint32(channels)*uint32(bits)/8)
	binary.Write(&b, le, channels*bits/8)
	binary.Write(&b, le, bits)
	if junk > 0 {
		b.WriteString("LIST")
		binary.Write(&b, le, uint32(junk-8))
		b.Write(make([]byte, junk-8))
	}
	b.WriteString("data")
	binary.Write(&b, le, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func TestParseWAV(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	w, err := ParseWAV(bytes.NewReader(makeWAV(1, 22050, 16, 0, data)))
	if err != nil {
		t.Fatal(err)
	}
	if w.Format != Mono || w.SampleRate != 22050 || w.BitsPerSample != 16 || w.DataSize != 6 || w.DataOffset != 44 {
		t.Fatalf("parsed %+v", w)
	}
	got, _ := io.ReadAll(w)
	if !bytes.Equal(got, data) {
		t.Fatalf("samples %v", got)
	}
}

func TestParseWAV_SkipsChunksBeforeData(t *testing.T) {
	data := []byte{9, 8, 7, 6}
	w, err := ParseWAV(bytes.NewReader(makeWAV(2, 44100, 16, 34, data)))
	if err != nil {
		t.Fatal(err)
	}
	if w.Format != Stereo || w.DataOffset != 44+34 {
		t.Fatalf("parsed %+v", w)
	}
	buf := make([]byte, 10)
	n, _ := w.Fill(buf)
	if n != 4 || !bytes.Equal(buf[:4], data) {
		t.Fatalf("fill n=%d %v", n, buf[:n])
	}
	if err := w.Rewind(); err != nil {
		t.Fatal(err)
	}
	if n, _ := w.Fill(buf); n != 4 {
		t.Fatal("rewind")
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	good := makeWAV(1, 8000, 16, 0, []byte{0, 0})
	corrupt := func(off int, s string) []byte {
		b := append([]byte(nil), good...)
		copy(b[off:], s)
		return b
	}
	cases := map[string][]byte{
		"riff":  corrupt(0, "RIFX"),
		"wave":  corrupt(8, "WAVX"),
		"fmt":   corrupt(12, "fmtx"),
		"data":  corrupt(36, "dat_"),
		"short": good[:20],
	}
	for name, b := range cases {
		if _, err := ParseWAV(bytes.NewReader(b)); errcode.Of(err) != errcode.InvalidWAV {
			t.Fatalf("%s: err=%v", name, err)
		}
	}
}
