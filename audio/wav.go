// Package audio plays WAV files and generated tones through a sample
// output such as the TinyFX I2S amplifier.
package audio

import (
	"bytes"
	"encoding/binary"
	"io"

	"tinyfx-go/errcode"
)

const (
	wavHeaderBytes = 36  // RIFF header plus the canonical fmt chunk
	dataSearchSpan = 200 // converters sometimes insert chunks before "data"
)

// Format is the channel layout of a stream.
type Format uint8

const (
	Mono Format = iota
	Stereo
)

func (f Format) String() string {
	if f == Stereo {
		return "stereo"
	}
	return "mono"
}

// WAV is a parsed WAV stream positioned within its sample data.
type WAV struct {
	Format        Format
	Channels      int
	SampleRate    uint32
	BitsPerSample int
	DataOffset    int64
	DataSize      uint32

	r   io.ReadSeeker
	pos uint32
}

func invalidWAV(msg string) error {
	return &errcode.E{C: errcode.InvalidWAV, Op: "audio.ParseWAV", Msg: msg}
}

// ParseWAV validates the header of r and leaves it at the first sample.
func ParseWAV(r io.ReadSeeker) (*WAV, error) {
	var h [wavHeaderBytes]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, &errcode.E{C: errcode.InvalidWAV, Op: "audio.ParseWAV", Msg: "short header", Err: err}
	}
	if string(h[0:4]) != "RIFF" {
		return nil, invalidWAV("chunk ID invalid")
	}
	if string(h[8:12]) != "WAVE" {
		return nil, invalidWAV("format invalid")
	}
	if string(h[12:16]) != "fmt " {
		return nil, invalidWAV("sub chunk 1 ID invalid")
	}
	le := binary.LittleEndian
	w := &WAV{
		Channels:      int(le.Uint16(h[22:24])),
		SampleRate:    le.Uint32(h[24:28]),
		BitsPerSample: int(le.Uint16(h[34:36])),
		r:             r,
	}
	if w.Channels == 1 {
		w.Format = Mono
	} else {
		w.Format = Stereo
	}

	block := make([]byte, dataSearchSpan)
	n, err := io.ReadFull(r, block)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, &errcode.E{C: errcode.InvalidWAV, Op: "audio.ParseWAV", Msg: "sub chunk 2 ID not found", Err: err}
	}
	block = block[:n]
	idx := bytes.Index(block, []byte("data"))
	if idx < 0 || idx+8 > len(block) {
		return nil, invalidWAV("sub chunk 2 ID not found")
	}
	w.DataSize = le.Uint32(block[idx+4 : idx+8])
	w.DataOffset = int64(wavHeaderBytes + idx + 8)
	if err := w.Rewind(); err != nil {
		return nil, err
	}
	return w, nil
}

// Rewind returns to the first sample.
func (w *WAV) Rewind() error {
	if _, err := w.r.Seek(w.DataOffset, io.SeekStart); err != nil {
		return errcode.Wrap(errcode.Error, "audio.Rewind", err)
	}
	w.pos = 0
	return nil
}

// Read reads sample data, stopping at the end of the data chunk.
func (w *WAV) Read(p []byte) (int, error) {
	left := w.DataSize - w.pos
	if left == 0 {
		return 0, io.EOF
	}
	if uint32(len(p)) > left {
		p = p[:left]
	}
	n, err := w.r.Read(p)
	w.pos += uint32(n)
	return n, err
}

// Fill reads until p is full or the data ends. It never returns io.EOF.
func (w *WAV) Fill(p []byte) (int, error) {
	n, err := io.ReadFull(w, p)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}

// Close closes the underlying reader when it is an io.Closer.
func (w *WAV) Close() error {
	if c, ok := w.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
