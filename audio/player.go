package audio

import (
	"io"
	"io/fs"
	"sync"

	"tinyfx-go/errcode"
)

const (
	SilenceBufferLength  = 1024
	WAVBufferLength      = 1024
	InternalBufferLength = WAVBufferLength * 2
)

// State of the playback state machine.
type State uint8

const (
	StateNone State = iota
	StatePlay
	StatePause
	StateFlush
	StateStop
)

func (s State) String() string {
	switch s {
	case StatePlay:
		return "play"
	case StatePause:
		return "pause"
	case StateFlush:
		return "flush"
	case StateStop:
		return "stop"
	}
	return "none"
}

// Mode is what the player is streaming.
type Mode uint8

const (
	ModeWAV Mode = iota
	ModeTone
)

func (m Mode) String() string {
	if m == ModeTone {
		return "tone"
	}
	return "wav"
}

// StreamConfig describes the samples that will be written to an Output.
type StreamConfig struct {
	BitsPerSample int
	Format        Format
	SampleRate    uint32
}

// Output consumes raw little-endian PCM. Write blocks until the samples
// have been queued to the hardware.
type Output interface {
	Configure(cfg StreamConfig) error
	Write(p []byte) (int, error)
	Stop() error
}

// EnablePin switches the amplifier.
type EnablePin interface {
	High()
	Low()
}

// Player streams WAV files from a filesystem, or tones, to an Output.
type Player struct {
	mu      sync.Mutex
	out     Output
	amp     EnablePin
	fsys    fs.FS
	ibufLen int

	state      State
	mode       Mode
	wav        *WAV
	loop       bool
	loops      int
	flushCount int
	tone       []byte
	queued     []byte

	silence []byte
	wavBuf  []byte
	done    chan struct{}
	err     error
}

// NewPlayer creates an idle player. amp may be nil; ibufLen<=0 uses
// InternalBufferLength.
func NewPlayer(out Output, amp EnablePin, fsys fs.FS, ibufLen int) *Player {
	if ibufLen <= 0 {
		ibufLen = InternalBufferLength
	}
	return &Player{
		out:     out,
		amp:     amp,
		fsys:    fsys,
		ibufLen: ibufLen,
		silence: make([]byte, SilenceBufferLength),
		wavBuf:  make([]byte, WAVBufferLength),
	}
}

// SetFS changes the filesystem WAV files are opened from.
func (p *Player) SetFS(fsys fs.FS) {
	p.mu.Lock()
	p.fsys = fsys
	p.mu.Unlock()
}

// PlayWAV stops any playback and starts streaming name.
func (p *Player) PlayWAV(name string, loop bool) error {
	p.mu.Lock()
	fsys := p.fsys
	p.mu.Unlock()
	if fsys == nil {
		return &errcode.E{C: errcode.NotFound, Op: "audio.PlayWAV", Msg: "no filesystem"}
	}
	f, err := fsys.Open(name)
	if err != nil {
		return &errcode.E{C: errcode.NotFound, Op: "audio.PlayWAV", Msg: name, Err: err}
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		f.Close()
		return &errcode.E{C: errcode.Unsupported, Op: "audio.PlayWAV", Msg: "file is not seekable"}
	}
	w, err := ParseWAV(rs)
	if err != nil {
		f.Close()
		return err
	}
	if w.BitsPerSample != 16 {
		f.Close()
		return &errcode.E{C: errcode.Unsupported, Op: "audio.PlayWAV", Msg: "only 16-bit samples are supported"}
	}
	w.r = struct {
		io.ReadSeeker
		io.Closer
	}{rs, f}

	p.stopStream()
	p.mu.Lock()
	p.wav = w
	p.loop = loop && w.DataSize > 0
	p.loops = 0
	p.mu.Unlock()
	return p.startStream(StreamConfig{BitsPerSample: w.BitsPerSample, Format: w.Format, SampleRate: w.SampleRate}, ModeWAV)
}

// PlayTone plays a continuous tone. While tones are already playing the
// new tone is queued and replaces the current one at the next buffer.
func (p *Player) PlayTone(freqHz, amplitude float64, shape Shape) error {
	samples, err := Tone(freqHz, amplitude, shape)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.mode == ModeTone && (p.state == StatePlay || p.state == StatePause) {
		p.queued = samples
		p.state = StatePlay
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	p.stopStream()
	p.mu.Lock()
	p.tone = samples
	p.queued = nil
	p.mu.Unlock()
	return p.startStream(StreamConfig{BitsPerSample: ToneBitsPerSample, Format: Mono, SampleRate: ToneSampleRate}, ModeTone)
}

func (p *Player) Pause() {
	p.mu.Lock()
	if p.state == StatePlay {
		p.state = StatePause
	}
	p.mu.Unlock()
}

func (p *Player) Resume() {
	p.mu.Lock()
	if p.state == StatePause {
		p.state = StatePlay
	}
	p.mu.Unlock()
}

// Stop ends playback. A WAV flushes the output's internal buffer first so
// the tail is not cut off.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *Player) stopLocked() {
	if p.state != StatePlay && p.state != StatePause {
		return
	}
	if p.mode == ModeWAV {
		p.state = StateFlush
		p.closeWAV()
		return
	}
	p.state = StateStop
}

func (p *Player) closeWAV() {
	if p.wav != nil {
		p.wav.Close()
		p.wav = nil
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != StateNone && p.state != StateStop
}

func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePause
}

// Status reports the state machine position.
func (p *Player) Status() (State, Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.mode
}

// Loops counts completed passes of a looping WAV.
func (p *Player) Loops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loops
}

// Err is the output error that ended the last stream, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops playback, waits for the stream to end and disables the amp.
func (p *Player) Close() error {
	p.stopStream()
	return nil
}

func (p *Player) startStream(cfg StreamConfig, mode Mode) error {
	if err := p.out.Configure(cfg); err != nil {
		p.mu.Lock()
		p.closeWAV()
		p.mu.Unlock()
		return errcode.Wrap(errcode.Error, "audio.start", err)
	}
	p.mu.Lock()
	p.state = StatePlay
	p.mode = mode
	p.flushCount = p.ibufLen/SilenceBufferLength + 1
	p.err = nil
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	if p.amp != nil {
		p.amp.High()
	}
	go p.pump(done)
	return nil
}

// stopStream stops playback and waits for the pump to drain.
func (p *Player) stopStream() {
	p.mu.Lock()
	p.stopLocked()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	if p.amp != nil {
		p.amp.Low()
	}
	p.mu.Lock()
	if p.done == done {
		p.done = nil
		p.state = StateNone
	}
	p.mu.Unlock()
}

func (p *Player) pump(done chan struct{}) {
	defer close(done)
	if _, err := p.out.Write(p.silence); err != nil {
		p.fail(err)
		return
	}
	for {
		buf := p.next()
		if buf == nil {
			p.out.Stop()
			return
		}
		if _, err := p.out.Write(buf); err != nil {
			p.fail(err)
			return
		}
	}
}

func (p *Player) fail(err error) {
	p.out.Stop()
	p.mu.Lock()
	p.err = err
	p.closeWAV()
	p.state = StateStop
	p.mu.Unlock()
}

// next advances the state machine by one output buffer and returns the
// samples to write; nil ends the stream.
func (p *Player) next() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StatePlay:
		if p.mode == ModeTone {
			if p.queued != nil {
				p.tone, p.queued = p.queued, nil
			}
			return p.tone
		}
		return p.nextWAV()

	case StatePause:
		return p.silence

	case StateFlush:
		if p.flushCount > 0 {
			p.flushCount--
		} else {
			p.state = StateStop
		}
		return p.silence
	}
	return nil
}

func (p *Player) nextWAV() []byte {
	if p.loop {
		n, rewound := 0, false
		for n < len(p.wavBuf) {
			k, err := p.wav.Fill(p.wavBuf[n:])
			n += k
			if err != nil {
				p.err = err
				p.closeWAV()
				p.state = StateFlush
				return p.silence
			}
			if k > 0 {
				rewound = false
				continue
			}
			if rewound {
				// Nothing to read even from the first sample.
				p.err = &errcode.E{C: errcode.InvalidWAV, Op: "audio.Play", Msg: "no sample data"}
				p.closeWAV()
				p.state = StateFlush
				if n == 0 {
					return p.silence
				}
				return p.wavBuf[:n]
			}
			if err := p.wav.Rewind(); err != nil {
				p.err = err
				p.closeWAV()
				p.state = StateFlush
				return p.silence
			}
			rewound = true
			p.loops++
		}
		return p.wavBuf
	}

	n, err := p.wav.Fill(p.wavBuf)
	if err != nil {
		p.err = err
	}
	if n < len(p.wavBuf) || err != nil {
		p.closeWAV()
		p.state = StateFlush
	}
	if n == 0 {
		return p.silence
	}
	return p.wavBuf[:n]
}
