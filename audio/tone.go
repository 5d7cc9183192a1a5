package audio

import (
	"encoding/binary"
	"math"

	"tinyfx-go/errcode"
	"tinyfx-go/x/mathx"
)

const (
	ToneSampleRate    = 44_100
	ToneBitsPerSample = 16
	ToneFullWaves     = 2

	MinToneHz = 20.0
	MaxToneHz = 20_000.0
)

// Shape is a set of waveforms summed into a tone.
type Shape uint8

const (
	Sine Shape = 1 << iota
	Square
	Triangle
)

// Per-shape gains so sine, square and triangle sound equally loud.
const (
	sineScale     = 1.0
	squareScale   = 0.2
	triangleScale = 0.5
)

var shapeNames = map[string]Shape{"sine": Sine, "square": Square, "triangle": Triangle}

// ParseShape combines shape names; an empty list means Sine.
func ParseShape(names []string) (Shape, error) {
	if len(names) == 0 {
		return Sine, nil
	}
	var s Shape
	for _, n := range names {
		v, ok := shapeNames[n]
		if !ok {
			return 0, &errcode.E{C: errcode.InvalidParams, Op: "audio.ParseShape", Msg: n}
		}
		s |= v
	}
	return s, nil
}

// Tone renders ToneFullWaves cycles of a 16-bit mono tone at
// ToneSampleRate, little-endian.
func Tone(freqHz, amplitude float64, shape Shape) ([]byte, error) {
	if !mathx.Between(freqHz, MinToneHz, MaxToneHz) {
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "audio.Tone", Msg: "frequency must be 20Hz..20kHz"}
	}
	if !mathx.Between(amplitude, 0, 1) {
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "audio.Tone", Msg: "amplitude must be 0..1"}
	}
	if shape == 0 {
		shape = Sine
	}

	perCycle := int(ToneSampleRate / freqHz)
	const sampleBytes = ToneBitsPerSample / 8
	out := make([]byte, ToneFullWaves*perCycle*sampleBytes)
	peak := float64(1<<(ToneBitsPerSample-1)-1) * amplitude

	for i := 0; i < perCycle*ToneFullWaves; i++ {
		phase := i % perCycle
		var s float64
		if shape&Triangle != 0 {
			s += float64(phase-perCycle/2) / float64(perCycle) * triangleScale
		}
		if shape&Sine != 0 {
			s += math.Sin(2*math.Pi*float64(i)/float64(perCycle)) * sineScale
		}
		if shape&Square != 0 {
			if phase < perCycle/2 {
				s += squareScale
			} else {
				s -= squareScale
			}
		}
		s = mathx.Clamp(s, -1, 1)
		binary.LittleEndian.PutUint16(out[i*sampleBytes:], uint16(int16(s*peak)))
	}
	return out, nil
}
