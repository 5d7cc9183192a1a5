package types

type ToneRequest struct {
	FreqHz    float64  `json:"freq_hz"`
	Amplitude float64  `json:"amplitude"`
	Shapes    []string `json:"shapes,omitempty"` // "sine", "square", "triangle"
}

type WavRequest struct {
	File string `json:"file"`
	Loop bool   `json:"loop"`
}

type AudioState struct {
	Playing bool   `json:"playing"`
	Paused  bool   `json:"paused"`
	Mode    string `json:"mode"` // "wav" or "tone"
}

// AudioConfig is the payload of config/audio.
type AudioConfig struct {
	BootTone   *ToneRequest `json:"boot_tone,omitempty"`
	BootToneMs uint32       `json:"boot_tone_ms"` // 0 => 150ms
	Volume     float64      `json:"volume"`       // scales tone amplitude; 0 => 1
}
