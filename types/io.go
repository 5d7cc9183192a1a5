package types

// ------------------------
// Mono outputs (PWM with gamma)
// ------------------------

type OutputInfo struct {
	Index  int     `json:"index"` // 1..6 as printed on the board
	Pin    int     `json:"pin"`
	Gamma  float32 `json:"gamma"`
	FreqHz uint32  `json:"freq_hz"`
}

type OutputValue struct {
	Brightness float32 `json:"brightness"` // 0..1, before gamma
}

type OutputSet struct {
	Brightness float32 `json:"brightness"`
}

type OutputFade struct {
	To         float32 `json:"to"`
	DurationMs uint32  `json:"duration_ms"`
	Steps      uint16  `json:"steps"` // 0 => snap
}

// ------------------------
// RGB output
// ------------------------

type RGBInfo struct {
	Pins  [3]int  `json:"pins"`
	Gamma float32 `json:"gamma"`
}

type RGBValue struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBSet components are clamped to 0..255.
type RGBSet struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

type HSVSet struct {
	H float32 `json:"h"`
	S float32 `json:"s"`
	V float32 `json:"v"`
}

// ------------------------
// Inputs
// ------------------------

type ButtonInfo struct {
	Pin int `json:"pin"`
}

type ButtonValue struct {
	Pressed bool `json:"pressed"`
}

type VoltageInfo struct {
	Pin  int     `json:"pin"`
	Gain float32 `json:"gain"`
}

type VoltageValue struct {
	Volts float32 `json:"volts"`
}

// ReadSamples is the optional payload for "read" on ADC capabilities.
type ReadSamples struct {
	Samples int `json:"samples"`
}

type EnvInfo struct {
	Sensor string `json:"sensor"`
	Addr   uint16 `json:"addr"`
	Bus    string `json:"bus"`
}

type TemperatureValue struct {
	DeciC int16 `json:"deci_c"` // tenths of °C
}

type HumidityValue struct {
	RHx100 uint16 `json:"rh_x100"` // hundredths of %RH
}
