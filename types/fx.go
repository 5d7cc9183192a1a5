package types

// EffectSpec names an effect from the catalog and its parameters.
// Params values follow JSON typing (float64, bool, string, []any).
type EffectSpec struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
	// Pos selects a position on a shared wave/sequence effect; Group ties
	// several outputs to one shared effect instance.
	Group string `json:"group,omitempty"`
	Pos   int    `json:"pos,omitempty"`
}

// FXConfig is the payload of config/fx and fx/control/play.
type FXConfig struct {
	FPS    int          `json:"fps"`              // 0 => default
	Mono   []EffectSpec `json:"mono,omitempty"`   // up to six, in output order
	Colour *EffectSpec  `json:"colour,omitempty"` // RGB output
	Strip  *EffectSpec  `json:"strip,omitempty"`  // every pixel of a WS2812 chain; Pos is the pixel index
}

type FXStop struct {
	Reset bool `json:"reset"`
}

type FXState struct {
	Running bool `json:"running"`
	FPS     int  `json:"fps"`
}
