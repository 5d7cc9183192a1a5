//go:build !rp2040

package audio

import "tinyfx-go/audio"

// NewOutput returns a paced sink on hosts without an amplifier.
func NewOutput() (audio.Output, error) {
	return &audio.PacedDiscard{}, nil
}
