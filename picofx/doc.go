// Package picofx drives gamma-corrected LEDs from small, composable effects.
//
// An effect is anything that yields a brightness (Mono) or a colour
// (Colour) on demand. Effects that change over time also implement
// Updatable and are ticked by a player at a fixed frame rate. Positional
// effects (waves, sequences, counters) hand out per-output views that all
// report the same Source, so a player ticks the shared state once per frame.
package picofx
