// Package catalog builds picofx effects by name from JSON-style parameter
// maps, so effects can be chosen from configuration or the console.
package catalog

import (
	"math/rand"
	"sort"

	"tinyfx-go/errcode"
	"tinyfx-go/picofx"
	"tinyfx-go/picofx/colour"
	"tinyfx-go/picofx/mono"
	"tinyfx-go/types"
)

type monoCtor func(b *Builder, p params) (any, error)
type monoView func(fx any, pos int) (picofx.Mono, error)

type colourCtor func(b *Builder, p params) (any, error)
type colourView func(fx any, pos int) (picofx.Colour, error)

type monoEntry struct {
	build      monoCtor
	view       monoView
	positional bool
}

type colourEntry struct {
	build      colourCtor
	view       colourView
	positional bool
}

func self[T picofx.Mono](fx any, _ int) (picofx.Mono, error) { return fx.(T), nil }

func selfC[T picofx.Colour](fx any, _ int) (picofx.Colour, error) { return fx.(T), nil }

var monoEffects = map[string]monoEntry{
	"static": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewStatic(p.num("brightness", 1)), nil
	}, view: self[*mono.Static]},

	"blink": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewBlink(p.num("speed", 1), p.num("phase", 0), p.num("duty", 0.5)), nil
	}, view: self[*mono.Blink]},

	"blink_wave": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewBlinkWave(p.num("speed", 1), p.num("length", 6), p.num("phase", 0), p.num("duty", 0.5)), nil
	}, view: func(fx any, pos int) (picofx.Mono, error) {
		return fx.(*mono.BlinkWave).At(pos), nil
	}, positional: true},

	"pulse": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewPulse(p.num("speed", 1), p.num("phase", 0)), nil
	}, view: self[*mono.Pulse]},

	"pulse_wave": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewPulseWave(p.num("speed", 1), p.num("length", 6), p.num("phase", 0)), nil
	}, view: func(fx any, pos int) (picofx.Mono, error) {
		return fx.(*mono.PulseWave).At(pos), nil
	}, positional: true},

	"flash": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewFlash(p.num("speed", 1), p.int("flashes", 2), p.num("window", 0.5), p.num("phase", 0), p.num("duty", 0.5))
	}, view: self[*mono.Flash]},

	"flash_sequence": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewFlashSequence(p.num("speed", 1), p.num("length", 6), p.int("flashes", 1), p.num("window", 1), p.num("phase", 0), p.num("duty", 0.5))
	}, view: func(fx any, pos int) (picofx.Mono, error) {
		return fx.(*mono.FlashSequence).At(pos), nil
	}, positional: true},

	"flicker": {build: func(b *Builder, p params) (any, error) {
		return mono.NewFlicker(p.num("brightness", 1), p.num("dimness", 0.5),
			p.num("bright_min", 0.05), p.num("bright_max", 0.1),
			p.num("dim_min", 0.02), p.num("dim_max", 0.04), b.rnd), nil
	}, view: self[*mono.Flicker]},

	"random": {build: func(b *Builder, p params) (any, error) {
		return mono.NewRandom(p.num("interval", 0.05), p.num("brightness_min", 0), p.num("brightness_max", 1), b.rnd), nil
	}, view: self[*mono.Random]},

	"binary_counter": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewBinaryCounter(p.num("interval", 0.1), p.int("count", 0), p.int("step", 1)), nil
	}, view: func(fx any, pos int) (picofx.Mono, error) {
		if pos < 0 {
			return nil, &errcode.E{C: errcode.OutOfRange, Op: "catalog.binary_counter", Msg: "pos must not be negative"}
		}
		return fx.(*mono.BinaryCounter).Bit(pos), nil
	}, positional: true},

	"traffic_light": {build: func(_ *Builder, p params) (any, error) {
		return mono.NewTrafficLight(p.num("red_interval", 10), p.num("red_amber_interval", 5),
			p.num("green_interval", 10), p.num("amber_interval", 5),
			p.num("fade_rate", 0.01), p.bool("amber_flashing", false)), nil
	}, view: func(fx any, pos int) (picofx.Mono, error) {
		t := fx.(*mono.TrafficLight)
		switch pos {
		case 0:
			return t.Red(), nil
		case 1:
			return t.Amber(), nil
		case 2:
			return t.Green(), nil
		}
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "catalog.traffic_light", Msg: "pos must be 0 (red), 1 (amber) or 2 (green)"}
	}, positional: true},
}

var colourEffects = map[string]colourEntry{
	"rgb": {build: func(_ *Builder, p params) (any, error) {
		return colour.NewRGB(p.int("r", 255), p.int("g", 255), p.int("b", 255)), nil
	}, view: selfC[*colour.RGB]},

	"hsv": {build: func(_ *Builder, p params) (any, error) {
		return colour.NewHSV(p.num("hue", 0), p.num("sat", 1), p.num("val", 1)), nil
	}, view: selfC[*colour.HSV]},

	"rainbow": {build: func(_ *Builder, p params) (any, error) {
		return colour.NewRainbow(p.num("speed", 1), p.num("sat", 1), p.num("val", 1)), nil
	}, view: selfC[*colour.Rainbow]},

	"rainbow_wave": {build: func(_ *Builder, p params) (any, error) {
		return colour.NewRainbowWave(p.num("speed", 1), p.num("length", 1), p.num("sat", 1), p.num("val", 1)), nil
	}, view: func(fx any, pos int) (picofx.Colour, error) {
		return fx.(*colour.RainbowWave).At(pos), nil
	}, positional: true},

	"hue_step": {build: func(_ *Builder, p params) (any, error) {
		return colour.NewHueStep(p.num("interval", 1), p.num("hue", 0), p.num("sat", 1), p.num("val", 1), p.int("steps", 6)), nil
	}, view: selfC[*colour.HueStep]},

	"blink": {build: func(_ *Builder, p params) (any, error) {
		cs, err := p.colours("colour")
		if err != nil {
			return nil, err
		}
		return colour.NewBlink(cs, p.num("speed", 1), p.num("phase", 0), p.num("duty", 0.5)), nil
	}, view: selfC[*colour.Blink]},
}

// MonoNames lists the mono effects, sorted.
func MonoNames() []string { return names(monoEffects) }

// ColourNames lists the colour effects, sorted.
func ColourNames() []string { return names(colourEffects) }

func names[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builder turns EffectSpecs into effects. Positional effects and specs
// that name a Group share one instance per (name, group) within a
// Builder, so a wave spread over six outputs advances as one.
type Builder struct {
	rnd    *rand.Rand
	shared map[string]any
}

// NewBuilder uses the shared random source when rnd is nil.
func NewBuilder(rnd *rand.Rand) *Builder {
	return &Builder{rnd: rnd, shared: make(map[string]any)}
}

func (b *Builder) instance(kind, name string, spec types.EffectSpec, positional bool, build func() (any, error)) (any, error) {
	if !positional && spec.Group == "" {
		return build()
	}
	key := kind + "/" + name + "/" + spec.Group
	if fx, ok := b.shared[key]; ok {
		return fx, nil
	}
	fx, err := build()
	if err != nil {
		return nil, err
	}
	b.shared[key] = fx
	return fx, nil
}

// Mono builds the mono effect named by spec.
func (b *Builder) Mono(spec types.EffectSpec) (picofx.Mono, error) {
	e, ok := monoEffects[spec.Name]
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownEffect, Op: "catalog.Mono", Msg: spec.Name}
	}
	fx, err := b.instance("mono", spec.Name, spec, e.positional, func() (any, error) {
		return e.build(b, params(spec.Params))
	})
	if err != nil {
		return nil, err
	}
	return e.view(fx, spec.Pos)
}

// Colour builds the colour effect named by spec. Mono effect names are
// accepted too and shown as grey.
func (b *Builder) Colour(spec types.EffectSpec) (picofx.Colour, error) {
	e, ok := colourEffects[spec.Name]
	if !ok {
		if _, isMono := monoEffects[spec.Name]; isMono {
			m, err := b.Mono(spec)
			if err != nil {
				return nil, err
			}
			return picofx.Grey(m), nil
		}
		return nil, &errcode.E{C: errcode.UnknownEffect, Op: "catalog.Colour", Msg: spec.Name}
	}
	fx, err := b.instance("colour", spec.Name, spec, e.positional, func() (any, error) {
		return e.build(b, params(spec.Params))
	})
	if err != nil {
		return nil, err
	}
	return e.view(fx, spec.Pos)
}

// Shared returns the instance behind an effect built by this Builder
// for (name, group), for actions such as Next/Prev on a colour blink.
func (b *Builder) Shared(kind, name, group string) (any, bool) {
	fx, ok := b.shared[kind+"/"+name+"/"+group]
	return fx, ok
}
