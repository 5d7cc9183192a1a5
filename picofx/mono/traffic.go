package mono

import (
	"math"

	"tinyfx-go/picofx"
)

// AmberFlashCycle is the flash period in seconds of a flashing amber.
const AmberFlashCycle = 0.25

type lightState struct {
	on [3]float64 // red, amber, green
	ms float64
}

// TrafficLight cycles red, red+amber, green, amber, fading between states.
// With amber flashing, the second state flashes amber alone.
type TrafficLight struct {
	FadeRate      float64 // level change per ms
	amberFlashing bool
	states        [4]lightState
	index         int
	elapsed       float64
	target        [3]float64
	current       [3]float64
}

// NewTrafficLight takes the four state durations in seconds.
func NewTrafficLight(red, redAmber, green, amber, fadeRate float64, amberFlashing bool) *TrafficLight {
	r := 1.0
	if amberFlashing {
		r = 0
	}
	t := &TrafficLight{
		FadeRate:      fadeRate,
		amberFlashing: amberFlashing,
		states: [4]lightState{
			{[3]float64{1, 0, 0}, float64(int(red * 1000))},
			{[3]float64{r, 1, 0}, float64(int(redAmber * 1000))},
			{[3]float64{0, 0, 1}, float64(int(green * 1000))},
			{[3]float64{0, 1, 0}, float64(int(amber * 1000))},
		},
	}
	t.Reset()
	return t
}

func (t *TrafficLight) light(i int) picofx.Mono {
	return view{src: t, fn: func() float64 { return t.current[i] }}
}

func (t *TrafficLight) Red() picofx.Mono   { return t.light(0) }
func (t *TrafficLight) Amber() picofx.Mono { return t.light(1) }
func (t *TrafficLight) Green() picofx.Mono { return t.light(2) }

// State is the index of the current phase: 0 red, 1 red+amber, 2 green,
// 3 amber.
func (t *TrafficLight) State() int { return t.index }

func (t *TrafficLight) Tick(deltaMs int) {
	t.elapsed += float64(deltaMs)
	if t.elapsed >= t.states[t.index].ms {
		t.elapsed -= t.states[t.index].ms
		t.index = (t.index + 1) % len(t.states)
		t.target = t.states[t.index].on
	}

	if t.amberFlashing {
		half := math.Mod(t.elapsed/1000, AmberFlashCycle) >= AmberFlashCycle/2
		if t.index == 1 && half {
			t.target[1] = 0
		} else {
			t.target[1] = t.states[t.index].on[1]
		}
	}

	step := float64(deltaMs) * t.FadeRate
	for i := range t.current {
		switch {
		case t.current[i] < t.target[i]:
			t.current[i] = math.Min(t.current[i]+step, t.target[i])
		case t.current[i] > t.target[i]:
			t.current[i] = math.Max(t.current[i]-step, t.target[i])
		}
	}
}

func (t *TrafficLight) Reset() {
	t.index = 0
	t.elapsed = 0
	t.target = t.states[0].on
	t.current = [3]float64{}
}
