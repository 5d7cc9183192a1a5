package picofx

import "math"

// RGBFromHSV converts hue, saturation and value (0..1) to r, g, b in 0..1.
// Hue outside 0..1 wraps around.
func RGBFromHSV(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(math.Mod(math.Mod(i, 6)+6, 6)) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// RGB8FromHSV is RGBFromHSV scaled (truncated) to 0..255.
func RGB8FromHSV(h, s, v float64) (r, g, b int) {
	rf, gf, bf := RGBFromHSV(h, s, v)
	return int(rf * 255), int(gf * 255), int(bf * 255)
}
