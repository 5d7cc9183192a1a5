package catalog

import (
	"tinyfx-go/errcode"
)

// params reads effect parameters decoded from JSON. Numbers arrive as
// float64; ints are accepted for callers building maps by hand.
type params map[string]any

func (p params) num(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func (p params) int(key string, def int) int {
	if _, ok := p[key]; !ok {
		return def
	}
	return int(p.num(key, float64(def)))
}

func (p params) bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

func triple(v any) ([3]int, bool) {
	var out [3]int
	switch l := v.(type) {
	case []any:
		if len(l) != 3 {
			return out, false
		}
		for i, x := range l {
			f := params{"n": x}.num("n", -1)
			if f < 0 {
				return out, false
			}
			out[i] = int(f)
		}
		return out, true
	case [3]int:
		return l, true
	case []int:
		if len(l) != 3 {
			return out, false
		}
		copy(out[:], l)
		return out, true
	}
	return out, false
}

// colours accepts a single [r,g,b] or a list of them. A missing key
// yields nil.
func (p params) colours(key string) ([][3]int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	if c, ok := triple(v); ok {
		return [][3]int{c}, nil
	}
	switch l := v.(type) {
	case []any:
		out := make([][3]int, 0, len(l))
		for _, x := range l {
			c, ok := triple(x)
			if !ok {
				return nil, badParam(key)
			}
			out = append(out, c)
		}
		return out, nil
	case [][3]int:
		return l, nil
	}
	return nil, badParam(key)
}

func badParam(key string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "catalog", Msg: key}
}
