// Package payload converts bus payloads. Payloads arrive either as typed
// structs from in-process publishers or as map[string]any decoded from
// JSON, where numbers are float64.
package payload

import (
	"encoding/json"

	"tinyfx-go/errcode"
)

// As asserts v to the value type T. A nil payload yields the zero value.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	if v == nil {
		return zero, ""
	}
	t, ok := v.(T)
	if !ok {
		return zero, errcode.InvalidPayload
	}
	return t, ""
}

// Decode fills dst from src. Typed values pass straight through; maps,
// strings and byte slices go through a JSON round trip. A nil src leaves
// dst untouched.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case nil:
		return nil
	case T:
		*dst = v
		return nil
	case *T:
		if v != nil {
			*dst = *v
		}
		return nil
	case []byte:
		return wrap(json.Unmarshal(v, dst))
	case string:
		return wrap(json.Unmarshal([]byte(v), dst))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return wrap(err)
		}
		return wrap(json.Unmarshal(b, dst))
	}
}

func wrap(err error) error {
	return errcode.Wrap(errcode.InvalidPayload, "payload.Decode", err)
}

// Num reads a number from any of the numeric kinds a payload may carry.
func Num(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// Int is Num truncated to int.
func Int(v any) (int, bool) {
	f, ok := Num(v)
	return int(f), ok
}

// Field reads a numeric field of a map payload.
func Field(p any, key string) (float64, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	return Num(m[key])
}
