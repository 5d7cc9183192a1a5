package payload

import (
	"testing"

	"tinyfx-go/errcode"
)

type fade struct {
	To         float32 `json:"to"`
	DurationMs uint32  `json:"duration_ms"`
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		src  any
		want fade
	}{
		{"typed", fade{To: 0.5, DurationMs: 10}, fade{0.5, 10}},
		{"pointer", &fade{To: 1}, fade{To: 1}},
		{"map", map[string]any{"to": 0.25, "duration_ms": float64(200)}, fade{0.25, 200}},
		{"string", `{"to":1,"duration_ms":5}`, fade{1, 5}},
		{"bytes", []byte(`{"to":0}`), fade{}},
		{"nil", nil, fade{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got fade
			if err := Decode(tc.src, &got); err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	var f fade
	if err := Decode(`{"to":"x"}`, &f); errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("err = %v", err)
	}
}

func TestAs(t *testing.T) {
	if v, c := As[int](3); v != 3 || c != "" {
		t.Fatalf("As[int](3) = %v, %q", v, c)
	}
	if _, c := As[int]("x"); c != errcode.InvalidPayload {
		t.Fatalf("code = %q", c)
	}
	if v, c := As[string](nil); v != "" || c != "" {
		t.Fatal("nil payload not zero")
	}
}

func TestNumAndField(t *testing.T) {
	for _, v := range []any{float64(2), float32(2), int(2), uint16(2), int64(2)} {
		if n, ok := Num(v); !ok || n != 2 {
			t.Fatalf("Num(%T) = %v, %v", v, n, ok)
		}
	}
	if _, ok := Num("2"); ok {
		t.Fatal("string accepted")
	}
	if n, ok := Field(map[string]any{"interval": 2.5}, "interval"); !ok || n != 2.5 {
		t.Fatalf("Field = %v, %v", n, ok)
	}
	if _, ok := Field("nope", "interval"); ok {
		t.Fatal("non-map accepted")
	}
	if i, ok := Int(3.9); !ok || i != 3 {
		t.Fatalf("Int = %v", i)
	}
}
