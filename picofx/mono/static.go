package mono

// Static holds a fixed brightness.
type Static struct {
	Level float64
}

func NewStatic(level float64) *Static { return &Static{Level: level} }

func (s *Static) Brightness() float64 { return s.Level }
