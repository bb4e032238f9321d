package metrics

// Sample is one reduced-rate analytics point.
type Sample struct {
	Tick    uint64
	Time    float64
	Bonds   int
	Broken  uint64
	Modulus float64
}

// Series keeps the most recent samples up to a fixed capacity.
type Series struct {
	cap     int
	samples []Sample
}

// NewSeries keeps at most capacity samples; capacity <= 0 means unbounded.
func NewSeries(capacity int) *Series {
	return &Series{cap: capacity}
}

func (s *Series) Add(x Sample) {
	s.samples = append(s.samples, x)
	if s.cap > 0 && len(s.samples) > s.cap {
		n := copy(s.samples, s.samples[len(s.samples)-s.cap:])
		s.samples = s.samples[:n]
	}
}

func (s *Series) Len() int { return len(s.samples) }

// Samples returns a copy in chronological order.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Last returns the newest sample.
func (s *Series) Last() (Sample, bool) {
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Column extracts one field as float64 for plotting.
func (s *Series) Column(field func(Sample) float64) []float64 {
	out := make([]float64, len(s.samples))
	for i, x := range s.samples {
		out[i] = field(x)
	}
	return out
}

func (s *Series) Reset() { s.samples = s.samples[:0] }
