package storage

import (
	"sync"

	"github.com/san-kum/glutensim/internal/metrics"
)

// Recorder keeps every sample it observes, without the engine's history
// cap. Register it with Engine.AddObserver.
type Recorder struct {
	mu      sync.Mutex
	samples []metrics.Sample
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnSample(s metrics.Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *Recorder) Samples() []metrics.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]metrics.Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
