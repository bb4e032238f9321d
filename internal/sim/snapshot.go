package sim

import (
	"github.com/san-kum/glutensim/internal/metrics"
	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pair is a bond reduced to its endpoints.
type Pair struct {
	A, B int
}

// Snapshot is an immutable copy of what a renderer needs for one frame.
type Snapshot struct {
	Tick       uint64
	Time       float64
	Positions  []r3.Vec
	Categories []particles.Category
	Bonds      []Pair
	Mixer      r3.Vec
	MixerOn    bool
	Container  particles.Container
}

// Stats is the headline analytics for the current state.
type Stats struct {
	Tick    uint64
	Time    float64
	Agents  int
	Bonds   int
	Broken  uint64
	Modulus float64
	// Outside is the number of agents the grid could not index on the last
	// tick.
	Outside int
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Tick:       e.tick,
		Time:       e.time,
		Positions:  make([]r3.Vec, len(e.agents)),
		Categories: make([]particles.Category, len(e.agents)),
		Mixer:      e.mixer.Position,
		MixerOn:    e.cfg.Mixer,
		Container:  e.cfg.Container,
	}
	for i := range e.agents {
		s.Positions[i] = e.agents[i].Position
		s.Categories[i] = e.agents[i].Category
	}
	bonds := e.bonds.Bonds()
	s.Bonds = make([]Pair, len(bonds))
	for i, b := range bonds {
		s.Bonds[i] = Pair{A: b.A, B: b.B}
	}
	return s
}

// Stats computes the modulus fresh from the current bonds.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Tick:    e.tick,
		Time:    e.time,
		Agents:  len(e.agents),
		Bonds:   e.bonds.Len(),
		Broken:  e.bonds.Broken(),
		Modulus: metrics.EstimateModulus(e.bonds, e.agents),
		Outside: e.dropped,
	}
}

// Samples returns the reduced-rate history, oldest first.
func (e *Engine) Samples() []metrics.Sample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.series.Samples()
}

// Bonds returns a copy of the bond list.
func (e *Engine) Bonds() []particles.Bond {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]particles.Bond, e.bonds.Len())
	copy(out, e.bonds.Bonds())
	return out
}

// Agent returns a copy of agent i, including its connection list.
func (e *Engine) Agent(i int) (particles.Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.agents) {
		return particles.Agent{}, false
	}
	a := e.agents[i]
	a.Connected = append([]int(nil), a.Connected...)
	return a, true
}

// Metrics returns the current value of every registered metric by name.
func (e *Engine) Metrics() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}
