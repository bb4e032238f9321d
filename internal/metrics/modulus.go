package metrics

import (
	"math"

	"github.com/san-kum/glutensim/internal/particles"
)

// EstimateModulus is the mean spring force magnitude k*|len-rest| over all
// bonds, or 0 with no bonds. It is a proxy for network stress rather than a
// true elastic modulus.
func EstimateModulus(g *particles.Graph, agents []particles.Agent) float64 {
	bonds := g.Bonds()
	if len(bonds) == 0 {
		return 0
	}
	total := 0.0
	for i := range bonds {
		b := &bonds[i]
		total += b.Stiffness * math.Abs(b.Length(agents)-b.Rest)
	}
	return total / float64(len(bonds))
}

// Metric observes the bond graph at sampling points.
type Metric interface {
	Name() string
	Observe(g *particles.Graph, agents []particles.Agent, t float64)
	Value() float64
	Reset()
}

// Modulus reports the most recent estimate.
type Modulus struct {
	last float64
}

func NewModulus() *Modulus { return &Modulus{} }

func (m *Modulus) Name() string { return "modulus" }

func (m *Modulus) Observe(g *particles.Graph, agents []particles.Agent, t float64) {
	m.last = EstimateModulus(g, agents)
}

func (m *Modulus) Value() float64 { return m.last }
func (m *Modulus) Reset()         { m.last = 0 }

// MeanModulus averages the estimate over every observation.
type MeanModulus struct {
	sum     float64
	samples int
}

func NewMeanModulus() *MeanModulus { return &MeanModulus{} }

func (m *MeanModulus) Name() string { return "mean_modulus" }

func (m *MeanModulus) Observe(g *particles.Graph, agents []particles.Agent, t float64) {
	m.sum += EstimateModulus(g, agents)
	m.samples++
}

func (m *MeanModulus) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanModulus) Reset() {
	m.sum = 0
	m.samples = 0
}

// BondCount reports the bond count at the last observation.
type BondCount struct {
	last int
	peak int
}

func NewBondCount() *BondCount { return &BondCount{} }

func (b *BondCount) Name() string { return "bonds" }

func (b *BondCount) Observe(g *particles.Graph, agents []particles.Agent, t float64) {
	b.last = g.Len()
	b.peak = max(b.peak, b.last)
}

func (b *BondCount) Value() float64 { return float64(b.last) }

// Peak is the largest count seen since Reset.
func (b *BondCount) Peak() int { return b.peak }

func (b *BondCount) Reset() {
	b.last = 0
	b.peak = 0
}

// BrokenBonds mirrors the graph's monotonic breakage counter. Reset only
// clears the cached value; the graph counter itself is never reset.
type BrokenBonds struct {
	last uint64
}

func NewBrokenBonds() *BrokenBonds { return &BrokenBonds{} }

func (b *BrokenBonds) Name() string { return "broken_bonds" }

func (b *BrokenBonds) Observe(g *particles.Graph, agents []particles.Agent, t float64) {
	b.last = g.Broken()
}

func (b *BrokenBonds) Value() float64 { return float64(b.last) }
func (b *BrokenBonds) Reset()         { b.last = 0 }

// Defaults is the metric set attached to every engine.
func Defaults() []Metric {
	return []Metric{NewModulus(), NewMeanModulus(), NewBondCount(), NewBrokenBonds()}
}
