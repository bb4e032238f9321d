package particles

import (
	"fmt"

	"github.com/san-kum/glutensim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bond is a spring between agents A and B.
type Bond struct {
	A, B      int
	Rest      float64
	Stiffness float64
	Breaking  float64
}

// Length is the current Euclidean distance between the endpoints.
func (b *Bond) Length(agents []Agent) float64 {
	return r3.Norm(r3.Sub(agents[b.B].Position, agents[b.A].Position))
}

// BondSpec holds the constants stamped onto every new bond.
type BondSpec struct {
	Stiffness float64
	Breaking  float64
}

// Graph is the undirected, degree-bounded bond list. It is not safe for
// concurrent mutation.
type Graph struct {
	bonds  []Bond
	broken uint64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len is the current bond count.
func (g *Graph) Len() int { return len(g.bonds) }

// Broken is the number of bonds removed by Filter since creation.
func (g *Graph) Broken() uint64 { return g.broken }

// Bonds exposes the backing slice. Callers must not append to it.
func (g *Graph) Bonds() []Bond { return g.bonds }

// Connect creates a bond between a and b if the pair is not already bonded
// and both endpoints have spare degree. The rest length is the current
// separation; Grow applies the rest length bounds from the next tick on.
func (g *Graph) Connect(agents []Agent, a, b int, spec BondSpec) bool {
	if a == b {
		return false
	}
	pa, pb := &agents[a], &agents[b]
	if pa.IsConnected(b) || !pa.HasSpareDegree() || !pb.HasSpareDegree() {
		return false
	}

	rest := r3.Norm(r3.Sub(pb.Position, pa.Position))

	g.bonds = append(g.bonds, Bond{
		A:         a,
		B:         b,
		Rest:      rest,
		Stiffness: spec.Stiffness,
		Breaking:  spec.Breaking,
	})
	pa.Connected = append(pa.Connected, b)
	pb.Connected = append(pb.Connected, a)
	return true
}

// Grow lengthens every rest length by rate*dt while below maxRest, then
// clamps it to at least minRest.
func (g *Graph) Grow(dt, rate, minRest, maxRest float64) {
	for i := range g.bonds {
		b := &g.bonds[i]
		if b.Rest < maxRest {
			b.Rest = min(b.Rest+rate*dt, maxRest)
		}
		if b.Rest < minRest {
			b.Rest = minRest
		}
	}
}

// Filter visits bonds in order and removes those for which keep returns
// false. Removal disconnects both endpoints and counts as a break.
// It returns the number of bonds removed.
func (g *Graph) Filter(agents []Agent, keep func(b *Bond) bool) int {
	n := 0
	for i := range g.bonds {
		b := &g.bonds[i]
		if keep(b) {
			g.bonds[n] = *b
			n++
			continue
		}
		agents[b.A].disconnect(b.B)
		agents[b.B].disconnect(b.A)
	}
	removed := len(g.bonds) - n
	clear(g.bonds[n:])
	g.bonds = g.bonds[:n]
	g.broken += uint64(removed)
	return removed
}

// Validate checks that the bond list and the agents' connected sets agree
// and that no agent exceeds its degree bound.
func (g *Graph) Validate(agents []Agent) error {
	type pair struct{ a, b int }
	seen := make(map[pair]struct{}, len(g.bonds))
	degree := make([]int, len(agents))

	for i, b := range g.bonds {
		if b.A < 0 || b.A >= len(agents) || b.B < 0 || b.B >= len(agents) || b.A == b.B {
			return fmt.Errorf("%w: bond %d has endpoints (%d, %d)", dynamo.ErrInvariant, i, b.A, b.B)
		}
		p := pair{min(b.A, b.B), max(b.A, b.B)}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate bond (%d, %d)", dynamo.ErrInvariant, p.a, p.b)
		}
		seen[p] = struct{}{}
		if !agents[b.A].IsConnected(b.B) || !agents[b.B].IsConnected(b.A) {
			return fmt.Errorf("%w: bond (%d, %d) missing from connected set", dynamo.ErrInvariant, b.A, b.B)
		}
		degree[b.A]++
		degree[b.B]++
	}

	for i := range agents {
		a := &agents[i]
		if len(a.Connected) != degree[i] {
			return fmt.Errorf("%w: agent %d lists %d bonds, graph has %d", dynamo.ErrInvariant, i, len(a.Connected), degree[i])
		}
		if len(a.Connected) > a.MaxDegree() {
			return fmt.Errorf("%w: agent %d degree %d exceeds %d", dynamo.ErrInvariant, i, len(a.Connected), a.MaxDegree())
		}
	}
	return nil
}
