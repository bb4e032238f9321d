package physics

import (
	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

// ResolveSprings walks the bond list once, in order. Bonds stretched past
// their breaking length are removed without applying force; every other
// bond adds k*(len-rest) along A->B to A and subtracts it from B.
// It returns the number of bonds broken.
func ResolveSprings(g *particles.Graph, agents []particles.Agent) int {
	return g.Filter(agents, func(b *particles.Bond) bool {
		pa, pb := &agents[b.A], &agents[b.B]
		delta := r3.Sub(pb.Position, pa.Position)
		length := r3.Norm(delta)

		if length > b.Breaking {
			return false
		}
		if length <= epsilon {
			return true
		}

		f := r3.Scale(b.Stiffness*(length-b.Rest)/length, delta)
		pa.Force = r3.Add(pa.Force, f)
		pb.Force = r3.Sub(pb.Force, f)
		return true
	})
}
