package physics

import (
	"math"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// ContactPass pushes every agent out of the mixer rod and out of any
// neighbor closer than the sum of their radii. Like Query, the force lands
// on the visited agent only. A nil mixer disables the rod.
func ContactPass(agents []particles.Agent, grid *spatial.Grid, mixer *Mixer, k float64, workers int) {
	dynamo.ParallelFor(len(agents), minChunk, workers, func(start, end int) {
		for i := start; i < end; i++ {
			a := &agents[i]
			if mixer != nil {
				mixer.Repel(a, k)
			}

			force := a.Force
			grid.ForEachNeighbor(a.Position, func(j int) {
				if j == i {
					return
				}
				n := &agents[j]
				delta := r3.Sub(a.Position, n.Position)
				minDist := a.Radius + n.Radius
				distSq := r3.Norm2(delta)
				if distSq >= minDist*minDist || distSq <= epsilonSq {
					return
				}
				dist := math.Sqrt(distSq)
				force = r3.Add(force, r3.Scale(k*(minDist-dist)/dist, delta))
			})
			a.Force = force
		}
	})
}
