package particles

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Populate creates n agents at rest inside c. Radial distance is drawn as
// sqrt(U(0, 0.9*R)) and height uniformly from the bottom metre of the
// container, mirroring how the dough is dropped into the bowl.
func Populate(n int, c Container, rng *rand.Rand) []Agent {
	agents := make([]Agent, 0, n)
	maxR := c.Radius * 0.9
	yLo := c.Floor + 0.1
	yHi := min(c.Floor+1.0, c.Lid)

	for i := 0; i < n; i++ {
		r := math.Sqrt(rng.Float64() * maxR)
		theta := rng.Float64() * 2 * math.Pi
		y := yLo + rng.Float64()*(yHi-yLo)
		pos := r3.Vec{X: r * math.Cos(theta), Y: y, Z: r * math.Sin(theta)}

		agents = append(agents, NewAgent(i, pos, DrawCategory(rng.Float64())))
	}
	return agents
}

// CountByCategory tallies agents per category.
func CountByCategory(agents []Agent) map[Category]int {
	out := make(map[Category]int, numCategories)
	for i := range agents {
		out[agents[i].Category]++
	}
	return out
}
