package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

// GravityMode selects the environment force.
type GravityMode int

const (
	GravityNone GravityMode = iota
	GravityDown
	GravityCentral
)

func (m GravityMode) String() string {
	switch m {
	case GravityNone:
		return "none"
	case GravityDown:
		return "gravity"
	case GravityCentral:
		return "central"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseGravityMode accepts the String forms.
func ParseGravityMode(s string) (GravityMode, error) {
	switch s {
	case "none", "":
		return GravityNone, nil
	case "gravity", "down":
		return GravityDown, nil
	case "central":
		return GravityCentral, nil
	}
	return GravityNone, fmt.Errorf("unknown gravity mode: %s", s)
}

// StandardGravity is the acceleration used by GravityDown.
var StandardGravity = r3.Vec{Y: -9.81}

// BrownianScale converts temperature into jitter amplitude.
const BrownianScale = 0.5

// Environment holds the per-agent forces that need no neighbors.
type Environment struct {
	Mode        GravityMode
	Gravity     r3.Vec
	CentralK    float64
	Temperature float64
}

// Apply resets a's force accumulator, then adds the environment force and
// the Brownian jitter. rng is only consumed when Temperature > 0.
func (e Environment) Apply(a *particles.Agent, rng *rand.Rand) {
	a.Force = r3.Vec{}

	switch e.Mode {
	case GravityDown:
		a.Force = r3.Scale(a.Mass, e.Gravity)
	case GravityCentral:
		a.Force = r3.Scale(-e.CentralK, a.Position)
	}

	if e.Temperature > 0 {
		jitter := r3.Vec{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		a.Force = r3.Add(a.Force, r3.Scale(e.Temperature*BrownianScale, jitter))
	}
}
