package integrators

import (
	"math"

	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultDamping is the fraction of the previous displacement kept per step.
	DefaultDamping = 0.99

	bounceRetention = 0.5
	planeRetention  = 0.9
	wallRetention   = 0.5
)

// Verlet is a damped position-Verlet stepper with container constraints.
// Velocity is implicit in Position - Previous.
type Verlet struct {
	Damping   float64
	Container particles.Container
}

func NewVerlet(c particles.Container) *Verlet {
	return &Verlet{Damping: DefaultDamping, Container: c}
}

// Step advances every non-fixed agent by dt and applies the floor, lid and
// wall constraints, in that order.
func (v *Verlet) Step(agents []particles.Agent, dt float64) {
	dt2 := dt * dt
	for i := range agents {
		a := &agents[i]
		if a.Fixed {
			continue
		}

		acc := r3.Scale(1/a.Mass, a.Force)
		vel := r3.Sub(a.Position, a.Previous)
		next := r3.Add(a.Position, r3.Add(r3.Scale(v.Damping, vel), r3.Scale(dt2, acc)))
		a.Previous = a.Position
		a.Position = next

		v.constrain(a)
	}
}

func (v *Verlet) constrain(a *particles.Agent) {
	c := v.Container

	if low := c.Floor + a.Radius; a.Position.Y < low {
		clampPlane(a, low)
	}
	if high := c.Lid - a.Radius; a.Position.Y > high {
		clampPlane(a, high)
	}

	maxDist := c.Radius - a.Radius
	distSq := a.Position.X*a.Position.X + a.Position.Z*a.Position.Z
	if distSq > maxDist*maxDist {
		dist := math.Sqrt(distSq)
		a.Position.X *= maxDist / dist
		a.Position.Z *= maxDist / dist
		a.Previous.X = a.Position.X - (a.Position.X-a.Previous.X)*wallRetention
		a.Previous.Z = a.Position.Z - (a.Position.Z-a.Previous.Z)*wallRetention
	}
}

// clampPlane pins y to the plane, reverses half of the vertical motion and
// keeps 90% of the horizontal motion.
func clampPlane(a *particles.Agent, y float64) {
	dy := a.Position.Y - a.Previous.Y
	a.Position.Y = y
	a.Previous.Y = y + dy*bounceRetention
	a.Previous.X = a.Position.X - (a.Position.X-a.Previous.X)*planeRetention
	a.Previous.Z = a.Position.Z - (a.Position.Z-a.Previous.Z)*planeRetention
}
