package particles

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Agent is one simulated particle.
type Agent struct {
	ID       int
	Position r3.Vec
	Previous r3.Vec
	Force    r3.Vec

	Mass     float64
	Radius   float64
	Fixed    bool
	Category Category

	// Connected lists the ids of bonded agents in bond-creation order.
	Connected []int
}

// NewAgent builds an agent at rest at pos with the constants of c.
func NewAgent(id int, pos r3.Vec, c Category) Agent {
	t := c.Traits()
	return Agent{
		ID:        id,
		Position:  pos,
		Previous:  pos,
		Mass:      t.Mass,
		Radius:    t.Radius,
		Category:  c,
		Connected: make([]int, 0, t.MaxDegree),
	}
}

// MaxDegree is the bond capacity of the agent's category.
func (a *Agent) MaxDegree() int {
	return a.Category.Traits().MaxDegree
}

// Degree is the current number of bonds.
func (a *Agent) Degree() int {
	return len(a.Connected)
}

// HasSpareDegree reports whether another bond may attach.
func (a *Agent) HasSpareDegree() bool {
	return len(a.Connected) < a.MaxDegree()
}

// Bondable reports whether the agent takes part in the chemistry query.
func (a *Agent) Bondable() bool {
	return a.Category != Filler && a.HasSpareDegree()
}

// IsConnected reports whether id is bonded to a.
func (a *Agent) IsConnected(id int) bool {
	return slices.Contains(a.Connected, id)
}

// Velocity is the displacement over the last step divided by dt.
func (a *Agent) Velocity(dt float64) r3.Vec {
	if dt <= 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/dt, r3.Sub(a.Position, a.Previous))
}

func (a *Agent) disconnect(id int) {
	a.Connected = slices.DeleteFunc(a.Connected, func(c int) bool { return c == id })
}
