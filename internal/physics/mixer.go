package physics

import (
	"math"

	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mixer is an infinite vertical rod moving on a Lissajous curve in the
// horizontal plane. Y is unused.
type Mixer struct {
	Position r3.Vec
	Radius   float64
	Speed    float64

	AmpX, AmpZ   float64
	FreqX, FreqZ float64
}

// NewMixer returns the default 3:2 rod of radius 0.1.
func NewMixer() Mixer {
	m := Mixer{Radius: 0.1, Speed: 1.0, AmpX: 0.5, AmpZ: 0.5, FreqX: 3.0, FreqZ: 2.0}
	m.Update(0)
	return m
}

// Update moves the rod to its position at simulation time t.
func (m *Mixer) Update(t float64) {
	s := t * m.Speed
	m.Position.X = m.AmpX * math.Sin(m.FreqX*s)
	m.Position.Z = m.AmpZ * math.Cos(m.FreqZ*s)
}

// Repel adds the radial push on a from the rod, scaled by k.
func (m *Mixer) Repel(a *particles.Agent, k float64) {
	dx := a.Position.X - m.Position.X
	dz := a.Position.Z - m.Position.Z
	distSq := dx*dx + dz*dz
	minDist := m.Radius + a.Radius
	if distSq >= minDist*minDist || distSq <= epsilonSq {
		return
	}
	dist := math.Sqrt(distSq)
	overlap := minDist - dist
	dir := r3.Vec{X: dx / dist, Z: dz / dist}
	a.Force = r3.Add(a.Force, r3.Scale(k*overlap, dir))
}
