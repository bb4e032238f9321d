package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/glutensim/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVerletFreeMotion(t *testing.T) {
	v := NewVerlet(particles.Container{Floor: -10, Lid: 10, Radius: 10})
	a := particles.NewAgent(0, r3.Vec{X: 1}, particles.Linker)
	a.Previous = r3.Vec{X: 0.9}
	a.Force = r3.Vec{Y: 4} // mass 1

	agents := []particles.Agent{a}
	v.Step(agents, 0.1)

	got := agents[0]
	wantX := 1 + 0.1*DefaultDamping
	wantY := 4 * 0.01
	if math.Abs(got.Position.X-wantX) > 1e-12 || math.Abs(got.Position.Y-wantY) > 1e-12 {
		t.Errorf("position = %v, want (%v, %v, 0)", got.Position, wantX, wantY)
	}
	if got.Previous != (r3.Vec{X: 1}) {
		t.Errorf("previous = %v, want pre-step position", got.Previous)
	}
}

func TestVerletFixedAgent(t *testing.T) {
	v := NewVerlet(particles.DefaultContainer())
	a := particles.NewAgent(0, r3.Vec{Y: 0.5}, particles.Filler)
	a.Fixed = true
	a.Force = r3.Vec{Y: -1000}

	agents := []particles.Agent{a}
	for i := 0; i < 10; i++ {
		v.Step(agents, 0.01)
	}
	if agents[0].Position != (r3.Vec{Y: 0.5}) {
		t.Errorf("fixed agent moved to %v", agents[0].Position)
	}
}

func TestVerletFloorBounce(t *testing.T) {
	c := particles.DefaultContainer()
	v := NewVerlet(c)
	a := particles.NewAgent(0, r3.Vec{X: 0.1, Y: c.Floor + 0.035}, particles.Builder)
	a.Previous = r3.Vec{X: 0.09, Y: c.Floor + 0.045}

	agents := []particles.Agent{a}
	v.Step(agents, 0.01)
	got := agents[0]

	floor := c.Floor + got.Radius
	if got.Position.Y != floor {
		t.Fatalf("y = %v, want clamp to %v", got.Position.Y, floor)
	}
	if vy := got.Position.Y - got.Previous.Y; vy <= 0 {
		t.Errorf("expected upward implied velocity after bounce, got %v", vy)
	}
	dx := got.Position.X - got.Previous.X
	if math.Abs(dx-0.01*DefaultDamping*planeRetention) > 1e-12 {
		t.Errorf("horizontal displacement = %v, want 90%% of %v", dx, 0.01*DefaultDamping)
	}
}

func TestVerletGravityNeverBelowFloor(t *testing.T) {
	c := particles.DefaultContainer()
	v := NewVerlet(c)
	a := particles.NewAgent(0, r3.Vec{Y: c.Floor + 0.02}, particles.Filler)
	agents := []particles.Agent{a}

	for i := 0; i < 50; i++ {
		agents[0].Force = r3.Scale(agents[0].Mass, r3.Vec{Y: -9.81})
		v.Step(agents, 0.01)
		if agents[0].Position.Y < c.Floor+agents[0].Radius {
			t.Fatalf("step %d: y = %v below floor", i, agents[0].Position.Y)
		}
	}
}

func TestVerletLidClamp(t *testing.T) {
	c := particles.DefaultContainer()
	v := NewVerlet(c)
	a := particles.NewAgent(0, r3.Vec{Y: c.Lid - 0.01}, particles.Linker)
	a.Previous = r3.Vec{Y: c.Lid - 0.05}

	agents := []particles.Agent{a}
	v.Step(agents, 0.01)
	if want := c.Lid - a.Radius; agents[0].Position.Y != want {
		t.Errorf("y = %v, want %v", agents[0].Position.Y, want)
	}
	if vy := agents[0].Position.Y - agents[0].Previous.Y; vy >= 0 {
		t.Errorf("expected downward implied velocity after lid, got %v", vy)
	}
}

func TestVerletWallProjection(t *testing.T) {
	c := particles.DefaultContainer()
	v := NewVerlet(c)
	start := r3.Vec{X: 1.3, Y: 0, Z: 0.4}
	a := particles.NewAgent(0, start, particles.Builder)

	agents := []particles.Agent{a}
	v.Step(agents, 0.01)

	got := agents[0].Position
	dist := math.Hypot(got.X, got.Z)
	if math.Abs(dist-(c.Radius-a.Radius)) > 1e-12 {
		t.Errorf("distance from axis = %v, want %v", dist, c.Radius-a.Radius)
	}
	// direction preserved
	if math.Abs(got.Z/got.X-start.Z/start.X) > 1e-12 {
		t.Errorf("projection changed direction: %v", got)
	}
}
