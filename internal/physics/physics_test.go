package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

var testInteraction = Interaction{
	CollisionRadius: 0.1,
	RepulsionK:      1000,
	StaticFriction:  0.5,
	DynamicFriction: 0.3,
	StaticSpeed:     0.1,
	BondDistance:    0.15,
	BondProbability: 1.0,
}

var testSpec = particles.BondSpec{Stiffness: 2500, Breaking: 0.5}

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-6
}

func gridFor(agents []particles.Agent) *spatial.Grid {
	g := spatial.NewDefaultGrid()
	g.Rebuild(len(agents), func(i int) r3.Vec { return agents[i].Position })
	return g
}

func TestMixerTrajectory(t *testing.T) {
	m := NewMixer()
	if !near(m.Position, r3.Vec{X: 0, Z: 0.5}) {
		t.Errorf("start position = %v", m.Position)
	}

	m.Speed = 2
	m.Update(0.25)
	want := r3.Vec{X: 0.5 * math.Sin(3*0.5), Z: 0.5 * math.Cos(2*0.5)}
	if !near(m.Position, want) {
		t.Errorf("position = %v, want %v", m.Position, want)
	}
}

func TestMixerRepel(t *testing.T) {
	m := NewMixer()
	m.Position = r3.Vec{}

	a := particles.NewAgent(0, r3.Vec{X: 0.1, Y: 1.2}, particles.Builder)
	m.Repel(&a, 1000)
	// overlap = 0.1 + 0.03 - 0.1
	want := r3.Vec{X: 1000 * 0.03}
	if !near(a.Force, want) {
		t.Errorf("force = %v, want %v", a.Force, want)
	}

	far := particles.NewAgent(1, r3.Vec{X: 0.5}, particles.Builder)
	m.Repel(&far, 1000)
	if far.Force != (r3.Vec{}) {
		t.Errorf("expected no force outside rod, got %v", far.Force)
	}
}

func TestEnvironmentModes(t *testing.T) {
	pos := r3.Vec{X: 0.2, Y: -0.4, Z: 0.1}

	tests := []struct {
		name string
		env  Environment
		want r3.Vec
	}{
		{"none", Environment{Mode: GravityNone}, r3.Vec{}},
		{"gravity", Environment{Mode: GravityDown, Gravity: StandardGravity}, r3.Vec{Y: -9.81 * 2}},
		{"central", Environment{Mode: GravityCentral, CentralK: 5}, r3.Vec{X: -1.0, Y: 2.0, Z: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := particles.NewAgent(0, pos, particles.Builder)
			a.Force = r3.Vec{X: 99}
			// a nil rng must be safe at zero temperature
			tt.env.Apply(&a, nil)
			if !near(a.Force, tt.want) {
				t.Errorf("force = %v, want %v", a.Force, tt.want)
			}
		})
	}
}

func TestBrownianJitterBounded(t *testing.T) {
	env := Environment{Temperature: 20}
	rng := rand.New(rand.NewSource(1))
	limit := 20 * BrownianScale

	nonzero := false
	for i := 0; i < 200; i++ {
		a := particles.NewAgent(0, r3.Vec{}, particles.Linker)
		env.Apply(&a, rng)
		for _, c := range []float64{a.Force.X, a.Force.Y, a.Force.Z} {
			if math.Abs(c) > limit {
				t.Fatalf("jitter component %v exceeds %v", c, limit)
			}
			if c != 0 {
				nonzero = true
			}
		}
	}
	if !nonzero {
		t.Error("expected some jitter")
	}
}

func TestQueryRepulsionOnlyOnQueryingAgent(t *testing.T) {
	agents := []particles.Agent{
		particles.NewAgent(0, r3.Vec{}, particles.Linker),
		particles.NewAgent(1, r3.Vec{X: 0.05}, particles.Linker),
	}
	grid := gridFor(agents)

	in := testInteraction
	in.BondProbability = 0
	in.Query(agents, grid, 0, 0.01, nil, nil)

	want := r3.Vec{X: -0.05 * 1000}
	if !near(agents[0].Force, want) {
		t.Errorf("querying agent force = %v, want %v", agents[0].Force, want)
	}
	if agents[1].Force != (r3.Vec{}) {
		t.Errorf("neighbor force changed: %v", agents[1].Force)
	}
}

func TestQueryFriction(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		mu   float64
	}{
		{"dynamic", -0.01, 0.3},
		{"static", -0.0005, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents := []particles.Agent{
				particles.NewAgent(0, r3.Vec{}, particles.Linker),
				particles.NewAgent(1, r3.Vec{X: 0.05}, particles.Linker),
			}
			agents[0].Previous = r3.Vec{Z: tt.prev}
			grid := gridFor(agents)

			in := testInteraction
			in.BondProbability = 0
			in.Query(agents, grid, 0, 0.01, nil, nil)

			want := r3.Vec{X: -50, Z: -50 * tt.mu}
			if !near(agents[0].Force, want) {
				t.Errorf("force = %v, want %v", agents[0].Force, want)
			}
		})
	}
}

func TestQueryBondProposals(t *testing.T) {
	tests := []struct {
		name   string
		a, b   particles.Category
		sep    float64
		prob   float64
		expect bool
	}{
		{"builder-linker", particles.Builder, particles.Linker, 0.12, 1, true},
		{"builder-builder", particles.Builder, particles.Builder, 0.12, 1, true},
		{"linker-builder", particles.Linker, particles.Builder, 0.12, 1, false},
		{"builder-filler", particles.Builder, particles.Filler, 0.12, 1, false},
		{"too far", particles.Builder, particles.Linker, 0.16, 1, false},
		{"zero probability", particles.Builder, particles.Linker, 0.12, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents := []particles.Agent{
				particles.NewAgent(0, r3.Vec{}, tt.a),
				particles.NewAgent(1, r3.Vec{X: tt.sep}, tt.b),
			}
			in := testInteraction
			in.BondProbability = tt.prob
			got := in.Query(agents, gridFor(agents), 0, 0.01, rand.New(rand.NewSource(3)), nil)
			if (len(got) == 1) != tt.expect {
				t.Errorf("proposals = %v, expect bond %v", got, tt.expect)
			}
		})
	}
}

func TestChemistryPassAndMerge(t *testing.T) {
	c := particles.DefaultContainer()
	agents := particles.Populate(800, c, rand.New(rand.NewSource(7)))
	grid := gridFor(agents)
	g := particles.NewGraph()

	for round := 0; round < 3; round++ {
		EnvironmentPass(agents, Environment{Temperature: 5}, 4, int64(round))
		props := ChemistryPass(agents, grid, testInteraction, 0.01, 4, int64(round))
		Merge(g, agents, props, testSpec)
		if err := g.Validate(agents); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}
	if g.Len() == 0 {
		t.Error("expected bonds in a dense population with probability 1")
	}
}

func TestContactPass(t *testing.T) {
	agents := []particles.Agent{
		particles.NewAgent(0, r3.Vec{}, particles.Filler),
		particles.NewAgent(1, r3.Vec{X: 0.08}, particles.Filler),
	}
	ContactPass(agents, gridFor(agents), nil, 1000, 1)

	// radius sum 0.1, overlap 0.02
	if !near(agents[0].Force, r3.Vec{X: -20}) || !near(agents[1].Force, r3.Vec{X: 20}) {
		t.Errorf("forces = %v, %v", agents[0].Force, agents[1].Force)
	}
}

func TestResolveSprings(t *testing.T) {
	agents := []particles.Agent{
		particles.NewAgent(0, r3.Vec{}, particles.Builder),
		particles.NewAgent(1, r3.Vec{X: 0.1}, particles.Builder),
		particles.NewAgent(2, r3.Vec{X: 0.2}, particles.Linker),
	}
	g := particles.NewGraph()
	g.Connect(agents, 0, 1, testSpec)
	g.Connect(agents, 1, 2, testSpec)

	agents[1].Position = r3.Vec{X: 0.12}
	agents[2].Position = r3.Vec{X: 0.9}

	broken := ResolveSprings(g, agents)
	if broken != 1 || g.Broken() != 1 || g.Len() != 1 {
		t.Fatalf("broken=%d total=%d len=%d", broken, g.Broken(), g.Len())
	}
	if agents[2].Degree() != 0 || agents[1].IsConnected(2) {
		t.Error("broken bond still referenced")
	}

	// stretched by 0.02
	f := 2500 * 0.02
	if math.Abs(agents[0].Force.X-f) > tol || math.Abs(agents[1].Force.X+f) > tol {
		t.Errorf("spring forces = %v, %v", agents[0].Force, agents[1].Force)
	}
	if agents[2].Force != (r3.Vec{}) {
		t.Errorf("broken bond applied force %v", agents[2].Force)
	}
}
