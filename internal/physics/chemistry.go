package physics

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// separations at or below epsilon produce no force
	epsilon   = 1e-4
	epsilonSq = epsilon * epsilon

	minTangentSpeed = 1e-4
	minChunk        = 64
)

// Interaction holds the neighbor-pass constants: volume repulsion, Coulomb
// friction and bond formation.
type Interaction struct {
	CollisionRadius float64
	RepulsionK      float64
	StaticFriction  float64
	DynamicFriction float64
	// StaticSpeed is the tangential speed below which StaticFriction applies.
	StaticSpeed     float64
	BondDistance    float64
	BondProbability float64
}

// Proposal is a bond requested during the parallel pass.
type Proposal struct {
	A, B int
}

// Query applies repulsion and friction from every neighbor of agent i to
// agent i only, and appends bond proposals to out. It reads neighbor
// positions and connected sets but writes nothing except agents[i].Force.
func (in Interaction) Query(agents []particles.Agent, grid *spatial.Grid, i int, dt float64, rng *rand.Rand, out []Proposal) []Proposal {
	a := &agents[i]
	colSq := in.CollisionRadius * in.CollisionRadius
	velA := a.Velocity(dt)
	force := a.Force

	grid.ForEachNeighbor(a.Position, func(j int) {
		if j == i {
			return
		}
		n := &agents[j]
		delta := r3.Sub(a.Position, n.Position)
		distSq := r3.Norm2(delta)

		if distSq < colSq && distSq > epsilonSq {
			dist := math.Sqrt(distSq)
			dir := r3.Scale(1/dist, delta)
			repulsion := r3.Scale((in.CollisionRadius-dist)*in.RepulsionK, dir)
			force = r3.Add(force, repulsion)
			force = r3.Add(force, in.friction(r3.Sub(velA, n.Velocity(dt)), dir, r3.Norm(repulsion)))
		}

		if !a.Category.CanBond(n.Category) || distSq >= in.BondDistance*in.BondDistance {
			return
		}
		if in.BondProbability <= 0 || rng.Float64() >= in.BondProbability {
			return
		}
		if a.IsConnected(j) || !a.HasSpareDegree() || !n.HasSpareDegree() {
			return
		}
		out = append(out, Proposal{A: i, B: j})
	})

	a.Force = force
	return out
}

// friction opposes the tangential part of relVel with magnitude mu*normal.
func (in Interaction) friction(relVel, dir r3.Vec, normal float64) r3.Vec {
	vt := r3.Sub(relVel, r3.Scale(r3.Dot(relVel, dir), dir))
	speed := r3.Norm(vt)
	if speed <= minTangentSpeed {
		return r3.Vec{}
	}
	mu := in.DynamicFriction
	if speed < in.StaticSpeed {
		mu = in.StaticFriction
	}
	return r3.Scale(-normal*mu/speed, vt)
}

// EnvironmentPass resets and applies environment forces to every agent in
// parallel. Chunk RNGs are derived from seed and the chunk start.
func EnvironmentPass(agents []particles.Agent, env Environment, workers int, seed int64) {
	dynamo.ParallelFor(len(agents), minChunk, workers, func(start, end int) {
		rng := chunkRand(seed, start)
		for i := start; i < end; i++ {
			env.Apply(&agents[i], rng)
		}
	})
}

// ChemistryPass runs Query for every bondable agent in parallel and returns
// the collected bond proposals sorted by (A, B). The bond graph is not
// touched; feed the result to Merge.
func ChemistryPass(agents []particles.Agent, grid *spatial.Grid, in Interaction, dt float64, workers int, seed int64) []Proposal {
	var (
		mu        sync.Mutex
		proposals []Proposal
	)

	dynamo.ParallelFor(len(agents), minChunk, workers, func(start, end int) {
		rng := chunkRand(seed, start)
		var local []Proposal
		for i := start; i < end; i++ {
			if !agents[i].Bondable() {
				continue
			}
			local = in.Query(agents, grid, i, dt, rng, local)
		}
		if len(local) == 0 {
			return
		}
		mu.Lock()
		proposals = append(proposals, local...)
		mu.Unlock()
	})

	slices.SortFunc(proposals, func(x, y Proposal) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return proposals
}

// Merge turns proposals into bonds. Connect re-checks duplicates and spare
// degree, so conflicting proposals from different workers are dropped.
func Merge(g *particles.Graph, agents []particles.Agent, proposals []Proposal, spec particles.BondSpec) int {
	made := 0
	for _, p := range proposals {
		if g.Connect(agents, p.A, p.B, spec) {
			made++
		}
	}
	return made
}

func chunkRand(seed int64, start int) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ int64(start)*0x5851F42D4C957F2D))
}
