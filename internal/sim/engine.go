package sim

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/integrators"
	"github.com/san-kum/glutensim/internal/metrics"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/physics"
	"github.com/san-kum/glutensim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Observer receives every analytics sample. It is called after the engine
// lock is released, so it may read from the engine.
type Observer interface {
	OnSample(s metrics.Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(metrics.Sample)

func (f ObserverFunc) OnSample(s metrics.Sample) { f(s) }

// Engine owns the agents, the bond graph and everything needed to step
// them. All exported methods are safe for concurrent use.
type Engine struct {
	mu sync.RWMutex

	cfg     Config
	params  Params
	workers int

	agents []particles.Agent
	// initial is the caller's arena for engines built with NewWithAgents.
	initial []particles.Agent
	bonds   *particles.Graph
	grid   *spatial.Grid
	mixer  physics.Mixer
	verlet *integrators.Verlet
	rng    *rand.Rand

	metrics   []metrics.Metric
	observers []Observer
	series    *metrics.Series
	pending   []metrics.Sample

	time    float64
	tick    uint64
	acc     float64
	dropped int

	log dynamo.Logger
}

// New validates cfg and populates cfg.Agents agents from cfg.Seed.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	agents := particles.Populate(cfg.Agents, cfg.Container, rng)
	return build(cfg, agents, rng), nil
}

// NewWithAgents starts from a caller-built arena instead of a random
// population. Agent IDs must equal their index. Existing connections are
// discarded; bonds are made with Connect.
func NewWithAgents(cfg Config, agents []particles.Agent) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	own := make([]particles.Agent, len(agents))
	for i, a := range agents {
		if a.ID != i {
			return nil, fmt.Errorf("%w: agent at index %d has id %d", dynamo.ErrInvalidConfig, i, a.ID)
		}
		if !a.Category.Valid() || a.Mass <= 0 {
			return nil, fmt.Errorf("%w: agent %d has category %d and mass %f", dynamo.ErrInvalidConfig, i, a.Category, a.Mass)
		}
		a.Connected = nil
		own[i] = a
	}
	cfg.Agents = len(own)
	e := build(cfg, own, rand.New(rand.NewSource(cfg.Seed)))
	e.initial = slices.Clone(own)
	return e, nil
}

func build(cfg Config, agents []particles.Agent, rng *rand.Rand) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = dynamo.DefaultWorkers()
	}
	verlet := integrators.NewVerlet(cfg.Container)
	verlet.Damping = cfg.Damping

	e := &Engine{
		cfg:     cfg,
		params:  cfg.Params,
		workers: workers,
		agents:  agents,
		bonds:   particles.NewGraph(),
		grid:    spatial.NewGrid(cfg.GridCellSize, cfg.GridOffset, cfg.GridCells, cfg.GridCells, cfg.GridCells),
		mixer:   physics.NewMixer(),
		verlet:  verlet,
		rng:     rng,
		metrics: metrics.Defaults(),
		series:  metrics.NewSeries(cfg.HistorySize),
		log:     dynamo.NopLogger{},
	}
	e.mixer.Speed = cfg.Params.MixerSpeed
	e.mixer.Update(0)
	return e
}

func (e *Engine) SetLogger(l dynamo.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = dynamo.NopLogger{}
	}
	e.log = l
}

func (e *Engine) AddMetric(m metrics.Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, m)
}

func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Connect bonds agents a and b outside the chemistry pass, with the same
// rules. It reports whether a bond was made.
func (e *Engine) Connect(a, b int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a < 0 || b < 0 || a >= len(e.agents) || b >= len(e.agents) {
		return false
	}
	return e.bonds.Connect(e.agents, a, b, e.bondSpec())
}

// Tick runs exactly one step of length dt, paused or not.
func (e *Engine) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	e.mu.Lock()
	e.step(dt)
	notify := e.drain()
	e.mu.Unlock()
	notify()
}

// Advance feeds frameDt of wall time into the fixed-step accumulator and
// returns the number of ticks run. While paused it does nothing.
func (e *Engine) Advance(frameDt float64) int {
	e.mu.Lock()
	if e.params.Paused || !(frameDt > 0) {
		e.mu.Unlock()
		return 0
	}

	frameDt = min(frameDt, e.cfg.MaxFrameTime) * e.params.TimeScale
	e.acc += frameDt

	step := e.cfg.FixedStep
	ticks := 0
	for e.acc >= step-step*1e-9 && ticks < e.cfg.MaxTicksPerCall {
		e.step(step)
		e.acc -= step
		ticks++
	}
	if ticks == e.cfg.MaxTicksPerCall && e.acc >= step-step*1e-9 {
		e.log.Warnf("catch-up limit reached at tick %d, dropping %.4fs", e.tick, e.acc)
		e.acc = 0
	} else if e.acc < 0 {
		e.acc = 0
	}

	notify := e.drain()
	e.mu.Unlock()
	notify()
	return ticks
}

// Run ticks at the fixed step until duration of simulated time has passed
// or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, duration float64) error {
	steps := int(duration/e.cfg.FixedStep + 0.5)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Tick(e.cfg.FixedStep)
	}
	return nil
}

// Reset restores the starting arena and reseeds the rng, keeping the
// current params. Engines from NewWithAgents get the caller's agents back;
// others repopulate from the configured seed.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rng = rand.New(rand.NewSource(e.cfg.Seed))
	if e.initial != nil {
		e.agents = slices.Clone(e.initial)
	} else {
		e.agents = particles.Populate(e.cfg.Agents, e.cfg.Container, e.rng)
	}
	e.bonds = particles.NewGraph()
	e.series.Reset()
	e.pending = e.pending[:0]
	for _, m := range e.metrics {
		m.Reset()
	}
	e.time, e.tick, e.acc, e.dropped = 0, 0, 0, 0
	e.mixer.Update(0)
}

func (e *Engine) bondSpec() particles.BondSpec {
	return particles.BondSpec{
		Stiffness: e.cfg.SpringK,
		Breaking:  e.cfg.BreakingLength,
	}
}

func (e *Engine) step(dt float64) {
	p := e.params

	e.bonds.Grow(dt, e.cfg.ExpansionRate, e.cfg.MinRestLength, e.cfg.MaxRestLength)

	env := physics.Environment{
		Mode:        p.Gravity,
		Gravity:     physics.StandardGravity,
		CentralK:    p.CentralK,
		Temperature: p.Temperature,
	}
	physics.EnvironmentPass(e.agents, env, e.workers, e.rng.Int63())

	e.dropped = e.grid.Rebuild(len(e.agents), func(i int) r3.Vec { return e.agents[i].Position })

	in := physics.Interaction{
		CollisionRadius: e.cfg.CollisionRadius,
		RepulsionK:      p.RepulsionK,
		StaticFriction:  p.StaticFriction,
		DynamicFriction: p.DynamicFriction,
		StaticSpeed:     e.cfg.StaticSpeed,
		BondDistance:    e.cfg.BondDistance,
		BondProbability: p.BondProbability,
	}
	proposals := physics.ChemistryPass(e.agents, e.grid, in, dt, e.workers, e.rng.Int63())
	physics.Merge(e.bonds, e.agents, proposals, e.bondSpec())

	e.time += dt
	e.mixer.Speed = p.MixerSpeed
	e.mixer.Update(e.time)

	var mixer *physics.Mixer
	if e.cfg.Mixer {
		mixer = &e.mixer
	}
	physics.ContactPass(e.agents, e.grid, mixer, p.RepulsionK, e.workers)

	if broken := physics.ResolveSprings(e.bonds, e.agents); broken > 0 {
		e.log.Debugf("tick %d: %d bonds broke, %d remain", e.tick, broken, e.bonds.Len())
	}

	e.verlet.Step(e.agents, dt)
	e.tick++

	if e.cfg.Debug {
		if err := e.bonds.Validate(e.agents); err != nil {
			panic(fmt.Sprintf("tick %d: %v", e.tick, err))
		}
	}

	if e.tick%uint64(e.cfg.SampleEvery) == 0 {
		e.sample()
	}
}

func (e *Engine) sample() {
	for _, m := range e.metrics {
		m.Observe(e.bonds, e.agents, e.time)
	}
	s := metrics.Sample{
		Tick:    e.tick,
		Time:    e.time,
		Bonds:   e.bonds.Len(),
		Broken:  e.bonds.Broken(),
		Modulus: metrics.EstimateModulus(e.bonds, e.agents),
	}
	e.series.Add(s)
	if len(e.observers) > 0 {
		e.pending = append(e.pending, s)
	}
}

// drain hands pending samples to a closure that notifies observers; call it
// after unlocking.
func (e *Engine) drain() func() {
	if len(e.pending) == 0 {
		return func() {}
	}
	samples := make([]metrics.Sample, len(e.pending))
	copy(samples, e.pending)
	e.pending = e.pending[:0]
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)

	return func() {
		for _, s := range samples {
			for _, o := range observers {
				o.OnSample(s)
			}
		}
	}
}

// CheckInvariants validates the bond graph against the agent arena.
func (e *Engine) CheckInvariants() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bonds.Validate(e.agents)
}
