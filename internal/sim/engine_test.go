package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/metrics"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/physics"
	"github.com/san-kum/glutensim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// quietConfig has no noise, no chemistry and no mixer.
func quietConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Agents = 0
	cfg.Workers = 1
	cfg.Mixer = false
	cfg.Params.Temperature = 0
	cfg.Params.BondProbability = 0
	return cfg
}

func agentAt(id int, c particles.Category, x, y, z float64) particles.Agent {
	return particles.NewAgent(id, r3.Vec{X: x, Y: y, Z: z}, c)
}

func expectConsistent(e *sim.Engine) {
	Expect(e.CheckInvariants()).To(Succeed())
	snap := e.Snapshot()
	for i := range snap.Positions {
		a, ok := e.Agent(i)
		Expect(ok).To(BeTrue())
		Expect(a.Degree()).To(BeNumerically("<=", a.MaxDegree()))
	}
}

var _ = Describe("Engine", func() {
	Describe("construction", func() {
		It("populates the configured number of agents", func() {
			cfg := sim.DefaultConfig()
			cfg.Agents = 250
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			st := e.Stats()
			Expect(st.Agents).To(Equal(250))
			Expect(st.Bonds).To(BeZero())
			Expect(st.Tick).To(BeZero())
		})

		It("rejects an invalid config", func() {
			cfg := sim.DefaultConfig()
			cfg.FixedStep = 0
			_, err := sim.New(cfg)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects agents whose id does not match their index", func() {
			_, err := sim.NewWithAgents(quietConfig(), []particles.Agent{
				agentAt(1, particles.Builder, 0, 0, 0),
			})
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})
	})

	Describe("bond formation", func() {
		It("bonds a builder and a linker inside bond distance with rest equal to the separation", func() {
			cfg := quietConfig()
			cfg.Params.BondProbability = 1
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Builder, 0, 0, 0),
				agentAt(1, particles.Linker, 0.12, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Tick(cfg.FixedStep)

			bonds := e.Bonds()
			Expect(bonds).To(HaveLen(1))
			Expect(bonds[0].A).To(Equal(0))
			Expect(bonds[0].B).To(Equal(1))
			Expect(bonds[0].Rest).To(BeNumerically("~", 0.12, 1e-12))

			b, _ := e.Agent(0)
			l, _ := e.Agent(1)
			Expect(b.Connected).To(Equal([]int{1}))
			Expect(l.Connected).To(Equal([]int{0}))
		})

		It("keeps a separation shorter than the minimum rest length until the next tick", func() {
			cfg := quietConfig()
			cfg.Params.BondProbability = 1
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Builder, 0, 0, 0),
				agentAt(1, particles.Linker, 0.03, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Tick(cfg.FixedStep)
			bonds := e.Bonds()
			Expect(bonds).To(HaveLen(1))
			Expect(bonds[0].Rest).To(BeNumerically("~", 0.03, 1e-12))

			e.Tick(cfg.FixedStep)
			bonds = e.Bonds()
			Expect(bonds).To(HaveLen(1))
			Expect(bonds[0].Rest).To(Equal(cfg.MinRestLength))
		})

		It("never bonds fillers", func() {
			cfg := quietConfig()
			cfg.Params.BondProbability = 1
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Filler, 0, 0, 0),
				agentAt(1, particles.Builder, 0.12, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				e.Tick(cfg.FixedStep)
			}
			Expect(e.Bonds()).To(BeEmpty())
		})

		It("does not let linkers initiate bonds", func() {
			cfg := quietConfig()
			cfg.Params.BondProbability = 1
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Linker, 0, 0, 0),
				agentAt(1, particles.Linker, 0.12, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Tick(cfg.FixedStep)
			Expect(e.Bonds()).To(BeEmpty())
		})

		It("caps a linker at two bonds", func() {
			cfg := quietConfig()
			cfg.Params.BondProbability = 1
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Linker, 0, 0, 0),
				agentAt(1, particles.Builder, 0.12, 0, 0),
				agentAt(2, particles.Builder, -0.12, 0, 0),
				agentAt(3, particles.Builder, 0, 0, 0.12),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Tick(cfg.FixedStep)
			l, _ := e.Agent(0)
			Expect(l.Degree()).To(Equal(2))
			expectConsistent(e)
		})
	})

	Describe("bond breakage", func() {
		It("removes an overstretched bond and counts it exactly once", func() {
			e, err := sim.NewWithAgents(quietConfig(), []particles.Agent{
				agentAt(0, particles.Builder, -0.3, 0, 0),
				agentAt(1, particles.Builder, 0.3, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Connect(0, 1)).To(BeTrue())

			e.Tick(0.01)

			st := e.Stats()
			Expect(st.Bonds).To(BeZero())
			Expect(st.Broken).To(Equal(uint64(1)))
			a, _ := e.Agent(0)
			Expect(a.Connected).To(BeEmpty())

			e.Tick(0.01)
			Expect(e.Stats().Broken).To(Equal(uint64(1)))
		})
	})

	Describe("invariants under load", func() {
		It("keeps the graph consistent after every tick", func() {
			cfg := sim.DefaultConfig()
			cfg.Agents = 400
			cfg.Workers = 4
			cfg.Params.BondProbability = 0.8
			cfg.Params.Gravity = physics.GravityDown
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			var broken uint64
			for i := 0; i < 60; i++ {
				e.Tick(cfg.FixedStep)
				expectConsistent(e)

				st := e.Stats()
				Expect(st.Broken).To(BeNumerically(">=", broken))
				broken = st.Broken
			}
			Expect(e.Stats().Bonds).To(BeNumerically(">", 0))
		})

		It("does not panic in debug mode", func() {
			cfg := sim.DefaultConfig()
			cfg.Agents = 200
			cfg.Debug = true
			cfg.Params.BondProbability = 1
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(func() { Expect(e.Run(context.Background(), 0.3)).To(Succeed()) }).NotTo(Panic())
		})
	})

	Describe("modulus", func() {
		It("is zero without bonds", func() {
			e, err := sim.NewWithAgents(quietConfig(), []particles.Agent{
				agentAt(0, particles.Builder, 0, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Stats().Modulus).To(BeZero())
		})

		It("is idempotent between ticks", func() {
			cfg := sim.DefaultConfig()
			cfg.Agents = 300
			cfg.Params.BondProbability = 1
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 20; i++ {
				e.Tick(cfg.FixedStep)
			}
			Expect(e.Stats().Modulus).To(Equal(e.Stats().Modulus))
		})
	})

	Describe("integration", func() {
		It("keeps a falling agent above the floor", func() {
			cfg := quietConfig()
			cfg.Params.Gravity = physics.GravityDown
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Linker, 0, 1, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 500; i++ {
				e.Tick(cfg.FixedStep)
				a, _ := e.Agent(0)
				Expect(a.Position.Y).To(BeNumerically(">=", cfg.Container.Floor+a.Radius))
			}
		})

		It("never moves a fixed agent", func() {
			cfg := quietConfig()
			cfg.Params.Gravity = physics.GravityDown
			cfg.Params.Temperature = 100
			fixed := agentAt(0, particles.Filler, 0.2, 0.3, 0)
			fixed.Fixed = true
			e, err := sim.NewWithAgents(cfg, []particles.Agent{fixed})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 100; i++ {
				e.Tick(cfg.FixedStep)
			}
			a, _ := e.Agent(0)
			Expect(a.Position).To(Equal(r3.Vec{X: 0.2, Y: 0.3}))
		})

		It("projects an agent outside the wall onto R - r", func() {
			cfg := quietConfig()
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				agentAt(0, particles.Builder, 2, 0, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			e.Tick(cfg.FixedStep)
			a, _ := e.Agent(0)
			Expect(a.Position.X).To(BeNumerically("~", cfg.Container.Radius-a.Radius, 1e-12))
			Expect(a.Position.Z).To(BeNumerically("~", 0, 1e-12))
		})
	})

	Describe("determinism", func() {
		run := func(workers int) sim.Snapshot {
			cfg := sim.DefaultConfig()
			cfg.Agents = 300
			cfg.Workers = workers
			cfg.Params.BondProbability = 0.5
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 40; i++ {
				e.Tick(cfg.FixedStep)
			}
			return e.Snapshot()
		}

		It("repeats a single-worker run exactly", func() {
			Expect(run(1)).To(Equal(run(1)))
		})

		It("repeats a multi-worker run exactly for a fixed worker count", func() {
			Expect(run(4)).To(Equal(run(4)))
		})
	})

	Describe("Advance", func() {
		var (
			cfg sim.Config
			e   *sim.Engine
		)

		BeforeEach(func() {
			cfg = quietConfig()
			var err error
			e, err = sim.NewWithAgents(cfg, []particles.Agent{agentAt(0, particles.Builder, 0, 0, 0)})
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs one tick per fixed step of frame time", func() {
			Expect(e.Advance(0.03)).To(Equal(3))
			Expect(e.Stats().Tick).To(Equal(uint64(3)))
		})

		It("carries a partial step to the next call", func() {
			Expect(e.Advance(0.015)).To(Equal(1))
			Expect(e.Advance(0.005)).To(Equal(1))
		})

		It("caps the ticks per call and drops the remainder", func() {
			Expect(e.Advance(5)).To(Equal(cfg.MaxTicksPerCall))
			Expect(e.Advance(0.01)).To(Equal(1))
		})

		It("scales frame time by the time scale", func() {
			Expect(e.SetTimeScale(2)).To(Succeed())
			Expect(e.Advance(0.025)).To(Equal(5))
		})

		It("ignores a NaN frame time", func() {
			Expect(e.Advance(math.NaN())).To(BeZero())
			Expect(e.Advance(0.05)).To(Equal(5))
		})

		It("does nothing while paused", func() {
			e.SetPaused(true)
			Expect(e.Advance(0.05)).To(BeZero())
			Expect(e.Stats().Tick).To(BeZero())

			Expect(e.TogglePause()).To(BeFalse())
			Expect(e.Advance(0.01)).To(Equal(1))
		})
	})

	Describe("sampling", func() {
		It("samples every SampleEvery ticks and notifies observers", func() {
			cfg := quietConfig()
			cfg.SampleEvery = 10
			e, err := sim.NewWithAgents(cfg, []particles.Agent{agentAt(0, particles.Builder, 0, 0, 0)})
			Expect(err).NotTo(HaveOccurred())

			var seen []uint64
			e.AddObserver(sim.ObserverFunc(func(s metrics.Sample) {
				seen = append(seen, s.Tick)
				_ = e.Stats()
			}))
			bonds := metrics.NewBondCount()
			e.AddMetric(bonds)

			Expect(e.Run(context.Background(), 0.3)).To(Succeed())
			Expect(seen).To(Equal([]uint64{10, 20, 30}))
			Expect(e.Samples()).To(HaveLen(3))
			Expect(e.Metrics()).To(HaveKeyWithValue("bonds", 0.0))
		})

		It("stops when the context is cancelled", func() {
			e, err := sim.NewWithAgents(quietConfig(), nil)
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(e.Run(ctx, 1)).To(MatchError(context.Canceled))
		})
	})

	Describe("Reset", func() {
		It("returns to the seeded population", func() {
			cfg := sim.DefaultConfig()
			cfg.Agents = 100
			e, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			before := e.Snapshot()

			for i := 0; i < 20; i++ {
				e.Tick(cfg.FixedStep)
			}
			e.Reset()
			after := e.Snapshot()
			Expect(after.Positions).To(Equal(before.Positions))
			Expect(after.Tick).To(BeZero())
		})

		It("restores caller supplied agents", func() {
			cfg := quietConfig()
			cfg.Params.Gravity = physics.GravityDown
			fixed := agentAt(0, particles.Filler, 0.2, 0, 0)
			fixed.Fixed = true
			e, err := sim.NewWithAgents(cfg, []particles.Agent{
				fixed,
				agentAt(1, particles.Linker, -0.2, 0.5, 0),
			})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 20; i++ {
				e.Tick(cfg.FixedStep)
			}
			e.Reset()

			a, ok := e.Agent(0)
			Expect(ok).To(BeTrue())
			Expect(a.Category).To(Equal(particles.Filler))
			Expect(a.Fixed).To(BeTrue())
			Expect(a.Position).To(Equal(r3.Vec{X: 0.2}))

			b, _ := e.Agent(1)
			Expect(b.Position).To(Equal(r3.Vec{X: -0.2, Y: 0.5}))
			Expect(e.Stats().Agents).To(Equal(2))
		})
	})
})
