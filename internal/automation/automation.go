package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of phases run back to back on one
// engine, e.g. knead then prove.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Phases      []Phase `yaml:"phases"`
}

// Phase sets Params on entry and then runs for Duration simulated seconds.
// Params not named keep their value from the previous phase.
type Phase struct {
	Name     string             `yaml:"name"`
	Duration float64            `yaml:"duration"`
	Params   map[string]float64 `yaml:"params"`
}

// PhaseResult records the engine stats around one phase.
type PhaseResult struct {
	Phase string
	Start sim.Stats
	End   sim.Stats
}

// Target is the part of the engine a scenario drives.
type Target interface {
	dynamo.Configurable
	Run(ctx context.Context, duration float64) error
	Stats() sim.Stats
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

// Validate checks phase durations and every parameter against its range
// without touching an engine.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("%w: scenario %q has no phases", dynamo.ErrInvalidConfig, s.Name)
	}
	p := sim.DefaultParams()
	for i, ph := range s.Phases {
		if ph.Duration <= 0 {
			return fmt.Errorf("%w: phase %d (%s) needs a positive duration", dynamo.ErrInvalidConfig, i+1, ph.Name)
		}
		for _, name := range sortedKeys(ph.Params) {
			var err error
			if p, err = p.With(name, ph.Params[name]); err != nil {
				return fmt.Errorf("phase %d (%s): %w", i+1, ph.Name, err)
			}
		}
	}
	return nil
}

// Duration is the total simulated time of all phases.
func (s *Scenario) Duration() float64 {
	total := 0.0
	for _, ph := range s.Phases {
		total += ph.Duration
	}
	return total
}

// RunScenario applies each phase to t in order. onPhase, if not nil, is
// called after every completed phase. A cancelled ctx stops the run and
// returns the phases finished so far.
func RunScenario(ctx context.Context, s *Scenario, t Target, onPhase func(i int, r PhaseResult)) ([]PhaseResult, error) {
	results := make([]PhaseResult, 0, len(s.Phases))

	for i, ph := range s.Phases {
		for _, name := range sortedKeys(ph.Params) {
			if err := t.SetParam(name, ph.Params[name]); err != nil {
				return results, fmt.Errorf("phase %d (%s): %w", i+1, ph.Name, err)
			}
		}

		r := PhaseResult{Phase: ph.Name, Start: t.Stats()}
		if err := t.Run(ctx, ph.Duration); err != nil {
			return results, fmt.Errorf("phase %d (%s): %w", i+1, ph.Name, err)
		}
		r.End = t.Stats()
		results = append(results, r)

		if onPhase != nil {
			onPhase(i, r)
		}
	}
	return results, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnsembleResult is the final state of one seed.
type EnsembleResult struct {
	Seed  int64
	Final sim.Stats
}

// RunEnsemble repeats the same run over several population seeds so the
// spread of the outcome can be judged. build returns a fresh engine for a
// seed.
func RunEnsemble(ctx context.Context, seeds []int64, duration float64, build func(seed int64) (*sim.Engine, error)) ([]EnsembleResult, error) {
	results := make([]EnsembleResult, 0, len(seeds))
	for _, seed := range seeds {
		e, err := build(seed)
		if err != nil {
			return results, fmt.Errorf("seed %d: %w", seed, err)
		}
		if err := e.Run(ctx, duration); err != nil {
			return results, err
		}
		results = append(results, EnsembleResult{Seed: seed, Final: e.Stats()})
	}
	return results, nil
}

// EnsembleStats returns the mean and standard deviation of the final
// modulus across results.
func EnsembleStats(results []EnsembleResult) (mean, std float64) {
	if len(results) == 0 {
		return 0, 0
	}
	for _, r := range results {
		mean += r.Final.Modulus
	}
	mean /= float64(len(results))
	for _, r := range results {
		d := r.Final.Modulus - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(results)))
}
