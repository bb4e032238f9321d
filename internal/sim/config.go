package sim

import (
	"fmt"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/integrators"
	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/spatial"
)

// Config fixes everything about a run that the control surface cannot
// change between ticks.
type Config struct {
	Agents  int
	Seed    int64
	Workers int

	FixedStep       float64
	MaxTicksPerCall int
	MaxFrameTime    float64
	SampleEvery     int
	HistorySize     int

	Container particles.Container
	Damping   float64
	Mixer     bool

	GridCellSize float64
	GridOffset   float64
	GridCells    int

	SpringK         float64
	CollisionRadius float64
	BondDistance    float64
	BreakingLength  float64
	MinRestLength   float64
	MaxRestLength   float64
	ExpansionRate   float64
	StaticSpeed     float64

	// Debug validates the bond graph after every tick and panics on failure.
	Debug bool

	Params Params
}

func DefaultConfig() Config {
	return Config{
		Agents:          1000,
		Seed:            42,
		FixedStep:       0.01,
		MaxTicksPerCall: 8,
		MaxFrameTime:    0.1,
		SampleEvery:     10,
		HistorySize:     4096,
		Container:       particles.DefaultContainer(),
		Damping:         integrators.DefaultDamping,
		Mixer:           true,
		GridCellSize:    spatial.DefaultCellSize,
		GridOffset:      spatial.DefaultOffset,
		GridCells:       spatial.DefaultCells,
		SpringK:         2500,
		CollisionRadius: 0.1,
		BondDistance:    0.15,
		BreakingLength:  0.5,
		MinRestLength:   0.05,
		MaxRestLength:   0.5,
		ExpansionRate:   0.001,
		StaticSpeed:     0.1,
		Params:          DefaultParams(),
	}
}

func (c Config) Validate() error {
	switch {
	case c.Agents < 0:
		return fmt.Errorf("%w: agents must be non-negative, got %d", dynamo.ErrInvalidConfig, c.Agents)
	case c.FixedStep <= 0:
		return fmt.Errorf("%w: fixed step must be positive, got %f", dynamo.ErrInvalidConfig, c.FixedStep)
	case c.MaxTicksPerCall < 1:
		return fmt.Errorf("%w: max ticks per call must be >= 1, got %d", dynamo.ErrInvalidConfig, c.MaxTicksPerCall)
	case c.SampleEvery < 1:
		return fmt.Errorf("%w: sample interval must be >= 1, got %d", dynamo.ErrInvalidConfig, c.SampleEvery)
	case c.Container.Lid <= c.Container.Floor || c.Container.Radius <= 0:
		return fmt.Errorf("%w: degenerate container %+v", dynamo.ErrInvalidConfig, c.Container)
	case c.Damping < 0 || c.Damping > 1:
		return fmt.Errorf("%w: damping must be in [0, 1], got %f", dynamo.ErrInvalidConfig, c.Damping)
	case c.GridCellSize <= 0 || c.GridCells < 1:
		return fmt.Errorf("%w: grid needs a positive cell size and count", dynamo.ErrInvalidConfig)
	case c.MinRestLength <= 0 || c.MaxRestLength < c.MinRestLength:
		return fmt.Errorf("%w: rest length bounds [%f, %f]", dynamo.ErrInvalidConfig, c.MinRestLength, c.MaxRestLength)
	case c.BreakingLength <= 0:
		return fmt.Errorf("%w: breaking length must be positive", dynamo.ErrInvalidConfig)
	}
	return c.Params.Validate()
}
