package config

import (
	"fmt"
	"os"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/physics"
	"github.com/san-kum/glutensim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultAgents   = 1000
	DefaultSeed     = 42
)

type Config struct {
	Agents   int     `yaml:"agents"`
	Seed     int64   `yaml:"seed"`
	Workers  int     `yaml:"workers"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Mixer    bool    `yaml:"mixer"`
	Debug    bool    `yaml:"debug"`

	Stepping  SteppingConfig  `yaml:"stepping"`
	Container ContainerConfig `yaml:"container"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Params    ParamsConfig    `yaml:"params"`
}

type SteppingConfig struct {
	MaxTicksPerCall int     `yaml:"max_ticks_per_call"`
	MaxFrameTime    float64 `yaml:"max_frame_time"`
	SampleEvery     int     `yaml:"sample_every"`
	HistorySize     int     `yaml:"history_size"`
}

type ContainerConfig struct {
	Floor   float64 `yaml:"floor"`
	Lid     float64 `yaml:"lid"`
	Radius  float64 `yaml:"radius"`
	Damping float64 `yaml:"damping"`
}

type PhysicsConfig struct {
	SpringK         float64 `yaml:"spring_k"`
	CollisionRadius float64 `yaml:"collision_radius"`
	BondDistance    float64 `yaml:"bond_distance"`
	BreakingLength  float64 `yaml:"breaking_length"`
	MinRestLength   float64 `yaml:"min_rest_length"`
	MaxRestLength   float64 `yaml:"max_rest_length"`
	ExpansionRate   float64 `yaml:"expansion_rate"`
}

// ParamsConfig holds the initial tunables. Gravity is a mode name
// ("none", "gravity", "central").
type ParamsConfig struct {
	Temperature     float64 `yaml:"temperature"`
	BondProbability float64 `yaml:"bond_probability"`
	RepulsionK      float64 `yaml:"repulsion_k"`
	StaticFriction  float64 `yaml:"static_friction"`
	DynamicFriction float64 `yaml:"dynamic_friction"`
	Gravity         string  `yaml:"gravity"`
	CentralK        float64 `yaml:"central_k"`
	MixerSpeed      float64 `yaml:"mixer_speed"`
	TimeScale       float64 `yaml:"time_scale"`
}

func DefaultConfig() *Config {
	e := sim.DefaultConfig()
	return &Config{
		Agents:   DefaultAgents,
		Seed:     DefaultSeed,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Mixer:    e.Mixer,
		Stepping: SteppingConfig{
			MaxTicksPerCall: e.MaxTicksPerCall,
			MaxFrameTime:    e.MaxFrameTime,
			SampleEvery:     e.SampleEvery,
			HistorySize:     e.HistorySize,
		},
		Container: ContainerConfig{
			Floor:   e.Container.Floor,
			Lid:     e.Container.Lid,
			Radius:  e.Container.Radius,
			Damping: e.Damping,
		},
		Physics: PhysicsConfig{
			SpringK:         e.SpringK,
			CollisionRadius: e.CollisionRadius,
			BondDistance:    e.BondDistance,
			BreakingLength:  e.BreakingLength,
			MinRestLength:   e.MinRestLength,
			MaxRestLength:   e.MaxRestLength,
			ExpansionRate:   e.ExpansionRate,
		},
		Params: ParamsConfig{
			Temperature:     e.Params.Temperature,
			BondProbability: e.Params.BondProbability,
			RepulsionK:      e.Params.RepulsionK,
			StaticFriction:  e.Params.StaticFriction,
			DynamicFriction: e.Params.DynamicFriction,
			Gravity:         e.Params.Gravity.String(),
			CentralK:        e.Params.CentralK,
			MixerSpeed:      e.Params.MixerSpeed,
			TimeScale:       e.Params.TimeScale,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first problem that would stop the engine from
// starting.
func (c *Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidConfig, c.Duration)
	}
	_, err := c.ToEngine()
	return err
}

// ToEngine converts the file layout into a validated engine config.
func (c *Config) ToEngine() (sim.Config, error) {
	gravity, err := physics.ParseGravityMode(c.Params.Gravity)
	if err != nil {
		return sim.Config{}, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}

	e := sim.DefaultConfig()
	e.Agents = c.Agents
	e.Seed = c.Seed
	e.Workers = c.Workers
	e.FixedStep = c.Dt
	e.Mixer = c.Mixer
	e.Debug = c.Debug

	e.MaxTicksPerCall = c.Stepping.MaxTicksPerCall
	e.MaxFrameTime = c.Stepping.MaxFrameTime
	e.SampleEvery = c.Stepping.SampleEvery
	e.HistorySize = c.Stepping.HistorySize

	e.Container.Floor = c.Container.Floor
	e.Container.Lid = c.Container.Lid
	e.Container.Radius = c.Container.Radius
	e.Damping = c.Container.Damping

	e.SpringK = c.Physics.SpringK
	e.CollisionRadius = c.Physics.CollisionRadius
	e.BondDistance = c.Physics.BondDistance
	e.BreakingLength = c.Physics.BreakingLength
	e.MinRestLength = c.Physics.MinRestLength
	e.MaxRestLength = c.Physics.MaxRestLength
	e.ExpansionRate = c.Physics.ExpansionRate

	e.Params = sim.Params{
		Temperature:     c.Params.Temperature,
		BondProbability: c.Params.BondProbability,
		RepulsionK:      c.Params.RepulsionK,
		StaticFriction:  c.Params.StaticFriction,
		DynamicFriction: c.Params.DynamicFriction,
		Gravity:         gravity,
		CentralK:        c.Params.CentralK,
		MixerSpeed:      c.Params.MixerSpeed,
		TimeScale:       c.Params.TimeScale,
	}

	if err := e.Validate(); err != nil {
		return sim.Config{}, err
	}
	return e, nil
}
