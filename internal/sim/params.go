package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/glutensim/internal/dynamo"
	"github.com/san-kum/glutensim/internal/physics"
)

// Params are the tunables a control surface may write between ticks.
type Params struct {
	Temperature     float64             `yaml:"temperature"`
	BondProbability float64             `yaml:"bond_probability"`
	RepulsionK      float64             `yaml:"repulsion_k"`
	StaticFriction  float64             `yaml:"static_friction"`
	DynamicFriction float64             `yaml:"dynamic_friction"`
	Gravity         physics.GravityMode `yaml:"gravity_mode"`
	CentralK        float64             `yaml:"central_k"`
	MixerSpeed      float64             `yaml:"mixer_speed"`
	Paused          bool                `yaml:"paused"`
	TimeScale       float64             `yaml:"time_scale"`
}

func DefaultParams() Params {
	return Params{
		Temperature:     25,
		BondProbability: 0.1,
		RepulsionK:      1000,
		Gravity:         physics.GravityNone,
		CentralK:        5,
		MixerSpeed:      1,
		TimeScale:       1,
	}
}

type paramDef struct {
	min, max float64
	integral bool
	openMin  bool
	get      func(*Params) float64
	set      func(*Params, float64)
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var paramDefs = map[string]paramDef{
	"temperature": {min: 0, max: 200,
		get: func(p *Params) float64 { return p.Temperature },
		set: func(p *Params, v float64) { p.Temperature = v }},
	"bond_probability": {min: 0, max: 1,
		get: func(p *Params) float64 { return p.BondProbability },
		set: func(p *Params, v float64) { p.BondProbability = v }},
	"repulsion_k": {min: 0, max: 1e5,
		get: func(p *Params) float64 { return p.RepulsionK },
		set: func(p *Params, v float64) { p.RepulsionK = v }},
	"static_friction": {min: 0, max: 5,
		get: func(p *Params) float64 { return p.StaticFriction },
		set: func(p *Params, v float64) { p.StaticFriction = v }},
	"dynamic_friction": {min: 0, max: 5,
		get: func(p *Params) float64 { return p.DynamicFriction },
		set: func(p *Params, v float64) { p.DynamicFriction = v }},
	"gravity_mode": {min: 0, max: 2, integral: true,
		get: func(p *Params) float64 { return float64(p.Gravity) },
		set: func(p *Params, v float64) { p.Gravity = physics.GravityMode(v) }},
	"central_k": {min: 0, max: 100,
		get: func(p *Params) float64 { return p.CentralK },
		set: func(p *Params, v float64) { p.CentralK = v }},
	"mixer_speed": {min: 0, max: 20,
		get: func(p *Params) float64 { return p.MixerSpeed },
		set: func(p *Params, v float64) { p.MixerSpeed = v }},
	"paused": {min: 0, max: 1, integral: true,
		get: func(p *Params) float64 { return boolf(p.Paused) },
		set: func(p *Params, v float64) { p.Paused = v != 0 }},
	"time_scale": {min: 0, max: 10, openMin: true,
		get: func(p *Params) float64 { return p.TimeScale },
		set: func(p *Params, v float64) { p.TimeScale = v }},
}

// ParamNames lists every tunable name in sorted order.
func ParamNames() []string {
	names := make([]string, 0, len(paramDefs))
	for name := range paramDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkParam(name string, v float64) (paramDef, error) {
	def, ok := paramDefs[name]
	if !ok {
		return def, fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	if err := dynamo.CheckRange(name, v, def.min, def.max); err != nil {
		return def, err
	}
	if (def.integral && v != math.Trunc(v)) || (def.openMin && v == def.min) {
		return def, &dynamo.BoundsError{Name: name, Value: v, Min: def.min, Max: def.max}
	}
	return def, nil
}

// Validate checks every field against its documented range.
func (p Params) Validate() error {
	for _, name := range ParamNames() {
		if _, err := checkParam(name, paramDefs[name].get(&p)); err != nil {
			return err
		}
	}
	return nil
}

// Map returns the params keyed by name.
func (p Params) Map() map[string]float64 {
	out := make(map[string]float64, len(paramDefs))
	for name, def := range paramDefs {
		out[name] = def.get(&p)
	}
	return out
}

// With returns a copy of p with name set to v, or an error if v is out of
// range.
func (p Params) With(name string, v float64) (Params, error) {
	def, err := checkParam(name, v)
	if err != nil {
		return p, err
	}
	def.set(&p, v)
	return p, nil
}

// Params returns the current tunables.
func (e *Engine) Params() Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// SetParams replaces every tunable at once after validating them.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
	return nil
}

func (e *Engine) GetParams() map[string]float64 {
	return e.Params().Map()
}

func (e *Engine) SetParam(name string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.params.With(name, value)
	if err != nil {
		return err
	}
	e.params = p
	return nil
}

func (e *Engine) SetTemperature(v float64) error     { return e.SetParam("temperature", v) }
func (e *Engine) SetBondProbability(v float64) error { return e.SetParam("bond_probability", v) }
func (e *Engine) SetRepulsionK(v float64) error      { return e.SetParam("repulsion_k", v) }
func (e *Engine) SetMixerSpeed(v float64) error      { return e.SetParam("mixer_speed", v) }
func (e *Engine) SetTimeScale(v float64) error       { return e.SetParam("time_scale", v) }

func (e *Engine) SetFriction(static, dynamic float64) error {
	if err := e.SetParam("static_friction", static); err != nil {
		return err
	}
	return e.SetParam("dynamic_friction", dynamic)
}

func (e *Engine) SetGravityMode(m physics.GravityMode) error {
	return e.SetParam("gravity_mode", float64(m))
}

func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	e.params.Paused = paused
	e.mu.Unlock()
}

// TogglePause flips the paused flag and returns the new value.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Paused = !e.params.Paused
	return e.params.Paused
}

var _ dynamo.Configurable = (*Engine)(nil)
