package config

import "sort"

var Presets = map[string]func(c *Config){
	// dough left to prove: gravity, no mixing, slow bonding
	"rising": func(c *Config) {
		c.Duration = 20
		c.Mixer = false
		c.Params.Gravity = "gravity"
		c.Params.BondProbability = 0.1
	},
	"kneading": func(c *Config) {
		c.Duration = 30
		c.Mixer = true
		c.Params.Gravity = "gravity"
		c.Params.BondProbability = 0.3
		c.Params.MixerSpeed = 3
		c.Params.StaticFriction = 0.5
		c.Params.DynamicFriction = 0.3
	},
	"still": func(c *Config) {
		c.Duration = 10
		c.Mixer = false
		c.Params.Gravity = "none"
		c.Params.Temperature = 0
	},
	"centrifuge": func(c *Config) {
		c.Duration = 15
		c.Mixer = true
		c.Params.Gravity = "central"
		c.Params.CentralK = 20
		c.Params.Temperature = 10
		c.Params.MixerSpeed = 5
	},
}

// GetPreset returns a fresh default config with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
