package config

import "sort"

// Presets are complete configurations, each derived from the defaults.
var Presets = map[string]*Config{
	"smoke": preset("smoke", func(c *Config) {}),
	"plume": preset("plume", func(c *Config) {
		c.Obstacle.Radius = 0
		c.Impulse.Radius = 0.08
		c.Buoyancy.FluidWeight = 0.02
	}),
	"still": preset("still", func(c *Config) {
		c.Grid = GridConfig{Width: 8, Height: 8}
		c.Frames = 1
		c.Backend = "serial"
		c.Dissipation = DissipationConfig{Velocity: 1, Density: 1, Temperature: 1}
		c.Buoyancy = BuoyancyConfig{}
		c.Impulse = ImpulseConfig{X: 0.5, Y: 0.5, Radius: 0.2, DensityFill: 1, Mode: "set"}
		c.Obstacle = ObstacleConfig{}
		c.Solver.JacobiIterations = 0
	}),
	"dense": preset("dense", func(c *Config) {
		c.Buoyancy.FluidBuoyancy = 0.5
		c.Buoyancy.FluidWeight = 0.2
		c.Impulse.Radius = 0.15
		c.Impulse.DensityFill = 2
		c.Dissipation.Velocity = 0.995
	}),
	"street": preset("street", func(c *Config) {
		c.Obstacle.Y = 0.3
		c.Obstacle.Radius = 0.06
		c.Impulse.TemperatureFill = 20
		c.Solver.JacobiIterations = 80
	}),
}

func preset(name string, mutate func(*Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	mutate(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
