package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
)

const (
	DefaultWidth   = 128
	DefaultHeight  = 128
	DefaultFrames  = 600
	DefaultBackend = "auto"
)

type Config struct {
	Name        string            `yaml:"name,omitempty"`
	Grid        GridConfig        `yaml:"grid"`
	Dt          float64           `yaml:"dt"`
	Frames      int               `yaml:"frames"`
	Backend     string            `yaml:"backend"`
	Dissipation DissipationConfig `yaml:"dissipation"`
	Buoyancy    BuoyancyConfig    `yaml:"buoyancy"`
	Impulse     ImpulseConfig     `yaml:"impulse"`
	Obstacle    ObstacleConfig    `yaml:"obstacle"`
	Solver      SolverConfig      `yaml:"solver"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type DissipationConfig struct {
	Velocity    float64 `yaml:"velocity"`
	Density     float64 `yaml:"density"`
	Temperature float64 `yaml:"temperature"`
}

type BuoyancyConfig struct {
	AmbientTemperature float64 `yaml:"ambient_temperature"`
	FluidBuoyancy      float64 `yaml:"fluid_buoyancy"`
	FluidWeight        float64 `yaml:"fluid_weight"`
}

type ImpulseConfig struct {
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	Radius          float64 `yaml:"radius"`
	TemperatureFill float64 `yaml:"temperature_fill"`
	DensityFill     float64 `yaml:"density_fill"`
	Mode            string  `yaml:"mode"`
}

type ObstacleConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
	Border bool    `yaml:"border"`
}

type SolverConfig struct {
	CellSize         float64 `yaml:"cell_size"`
	GradientScale    float64 `yaml:"gradient_scale"`
	JacobiIterations int     `yaml:"jacobi_iterations"`
	JacobiBeta       float64 `yaml:"jacobi_beta"`
}

func DefaultConfig() *Config {
	p := sim.DefaultParams()
	return &Config{
		Grid:    GridConfig{Width: DefaultWidth, Height: DefaultHeight},
		Dt:      float64(p.Dt),
		Frames:  DefaultFrames,
		Backend: DefaultBackend,
		Dissipation: DissipationConfig{
			Velocity:    float64(p.Dissipation.Velocity),
			Density:     float64(p.Dissipation.Density),
			Temperature: float64(p.Dissipation.Temperature),
		},
		Buoyancy: BuoyancyConfig{
			AmbientTemperature: float64(p.Buoyancy.Ambient),
			FluidBuoyancy:      float64(p.Buoyancy.Buoyancy),
			FluidWeight:        float64(p.Buoyancy.Weight),
		},
		Impulse: ImpulseConfig{
			X:               float64(p.Impulse.X),
			Y:               float64(p.Impulse.Y),
			Radius:          float64(p.Impulse.Radius),
			TemperatureFill: float64(p.Impulse.Temperature),
			DensityFill:     float64(p.Impulse.Density),
			Mode:            p.Impulse.Mode.String(),
		},
		Obstacle: ObstacleConfig{
			X:      float64(p.Obstacle.X),
			Y:      float64(p.Obstacle.Y),
			Radius: float64(p.Obstacle.Radius),
			Border: p.Obstacle.Border,
		},
		Solver: SolverConfig{
			CellSize:         float64(p.Solver.CellSize),
			GradientScale:    float64(p.Solver.GradientScale),
			JacobiIterations: p.Solver.JacobiIterations,
			JacobiBeta:       float64(p.Solver.JacobiBeta),
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads a YAML file over a copy of base, typically a preset.
// base itself is not modified.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) GridSize() field.Grid {
	return field.NewGrid(c.Grid.Width, c.Grid.Height)
}

// SimParams converts the file representation into solver parameters.
func (c *Config) SimParams() (sim.Params, error) {
	mode, err := solver.ParseImpulseMode(c.Impulse.Mode)
	if err != nil {
		return sim.Params{}, &sim.ConfigError{Field: "impulse.mode", Value: c.Impulse.Mode, Reason: err.Error()}
	}
	return sim.Params{
		Dt: float32(c.Dt),
		Dissipation: sim.Dissipation{
			Velocity:    float32(c.Dissipation.Velocity),
			Density:     float32(c.Dissipation.Density),
			Temperature: float32(c.Dissipation.Temperature),
		},
		Buoyancy: solver.BuoyancyParams{
			Ambient:  float32(c.Buoyancy.AmbientTemperature),
			Buoyancy: float32(c.Buoyancy.FluidBuoyancy),
			Weight:   float32(c.Buoyancy.FluidWeight),
		},
		Impulse: sim.Impulse{
			X:           float32(c.Impulse.X),
			Y:           float32(c.Impulse.Y),
			Radius:      float32(c.Impulse.Radius),
			Temperature: float32(c.Impulse.TemperatureFill),
			Density:     float32(c.Impulse.DensityFill),
			Mode:        mode,
		},
		Obstacle: sim.Obstacle{
			X:      float32(c.Obstacle.X),
			Y:      float32(c.Obstacle.Y),
			Radius: float32(c.Obstacle.Radius),
			Border: c.Obstacle.Border,
		},
		Solver: sim.SolverParams{
			CellSize:         float32(c.Solver.CellSize),
			GradientScale:    float32(c.Solver.GradientScale),
			JacobiIterations: c.Solver.JacobiIterations,
			JacobiBeta:       float32(c.Solver.JacobiBeta),
		},
	}, nil
}

// Validate checks everything a run needs: grid, frame count, backend and
// the solver parameters.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return &sim.ConfigError{Field: "grid", Value: fmt.Sprintf("%dx%d", c.Grid.Width, c.Grid.Height), Reason: "width and height must be positive"}
	}
	if c.Frames < 0 {
		return &sim.ConfigError{Field: "frames", Value: c.Frames, Reason: "must not be negative"}
	}
	if _, err := compute.Lookup(c.Backend); err != nil {
		return &sim.ConfigError{Field: "backend", Value: c.Backend, Reason: err.Error()}
	}
	p, err := c.SimParams()
	if err != nil {
		return err
	}
	return p.Validate()
}
