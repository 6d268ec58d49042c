package sim

import (
	"math"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/solver"
)

type Dissipation struct {
	Velocity    float32
	Density     float32
	Temperature float32
}

type Impulse struct {
	X, Y        float32
	Radius      float32
	Temperature float32
	Density     float32
	Mode        solver.ImpulseMode
}

func (i Impulse) Disc() solver.Disc {
	return solver.Disc{X: i.X, Y: i.Y, Radius: i.Radius}
}

type Obstacle struct {
	X, Y   float32
	Radius float32
	Border bool
}

func (o Obstacle) Disc() solver.Disc {
	return solver.Disc{X: o.X, Y: o.Y, Radius: o.Radius}
}

type SolverParams struct {
	CellSize         float32
	GradientScale    float32
	JacobiIterations int
	JacobiBeta       float32
}

// Alpha is the Jacobi divergence weight, -cellSize².
func (s SolverParams) Alpha() float32 { return -s.CellSize * s.CellSize }

// HalfInverseCellSize is the central-difference divergence factor.
func (s SolverParams) HalfInverseCellSize() float32 { return 0.5 / s.CellSize }

// Params is the per-frame configuration. Stages read it and never modify
// it; callers bump Version when they change anything.
type Params struct {
	Version     uint64
	Dt          float32
	Dissipation Dissipation
	Buoyancy    solver.BuoyancyParams
	Impulse     Impulse
	Obstacle    Obstacle
	Solver      SolverParams
}

func DefaultParams() Params {
	return Params{
		Dt: 0.125,
		Dissipation: Dissipation{
			Velocity:    0.99,
			Density:     0.9999,
			Temperature: 0.99,
		},
		Buoyancy: solver.BuoyancyParams{
			Ambient:  0,
			Buoyancy: 1,
			Weight:   0.05,
		},
		Impulse: Impulse{
			X: 0.5, Y: 0, Radius: 0.1,
			Temperature: 10,
			Density:     1,
			Mode:        solver.ImpulseSet,
		},
		Obstacle: Obstacle{X: 0.5, Y: 0.5, Radius: 0.1, Border: true},
		Solver: SolverParams{
			CellSize:         1,
			GradientScale:    0.5,
			JacobiIterations: 50,
			JacobiBeta:       0.25,
		},
	}
}

// Validate rejects parameters no stage can safely run against.
func (p Params) Validate() error {
	finite := []struct {
		name string
		v    float32
	}{
		{"dt", p.Dt},
		{"dissipation.velocity", p.Dissipation.Velocity},
		{"dissipation.density", p.Dissipation.Density},
		{"dissipation.temperature", p.Dissipation.Temperature},
		{"buoyancy.ambient_temperature", p.Buoyancy.Ambient},
		{"buoyancy.fluid_buoyancy", p.Buoyancy.Buoyancy},
		{"buoyancy.fluid_weight", p.Buoyancy.Weight},
		{"impulse.x", p.Impulse.X},
		{"impulse.y", p.Impulse.Y},
		{"impulse.radius", p.Impulse.Radius},
		{"impulse.temperature_fill", p.Impulse.Temperature},
		{"impulse.density_fill", p.Impulse.Density},
		{"obstacle.x", p.Obstacle.X},
		{"obstacle.y", p.Obstacle.Y},
		{"obstacle.radius", p.Obstacle.Radius},
		{"solver.cell_size", p.Solver.CellSize},
		{"solver.gradient_scale", p.Solver.GradientScale},
		{"solver.jacobi_beta", p.Solver.JacobiBeta},
	}
	for _, f := range finite {
		if math.IsNaN(float64(f.v)) || math.IsInf(float64(f.v), 0) {
			return &ConfigError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}

	if p.Dt <= 0 {
		return &ConfigError{Field: "dt", Value: p.Dt, Reason: "must be positive"}
	}
	for _, d := range []struct {
		name string
		v    float32
	}{
		{"dissipation.velocity", p.Dissipation.Velocity},
		{"dissipation.density", p.Dissipation.Density},
		{"dissipation.temperature", p.Dissipation.Temperature},
	} {
		if d.v <= 0 || d.v > 1 {
			return &ConfigError{Field: d.name, Value: d.v, Reason: "must be in (0, 1]"}
		}
	}
	if p.Impulse.Radius < 0 {
		return &ConfigError{Field: "impulse.radius", Value: p.Impulse.Radius, Reason: "must not be negative"}
	}
	if p.Impulse.Mode != solver.ImpulseSet && p.Impulse.Mode != solver.ImpulseBlend {
		return &ConfigError{Field: "impulse.mode", Value: p.Impulse.Mode, Reason: "unknown mode"}
	}
	if p.Obstacle.Radius < 0 {
		return &ConfigError{Field: "obstacle.radius", Value: p.Obstacle.Radius, Reason: "must not be negative"}
	}
	if p.Solver.CellSize <= 0 {
		return &ConfigError{Field: "solver.cell_size", Value: p.Solver.CellSize, Reason: "must be positive"}
	}
	if p.Solver.JacobiIterations < 0 {
		return &ConfigError{Field: "solver.jacobi_iterations", Value: p.Solver.JacobiIterations, Reason: "must not be negative"}
	}
	return nil
}

func validateGrid(g field.Grid) error {
	if err := g.Validate(); err != nil {
		return &ConfigError{Field: "grid", Value: g, Reason: "width and height must be positive"}
	}
	return nil
}

// Frame is what metrics and observers see after a completed step. The
// buffers are the fields' current buffers and must not be modified.
type Frame struct {
	Index       int
	Time        float64
	Params      Params
	Velocity    *field.Buffer
	Density     *field.Buffer
	Temperature *field.Buffer
	Pressure    *field.Buffer
	Divergence  *field.Buffer
	Mask        *field.Mask
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// Record is one row of per-frame metric values.
type Record struct {
	Frame   int
	Time    float64
	Metrics map[string]float64
}

type Result struct {
	Grid       field.Grid
	Records    []Record
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    float64
}
