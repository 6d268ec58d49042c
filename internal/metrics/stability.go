package metrics

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
)

// DivergenceResidual is the largest |∇·v| of the projected velocity. It
// measures how far the pressure solve got from incompressible.
type DivergenceResidual struct {
	be      compute.Backend
	scratch *field.Buffer
	value   float64
}

func NewDivergenceResidual() *DivergenceResidual {
	return &DivergenceResidual{be: compute.NewSerialBackend()}
}

func (d *DivergenceResidual) Name() string { return NameDivergence }

func (d *DivergenceResidual) Observe(f sim.Frame) {
	g := f.Velocity.Grid()
	if d.scratch == nil || d.scratch.Grid() != g {
		d.scratch = field.NewBuffer(g, field.Scalar)
	}
	if err := solver.Divergence(d.be, f.Velocity, d.scratch, f.Mask, f.Params.Solver.HalfInverseCellSize()); err != nil {
		return
	}
	// solid cells carry no fluid
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if f.Mask.Solid(x, y) {
				d.scratch.Set(x, y, 0)
			}
		}
	}
	d.value = float64(d.scratch.MaxAbs())
}

func (d *DivergenceResidual) Value() float64 { return d.value }
func (d *DivergenceResidual) Reset()         { d.value = 0 }

// Finite is 1 while every observed frame held only finite values and drops
// to the fraction of clean frames once NaN or Inf shows up.
type Finite struct {
	violations int
	samples    int
}

func NewFinite() *Finite { return &Finite{} }

func (s *Finite) Name() string { return NameFinite }

func (s *Finite) Observe(f sim.Frame) {
	s.samples++
	for _, b := range []*field.Buffer{f.Velocity, f.Density, f.Temperature, f.Pressure} {
		if !b.Finite() {
			s.violations++
			break
		}
	}
}

func (s *Finite) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Finite) Reset() {
	s.violations = 0
	s.samples = 0
}
