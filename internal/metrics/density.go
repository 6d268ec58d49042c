package metrics

import "github.com/san-kum/fluidsim/internal/sim"

const (
	NameTotalDensity     = "total_density"
	NameTotalTemperature = "total_temperature"
	NameKineticEnergy    = "kinetic_energy"
	NameMaxSpeed         = "max_speed"
	NameDivergence       = "divergence_residual"
	NameFinite           = "finite"
)

// TotalDensity is the sum of smoke density over the grid in the latest frame.
type TotalDensity struct {
	name  string
	value float64
}

func NewTotalDensity() *TotalDensity {
	return &TotalDensity{name: NameTotalDensity}
}

func (d *TotalDensity) Name() string { return d.name }

func (d *TotalDensity) Observe(f sim.Frame) {
	d.value = float64(f.Density.AbsSum())
}

func (d *TotalDensity) Value() float64 { return d.value }
func (d *TotalDensity) Reset()         { d.value = 0 }

// TotalTemperature sums absolute temperature.
type TotalTemperature struct {
	value float64
}

func NewTotalTemperature() *TotalTemperature { return &TotalTemperature{} }

func (t *TotalTemperature) Name() string        { return NameTotalTemperature }
func (t *TotalTemperature) Observe(f sim.Frame) { t.value = float64(f.Temperature.AbsSum()) }
func (t *TotalTemperature) Value() float64      { return t.value }
func (t *TotalTemperature) Reset()              { t.value = 0 }

// Standard returns a fresh instance of every metric a run records.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewTotalDensity(),
		NewTotalTemperature(),
		NewKineticEnergy(),
		NewMaxSpeed(),
		NewDivergenceResidual(),
		NewFinite(),
	}
}

// Names lists the metric names Standard produces, in order.
func Names() []string {
	ms := Standard()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}
