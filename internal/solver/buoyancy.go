package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

type BuoyancyParams struct {
	Ambient  float32 // ambient temperature
	Buoyancy float32 // lift per degree above ambient
	Weight   float32 // sink per unit density
}

// Buoyancy adds dt·((T - ambient)·buoyancy - D·weight) to the vertical
// velocity of every cell. The horizontal component passes through.
func Buoyancy(be compute.Backend, velocity, temperature, density, dst *field.Buffer, p BuoyancyParams, dt float32) error {
	if err := checkBuffers("buoyancy", dst, nil, velocity, temperature, density); err != nil {
		return err
	}
	if err := requireKind("buoyancy", dst, field.Vector); err != nil {
		return err
	}

	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		vx, vy := velocity.Vec(x, y)
		t := temperature.At(x, y)
		d := density.At(x, y)
		vy += dt * ((t-p.Ambient)*p.Buoyancy - d*p.Weight)
		dst.SetVec(x, y, vx, vy)
	})
}
