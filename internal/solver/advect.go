package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// Advect transports source along velocity into dst. Each destination cell
// traces back by velocity·dt cells, samples source bilinearly at the clamped
// origin and scales by dissipation. Solid destination cells are zeroed.
// source may be the velocity buffer itself; dst may be neither.
func Advect(be compute.Backend, velocity, source, dst *field.Buffer, mask *field.Mask, dt, dissipation float32) error {
	if err := checkBuffers("advect", dst, mask, velocity, source); err != nil {
		return err
	}
	if err := requireKind("advect", velocity, field.Vector); err != nil {
		return err
	}
	if err := requireKind("advect", dst, source.Kind()); err != nil {
		return err
	}

	g := dst.Grid()
	if source.Kind() == field.Vector {
		return be.Dispatch(g.Width, g.Height, func(x, y int) {
			if mask != nil && mask.Solid(x, y) {
				dst.SetVec(x, y, 0, 0)
				return
			}
			vx, vy := velocity.Vec(x, y)
			sx, sy := source.SampleVec(float32(x)-vx*dt, float32(y)-vy*dt)
			dst.SetVec(x, y, sx*dissipation, sy*dissipation)
		})
	}

	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		if mask != nil && mask.Solid(x, y) {
			dst.Set(x, y, 0)
			return
		}
		vx, vy := velocity.Vec(x, y)
		dst.Set(x, y, source.Sample(float32(x)-vx*dt, float32(y)-vy*dt)*dissipation)
	})
}
