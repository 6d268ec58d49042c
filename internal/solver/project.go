package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// Project subtracts gradientScale·(pE - pW, pN - pS) from velocity. Solid
// neighbors mirror the center pressure and zero the velocity component along
// their axis, so no flow enters or leaves an obstacle. Cells inside an
// obstacle get zero velocity.
func Project(be compute.Backend, velocity, pressure, dst *field.Buffer, mask *field.Mask, gradientScale float32) error {
	if err := checkBuffers("project", dst, mask, velocity, pressure); err != nil {
		return err
	}
	if err := requireKind("project", velocity, field.Vector); err != nil {
		return err
	}
	if err := requireKind("project", dst, field.Vector); err != nil {
		return err
	}

	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		if mask != nil && mask.Solid(x, y) {
			dst.SetVec(x, y, 0, 0)
			return
		}

		pc := pressure.At(x, y)
		pn, ps, pe, pw := pc, pc, pc, pc
		keepX, keepY := float32(1), float32(1)

		if solidAt(mask, x, y+1) {
			keepY = 0
		} else {
			pn = pressure.At(x, y+1)
		}
		if solidAt(mask, x, y-1) {
			keepY = 0
		} else {
			ps = pressure.At(x, y-1)
		}
		if solidAt(mask, x+1, y) {
			keepX = 0
		} else {
			pe = pressure.At(x+1, y)
		}
		if solidAt(mask, x-1, y) {
			keepX = 0
		} else {
			pw = pressure.At(x-1, y)
		}

		vx, vy := velocity.Vec(x, y)
		vx = (vx - gradientScale*(pe-pw)) * keepX
		vy = (vy - gradientScale*(pn-ps)) * keepY
		dst.SetVec(x, y, vx, vy)
	})
}

func solidAt(mask *field.Mask, x, y int) bool {
	return mask != nil && mask.Solid(x, y)
}
