package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// Clear writes zero into every cell of dst.
func Clear(be compute.Backend, dst *field.Buffer) error {
	if err := checkBuffers("clear", dst, nil); err != nil {
		return err
	}
	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		dst.SetVec(x, y, 0, 0)
	})
}

// Jacobi performs one relaxation sweep of the pressure Poisson equation:
//
//	p'(c) = (pW + pE + pS + pN + alpha·div(c)) · beta
//
// with alpha = -cellSize² and beta = 1/4 for the 5-point Laplacian. Solid
// neighbors take the center pressure (zero normal gradient at obstacles).
func Jacobi(be compute.Backend, pressure, divergence, dst *field.Buffer, mask *field.Mask, alpha, beta float32) error {
	if err := checkBuffers("jacobi", dst, mask, pressure, divergence); err != nil {
		return err
	}

	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		pc := pressure.At(x, y)
		pn := neighborPressure(pressure, mask, x, y+1, pc)
		ps := neighborPressure(pressure, mask, x, y-1, pc)
		pe := neighborPressure(pressure, mask, x+1, y, pc)
		pw := neighborPressure(pressure, mask, x-1, y, pc)

		dst.Set(x, y, (pw+pe+ps+pn+alpha*divergence.At(x, y))*beta)
	})
}

func neighborPressure(p *field.Buffer, mask *field.Mask, x, y int, pc float32) float32 {
	if mask != nil && mask.Solid(x, y) {
		return pc
	}
	return p.At(x, y)
}
