package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// Divergence writes halfInvCell·((vE.x - vW.x) + (vN.y - vS.y)) per cell.
// A solid neighbor contributes the center velocity instead of its own, so
// no flow is counted through obstacle faces.
func Divergence(be compute.Backend, velocity, dst *field.Buffer, mask *field.Mask, halfInvCell float32) error {
	if err := checkBuffers("divergence", dst, mask, velocity); err != nil {
		return err
	}
	if err := requireKind("divergence", velocity, field.Vector); err != nil {
		return err
	}

	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		cx, cy := velocity.Vec(x, y)

		_, ny := neighborVec(velocity, mask, x, y+1, cx, cy)
		_, sy := neighborVec(velocity, mask, x, y-1, cx, cy)
		ex, _ := neighborVec(velocity, mask, x+1, y, cx, cy)
		wx, _ := neighborVec(velocity, mask, x-1, y, cx, cy)

		dst.Set(x, y, halfInvCell*((ex-wx)+(ny-sy)))
	})
}

func neighborVec(v *field.Buffer, mask *field.Mask, x, y int, cx, cy float32) (float32, float32) {
	if mask != nil && mask.Solid(x, y) {
		return cx, cy
	}
	return v.Vec(x, y)
}
