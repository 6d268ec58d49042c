package solver

import (
	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// borderDistance marks wall cells; any negative value reads as solid.
const borderDistance = -1

// Obstacles writes the signed distance |p - c| - r of every cell center to
// the disc into dst. With border set, the outermost ring of cells is solid.
func Obstacles(be compute.Backend, dst *field.Buffer, disc Disc, border bool) error {
	if err := checkBuffers("obstacles", dst, nil); err != nil {
		return err
	}
	g := dst.Grid()
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		nx, ny := g.Normalized(x, y)
		d := disc.Distance(nx, ny) - disc.Radius
		if border && (x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1) {
			d = borderDistance
		}
		dst.Set(x, y, d)
	})
}
