package solver

import (
	"fmt"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// ImpulseMode selects how a source writes cells inside its disc.
type ImpulseMode int

const (
	// ImpulseSet overwrites covered cells with the fill value.
	ImpulseSet ImpulseMode = iota
	// ImpulseBlend moves covered cells toward the fill value, strongest at
	// the center, and never below zero.
	ImpulseBlend
)

func (m ImpulseMode) String() string {
	switch m {
	case ImpulseSet:
		return "set"
	case ImpulseBlend:
		return "blend"
	}
	return fmt.Sprintf("ImpulseMode(%d)", int(m))
}

func ParseImpulseMode(s string) (ImpulseMode, error) {
	switch s {
	case "", "set":
		return ImpulseSet, nil
	case "blend":
		return ImpulseBlend, nil
	}
	return ImpulseSet, fmt.Errorf("unknown impulse mode: %q", s)
}

// Impulse injects fill into the cells of src whose normalized distance to
// the disc center is below its radius and copies every other cell unchanged.
func Impulse(be compute.Backend, src, dst *field.Buffer, disc Disc, fill float32, mode ImpulseMode) error {
	if err := checkBuffers("impulse", dst, nil, src); err != nil {
		return err
	}
	if err := requireKind("impulse", src, field.Scalar); err != nil {
		return err
	}
	if err := requireKind("impulse", dst, field.Scalar); err != nil {
		return err
	}

	g := dst.Grid()
	cells := float32(max(g.Width, g.Height))
	return be.Dispatch(g.Width, g.Height, func(x, y int) {
		cur := src.At(x, y)
		nx, ny := g.Normalized(x, y)
		d := disc.Distance(nx, ny)
		if d >= disc.Radius {
			dst.Set(x, y, cur)
			return
		}
		if mode == ImpulseSet {
			dst.Set(x, y, fill)
			return
		}
		// falloff in cells along the longer axis
		a := (disc.Radius - d) * cells * 0.5
		if a > 1 {
			a = 1
		}
		v := cur + (fill-cur)*a
		if v < 0 {
			v = 0
		}
		dst.Set(x, y, v)
	})
}
