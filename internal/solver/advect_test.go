package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/solver"
)

var _ = Describe("Advect", func() {
	var (
		g    field.Grid
		vel  *field.Buffer
		src  *field.Buffer
		dst  *field.Buffer
		mask *field.Mask
	)

	BeforeEach(func() {
		g = field.NewGrid(9, 7)
		vel = field.NewBuffer(g, field.Vector)
		src = field.NewBuffer(g, field.Scalar)
		dst = field.NewBuffer(g, field.Scalar)
		mask = field.NewMask(g)
		fillScalar(src, func(x, y int) float32 { return float32(x*x) + 0.25*float32(y) })
	})

	It("is the identity for zero velocity and no dissipation", func() {
		Expect(solver.Advect(backend, vel, src, dst, mask, 0.125, 1)).To(Succeed())
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				Expect(dst.At(x, y)).To(Equal(src.At(x, y)))
			}
		}
	})

	It("is the identity for vector sources too", func() {
		vsrc := field.NewBuffer(g, field.Vector)
		vdst := field.NewBuffer(g, field.Vector)
		fillVector(vsrc, func(x, y int) (float32, float32) { return float32(x), -float32(y) })

		Expect(solver.Advect(backend, vel, vsrc, vdst, mask, 0.5, 1)).To(Succeed())
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				vx, vy := vdst.Vec(x, y)
				Expect(vx).To(Equal(float32(x)))
				Expect(vy).To(Equal(-float32(y)))
			}
		}
	})

	It("decays a constant field monotonically toward zero", func() {
		fillScalar(src, func(x, y int) float32 { return 2 })
		a, b := src, dst
		prev := float32(2)
		for step := 0; step < 100; step++ {
			Expect(solver.Advect(backend, vel, a, b, mask, 0.125, 0.9)).To(Succeed())
			cur := b.At(4, 3)
			Expect(cur).To(BeNumerically("<", prev))
			Expect(cur).To(BeNumerically(">", 0))
			prev = cur
			a, b = b, a
		}
		Expect(prev).To(BeNumerically("<", 1e-3))
	})

	It("traces back along the velocity", func() {
		fillVector(vel, func(x, y int) (float32, float32) { return 1, 0 })
		Expect(solver.Advect(backend, vel, src, dst, mask, 1, 1)).To(Succeed())
		for y := 0; y < g.Height; y++ {
			for x := 1; x < g.Width; x++ {
				Expect(dst.At(x, y)).To(Equal(src.At(x-1, y)))
			}
		}
	})

	It("clamps backtraces that leave the grid", func() {
		fillVector(vel, func(x, y int) (float32, float32) { return 50, -50 })
		Expect(solver.Advect(backend, vel, src, dst, mask, 1, 1)).To(Succeed())
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				Expect(dst.At(x, y)).To(Equal(src.At(0, g.Height-1)))
			}
		}
	})

	It("zeroes cells inside obstacles", func() {
		mask = solidCell(g, 4, 3)
		Expect(solver.Advect(backend, vel, src, dst, mask, 0.125, 1)).To(Succeed())
		Expect(dst.At(4, 3)).To(BeZero())
		Expect(dst.At(5, 3)).To(Equal(src.At(5, 3)))
	})

	It("rejects a destination that aliases an input", func() {
		err := solver.Advect(backend, vel, src, src, mask, 0.125, 1)
		Expect(err).To(MatchError(solver.ErrAliasedBuffers))
	})

	It("rejects buffers from different grids", func() {
		other := field.NewBuffer(field.NewGrid(3, 3), field.Scalar)
		err := solver.Advect(backend, vel, src, other, nil, 0.125, 1)
		Expect(err).To(MatchError(solver.ErrGridMismatch))
	})

	It("rejects a scalar velocity", func() {
		err := solver.Advect(backend, src, src, dst, mask, 0.125, 1)
		Expect(err).To(MatchError(solver.ErrKindMismatch))
	})
})
