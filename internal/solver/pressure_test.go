package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/solver"
)

var _ = Describe("Divergence", func() {
	It("measures a uniform expansion", func() {
		g := field.NewGrid(8, 8)
		vel := field.NewBuffer(g, field.Vector)
		div := field.NewBuffer(g, field.Scalar)
		fillVector(vel, func(x, y int) (float32, float32) { return float32(x), float32(y) })

		Expect(solver.Divergence(backend, vel, div, nil, 0.5)).To(Succeed())
		for y := 1; y < g.Height-1; y++ {
			for x := 1; x < g.Width-1; x++ {
				Expect(div.At(x, y)).To(BeNumerically("~", 2, 1e-6))
			}
		}
	})

	It("replaces solid neighbors with the center velocity", func() {
		g := field.NewGrid(5, 5)
		vel := field.NewBuffer(g, field.Vector)
		div := field.NewBuffer(g, field.Scalar)
		fillVector(vel, func(x, y int) (float32, float32) { return float32(x), 0 })
		mask := solidCell(g, 3, 2)

		Expect(solver.Divergence(backend, vel, div, mask, 0.5)).To(Succeed())
		// east neighbor is solid: 0.5 * (vC.x - vW.x) = 0.5 * (2 - 1)
		Expect(div.At(2, 2)).To(BeNumerically("~", 0.5, 1e-6))
		Expect(div.At(2, 1)).To(BeNumerically("~", 1, 1e-6))
	})
})

var _ = Describe("Jacobi", func() {
	var (
		g     field.Grid
		p, q  *field.Buffer
		div   *field.Buffer
		alpha float32
	)

	BeforeEach(func() {
		g = field.NewGrid(10, 10)
		p = field.NewBuffer(g, field.Scalar)
		q = field.NewBuffer(g, field.Scalar)
		div = field.NewBuffer(g, field.Scalar)
		alpha = -1
	})

	It("keeps zero pressure fixed when divergence is zero", func() {
		mask := solidCell(g, 4, 4)
		for i := 0; i < 25; i++ {
			Expect(solver.Jacobi(backend, p, div, q, mask, alpha, 0.25)).To(Succeed())
			p, q = q, p
		}
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				Expect(p.At(x, y)).To(BeZero())
			}
		}
	})

	It("applies the five-point stencil", func() {
		fillScalar(p, func(x, y int) float32 { return float32(x + 10*y) })
		div.Set(5, 5, 2)
		Expect(solver.Jacobi(backend, p, div, q, nil, alpha, 0.25)).To(Succeed())
		// neighbors sum to 4·55, minus the divergence term
		Expect(q.At(5, 5)).To(BeNumerically("~", (4*55-2)*0.25, 1e-5))
	})

	It("mirrors the center pressure at solid neighbors", func() {
		fillScalar(p, func(x, y int) float32 { return float32(x) })
		mask := solidCell(g, 6, 5)
		Expect(solver.Jacobi(backend, p, div, q, mask, alpha, 0.25)).To(Succeed())
		// pE is replaced by pC = 5: (4 + 5 + 5 + 5) / 4
		Expect(q.At(5, 5)).To(BeNumerically("~", 19.0/4, 1e-6))
	})

	It("clears pressure", func() {
		fillScalar(p, func(x, y int) float32 { return 3 })
		Expect(solver.Clear(backend, p)).To(Succeed())
		Expect(p.AbsSum()).To(BeZero())
	})
})

var _ = Describe("Project", func() {
	It("removes the normal component into an obstacle", func() {
		g := field.NewGrid(5, 5)
		vel := field.NewBuffer(g, field.Vector)
		pres := field.NewBuffer(g, field.Scalar)
		dst := field.NewBuffer(g, field.Vector)
		mask := solidCell(g, 2, 2)

		vel.SetVec(3, 2, -1, 0.25) // east of the obstacle, moving west into it
		vel.SetVec(2, 3, 0.5, -1)  // north of the obstacle, moving south into it
		vel.SetVec(2, 2, 7, 7)     // inside the obstacle

		Expect(solver.Project(backend, vel, pres, dst, mask, 0.5)).To(Succeed())

		vx, vy := dst.Vec(3, 2)
		Expect(vx).To(BeZero())
		Expect(vy).To(Equal(float32(0.25)))

		vx, vy = dst.Vec(2, 3)
		Expect(vx).To(Equal(float32(0.5)))
		Expect(vy).To(BeZero())

		vx, vy = dst.Vec(2, 2)
		Expect(vx).To(BeZero())
		Expect(vy).To(BeZero())
	})

	It("subtracts the scaled pressure gradient", func() {
		g := field.NewGrid(6, 6)
		vel := field.NewBuffer(g, field.Vector)
		pres := field.NewBuffer(g, field.Scalar)
		dst := field.NewBuffer(g, field.Vector)
		fillScalar(pres, func(x, y int) float32 { return float32(2*x + 3*y) })

		Expect(solver.Project(backend, vel, pres, dst, nil, 0.5)).To(Succeed())
		vx, vy := dst.Vec(2, 2)
		Expect(vx).To(BeNumerically("~", -0.5*4, 1e-6))
		Expect(vy).To(BeNumerically("~", -0.5*6, 1e-6))
	})

	It("reduces divergence after a pressure solve", func() {
		g := field.NewGrid(16, 16)
		vel := field.NewBuffer(g, field.Vector)
		vel.SetVec(8, 8, 1, 0)

		div := field.NewBuffer(g, field.Scalar)
		Expect(solver.Divergence(backend, vel, div, nil, 0.5)).To(Succeed())
		before := div.Norm()

		p := field.NewBuffer(g, field.Scalar)
		q := field.NewBuffer(g, field.Scalar)
		for i := 0; i < 100; i++ {
			Expect(solver.Jacobi(backend, p, div, q, nil, -1, 0.25)).To(Succeed())
			p, q = q, p
		}

		out := field.NewBuffer(g, field.Vector)
		Expect(solver.Project(backend, vel, p, out, nil, 0.5)).To(Succeed())

		after := field.NewBuffer(g, field.Scalar)
		Expect(solver.Divergence(backend, out, after, nil, 0.5)).To(Succeed())
		Expect(after.Norm()).To(BeNumerically("<", 0.95*before))
	})
})
