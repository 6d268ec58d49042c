package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/solver"
)

var _ = Describe("Buoyancy", func() {
	It("adds the convection term to the vertical component only", func() {
		g := field.NewGrid(4, 4)
		vel := field.NewBuffer(g, field.Vector)
		temp := field.NewBuffer(g, field.Scalar)
		dens := field.NewBuffer(g, field.Scalar)
		dst := field.NewBuffer(g, field.Vector)

		fillVector(vel, func(x, y int) (float32, float32) { return 0.5, 1 })
		fillScalar(temp, func(x, y int) float32 { return float32(x) })
		fillScalar(dens, func(x, y int) float32 { return float32(y) })

		p := solver.BuoyancyParams{Ambient: 1, Buoyancy: 2, Weight: 0.5}
		Expect(solver.Buoyancy(backend, vel, temp, dens, dst, p, 0.25)).To(Succeed())

		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				vx, vy := dst.Vec(x, y)
				want := 1 + 0.25*((float32(x)-1)*2-float32(y)*0.5)
				Expect(vx).To(Equal(float32(0.5)))
				Expect(vy).To(BeNumerically("~", want, 1e-6))
			}
		}
	})
})

var _ = Describe("Impulse", func() {
	var (
		g   field.Grid
		src *field.Buffer
		dst *field.Buffer
	)

	BeforeEach(func() {
		g = field.NewGrid(16, 16)
		src = field.NewBuffer(g, field.Scalar)
		dst = field.NewBuffer(g, field.Scalar)
		fillScalar(src, func(x, y int) float32 { return 0.01 * float32(x+y) })
	})

	It("only modifies cells inside the radius", func() {
		disc := solver.Disc{X: 0.5, Y: 0.5, Radius: 0.2}
		Expect(solver.Impulse(backend, src, dst, disc, 3, solver.ImpulseSet)).To(Succeed())

		inside := 0
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				nx, ny := g.Normalized(x, y)
				if disc.Distance(nx, ny) < disc.Radius {
					inside++
					Expect(dst.At(x, y)).To(Equal(float32(3)))
				} else {
					Expect(dst.At(x, y)).To(Equal(src.At(x, y)))
				}
			}
		}
		Expect(inside).To(BeNumerically(">", 0))
	})

	It("blends toward the fill value without going negative", func() {
		disc := solver.Disc{X: 0.5, Y: 0.5, Radius: 0.3}
		Expect(solver.Impulse(backend, src, dst, disc, -5, solver.ImpulseBlend)).To(Succeed())
		Expect(solver.Impulse(backend, src, dst, disc, -5, solver.ImpulseBlend)).To(Succeed())

		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				nx, ny := g.Normalized(x, y)
				if disc.Contains(nx, ny) {
					Expect(dst.At(x, y)).To(BeNumerically(">=", 0))
					Expect(dst.At(x, y)).To(BeNumerically("<=", src.At(x, y)))
				} else {
					Expect(dst.At(x, y)).To(Equal(src.At(x, y)))
				}
			}
		}
	})

	It("reaches the fill value near the center of a blended disc", func() {
		disc := solver.Disc{X: 0.5, Y: 0.5, Radius: 0.3}
		Expect(solver.Impulse(backend, src, dst, disc, 2, solver.ImpulseBlend)).To(Succeed())

		// (r - d) is at least two cells here, so the falloff saturates
		Expect(dst.At(8, 8)).To(BeNumerically("~", 2, 1e-6))
		Expect(dst.At(7, 7)).To(BeNumerically("~", 2, 1e-6))

		// just inside the rim the cell only moves part of the way
		nx, ny := g.Normalized(12, 8)
		d := disc.Distance(nx, ny)
		Expect(d).To(BeNumerically("<", disc.Radius))
		a := (disc.Radius - d) * 16 * 0.5
		Expect(a).To(BeNumerically("<", 1))
		want := src.At(12, 8) + (2-src.At(12, 8))*a
		Expect(dst.At(12, 8)).To(BeNumerically("~", want, 1e-5))
	})

	It("parses modes", func() {
		m, err := solver.ParseImpulseMode("blend")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(solver.ImpulseBlend))

		m, err = solver.ParseImpulseMode("")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(solver.ImpulseSet))

		_, err = solver.ParseImpulseMode("splash")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Obstacles", func() {
	It("writes a signed distance that is negative only inside the disc", func() {
		g := field.NewGrid(20, 20)
		mask := field.NewMask(g)
		disc := solver.Disc{X: 0.5, Y: 0.5, Radius: 0.15}
		Expect(solver.Obstacles(backend, mask.Buffer(), disc, false)).To(Succeed())

		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				nx, ny := g.Normalized(x, y)
				Expect(mask.Solid(x, y)).To(Equal(disc.Contains(nx, ny)))
			}
		}
		Expect(mask.SolidCount()).To(BeNumerically(">", 0))
	})

	It("leaves every cell fluid for a zero radius", func() {
		g := field.NewGrid(8, 8)
		mask := field.NewMask(g)
		Expect(solver.Obstacles(backend, mask.Buffer(), solver.Disc{X: 0.5, Y: 0.5}, false)).To(Succeed())
		Expect(mask.SolidCount()).To(BeZero())
	})

	It("adds border walls", func() {
		g := field.NewGrid(6, 5)
		mask := field.NewMask(g)
		Expect(solver.Obstacles(backend, mask.Buffer(), solver.Disc{}, true)).To(Succeed())
		Expect(mask.SolidCount()).To(Equal(2*6 + 2*3))
		Expect(mask.Solid(0, 2)).To(BeTrue())
		Expect(mask.Solid(2, 2)).To(BeFalse())
	})
})
