package sim_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
)

type countingMetric struct {
	frames int
}

func (c *countingMetric) Name() string      { return "frames" }
func (c *countingMetric) Observe(sim.Frame) { c.frames++ }
func (c *countingMetric) Value() float64    { return float64(c.frames) }
func (c *countingMetric) Reset()            { c.frames = 0 }

// cancelAfter cancels a context once n frames have completed.
type cancelAfter struct {
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) OnFrame(f sim.Frame) {
	if f.Index >= c.n {
		c.cancel()
	}
}

var _ = Describe("Simulator", func() {
	var grid field.Grid

	BeforeEach(func() {
		grid = field.NewGrid(8, 8)
	})

	Describe("a still box with one density source", func() {
		It("fills exactly the covered cells and keeps the fluid at rest", func() {
			s, err := sim.New(grid, stillParams(), compute.NewSerialBackend())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Step()).To(Succeed())

			disc := solver.Disc{X: 0.5, Y: 0.5, Radius: 0.2}
			covered := 0
			for y := 0; y < grid.Height; y++ {
				for x := 0; x < grid.Width; x++ {
					nx, ny := grid.Normalized(x, y)
					if disc.Contains(nx, ny) {
						covered++
						Expect(s.Density().At(x, y)).To(Equal(float32(1)), "cell (%d,%d)", x, y)
					} else {
						Expect(s.Density().At(x, y)).To(BeZero(), "cell (%d,%d)", x, y)
					}
					vx, vy := s.Velocity().Vec(x, y)
					Expect(vx).To(BeZero())
					Expect(vy).To(BeZero())
				}
			}
			Expect(covered).To(Equal(12))
			Expect(s.FrameIndex()).To(Equal(1))
			Expect(s.Time()).To(BeNumerically("~", 0.125, 1e-9))
		})

		It("gives the same result on the parallel backend", func() {
			serial, err := sim.New(grid, stillParams(), compute.NewSerialBackend())
			Expect(err).NotTo(HaveOccurred())
			parallel, err := sim.New(grid, stillParams(), compute.NewCPUBackendWorkers(3))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				Expect(serial.Step()).To(Succeed())
				Expect(parallel.Step()).To(Succeed())
			}
			Expect(parallel.Density().Rows()).To(Equal(serial.Density().Rows()))
		})
	})

	Describe("the default smoke scene", func() {
		It("stays finite and carves the obstacle", func() {
			s, err := sim.New(field.NewGrid(32, 32), sim.DefaultParams(), compute.NewCPUBackendWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				Expect(s.Step()).To(Succeed())
			}
			Expect(s.Velocity().Finite()).To(BeTrue())
			Expect(s.Density().Finite()).To(BeTrue())
			Expect(s.Mask().SolidCount()).To(BeNumerically(">", 0))
			Expect(s.Density().AbsSum()).To(BeNumerically(">", 0))

			// solid cells never carry velocity
			g := s.Grid()
			for y := 0; y < g.Height; y++ {
				for x := 0; x < g.Width; x++ {
					if s.Mask().Solid(x, y) {
						vx, vy := s.Velocity().Vec(x, y)
						Expect(vx).To(BeZero())
						Expect(vy).To(BeZero())
					}
				}
			}
		})
	})

	Describe("frame abort", func() {
		It("restores every field and leaves the frame counter alone", func() {
			be := &flakyBackend{Backend: compute.NewSerialBackend()}
			s, err := sim.New(grid, sim.DefaultParams(), be)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Step()).To(Succeed())

			density := s.Density().Rows()
			temperature := s.Temperature().Rows()
			velocity := s.Velocity().Rows()

			// fail inside the pressure solve, after advection and forces ran
			be.failAt = be.calls + 10
			err = s.Step()
			Expect(err).To(MatchError(errInjected))
			Expect(errors.Is(err, sim.ErrFrameAborted)).To(BeTrue())

			var fe *sim.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Stage).To(Equal(sim.StageJacobi))
			Expect(fe.Frame).To(Equal(1))

			Expect(s.FrameIndex()).To(Equal(1))
			Expect(s.Density().Rows()).To(Equal(density))
			Expect(s.Temperature().Rows()).To(Equal(temperature))
			Expect(s.Velocity().Rows()).To(Equal(velocity))
		})
	})

	Describe("numeric blow-up", func() {
		It("keeps stepping once velocity is no longer finite", func() {
			p := sim.DefaultParams()
			p.Buoyancy.Buoyancy = 3e38
			p.Impulse.Temperature = 3e38
			s, err := sim.New(field.NewGrid(16, 16), p, compute.NewSerialBackend())
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 6; i++ {
				Expect(s.Step()).To(Succeed(), "frame %d", i)
			}
			Expect(s.FrameIndex()).To(Equal(6))
			Expect(s.Velocity().Finite()).To(BeFalse())
		})
	})

	Describe("configuration", func() {
		It("rejects a non-positive grid", func() {
			_, err := sim.New(field.NewGrid(0, 4), sim.DefaultParams(), nil)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		})

		DescribeTable("rejects invalid parameters",
			func(mutate func(*sim.Params), name string) {
				p := sim.DefaultParams()
				mutate(&p)
				err := p.Validate()
				Expect(err).To(MatchError(sim.ErrInvalidConfig))
				var ce *sim.ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
				Expect(ce.Field).To(Equal(name))
			},
			Entry("zero dt", func(p *sim.Params) { p.Dt = 0 }, "dt"),
			Entry("dissipation above one", func(p *sim.Params) { p.Dissipation.Density = 1.5 }, "dissipation.density"),
			Entry("negative impulse radius", func(p *sim.Params) { p.Impulse.Radius = -0.1 }, "impulse.radius"),
			Entry("negative obstacle radius", func(p *sim.Params) { p.Obstacle.Radius = -1 }, "obstacle.radius"),
			Entry("zero cell size", func(p *sim.Params) { p.Solver.CellSize = 0 }, "solver.cell_size"),
			Entry("negative iterations", func(p *sim.Params) { p.Solver.JacobiIterations = -1 }, "solver.jacobi_iterations"),
		)

		It("bumps the version on SetParams", func() {
			s, err := sim.New(grid, sim.DefaultParams(), nil)
			Expect(err).NotTo(HaveOccurred())
			p := s.Params()
			p.Impulse.X = 0.25
			Expect(s.SetParams(p)).To(Succeed())
			Expect(s.Params().Version).To(Equal(uint64(1)))
			Expect(s.Params().Impulse.X).To(Equal(float32(0.25)))

			p.Dt = -1
			Expect(s.SetParams(p)).NotTo(Succeed())
			Expect(s.Params().Dt).To(Equal(float32(0.125)))
		})

		It("logs the new version on SetParams", func() {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))
			s, err := sim.New(grid, sim.DefaultParams(), nil, sim.WithLogger(log))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetParams(s.Params())).To(Succeed())
			Expect(s.SetParams(s.Params())).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("params updated"))
			Expect(buf.String()).To(ContainSubstring("version=2"))
		})
	})

	Describe("Run", func() {
		It("records every frame and stops on cancellation", func() {
			s, err := sim.New(grid, stillParams(), compute.NewSerialBackend())
			Expect(err).NotTo(HaveOccurred())
			m := &countingMetric{}
			s.AddMetric(m)

			res, err := s.Run(context.Background(), 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(4))
			Expect(res.Records).To(HaveLen(4))
			Expect(res.Records[3].Metrics["frames"]).To(Equal(4.0))
			Expect(res.Metrics["frames"]).To(Equal(4.0))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err = s.Run(ctx, 4)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(BeZero())
		})

		It("keeps final metrics when cancelled part way", func() {
			s, err := sim.New(grid, stillParams(), compute.NewSerialBackend())
			Expect(err).NotTo(HaveOccurred())
			m := &countingMetric{}
			s.AddMetric(m)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			s.AddObserver(&cancelAfter{n: 2, cancel: cancel})

			res, err := s.Run(ctx, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(Equal(2))
			Expect(res.Metrics).To(HaveKeyWithValue("frames", 2.0))
		})

		It("resets to an empty box", func() {
			s, err := sim.New(grid, stillParams(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Step()).To(Succeed())
			s.Reset()
			Expect(s.FrameIndex()).To(BeZero())
			Expect(s.Density().AbsSum()).To(BeZero())
		})
	})

	Describe("Ensemble", func() {
		It("runs each variant independently", func() {
			a := stillParams()
			b := stillParams()
			b.Impulse.Density = 2

			e := sim.NewEnsemble(grid, compute.NewCPUBackendWorkers(2), []sim.Params{a, b},
				func() []sim.Metric { return []sim.Metric{&countingMetric{}} })
			results, err := e.Run(context.Background(), 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Metrics["frames"]).To(Equal(2.0))
			Expect(results[1].StepsTaken).To(Equal(2))
		})
	})
})
