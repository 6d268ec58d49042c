package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/solver"
)

// Stage names, in pipeline order.
const (
	StageObstacles         = "obstacles"
	StageAdvectDensity     = "advect_density"
	StageAdvectTemperature = "advect_temperature"
	StageAdvectVelocity    = "advect_velocity"
	StageBuoyancy          = "buoyancy"
	StageImpulseTemp       = "impulse_temperature"
	StageImpulseDensity    = "impulse_density"
	StageDivergence        = "divergence"
	StageClearPressure     = "clear_pressure"
	StageJacobi            = "jacobi"
	StageProject           = "project"
)

// Stages lists the pipeline in execution order.
var Stages = []string{
	StageObstacles,
	StageAdvectDensity,
	StageAdvectTemperature,
	StageAdvectVelocity,
	StageBuoyancy,
	StageImpulseTemp,
	StageImpulseDensity,
	StageDivergence,
	StageClearPressure,
	StageJacobi,
	StageProject,
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// Simulator owns the fields of one grid and advances them frame by frame.
// It is not safe for concurrent use; run one Simulator per goroutine.
type Simulator struct {
	grid    field.Grid
	params  Params
	backend compute.Backend
	log     *slog.Logger

	velocity    *field.Field
	density     *field.Field
	temperature *field.Field
	pressure    *field.Field
	divergence  *field.Field
	mask        *field.Mask

	checkpoint checkpoint
	timings    map[string]time.Duration

	frame int
	time  float64

	metrics   []Metric
	observers []Observer
}

type checkpoint struct {
	velocity, density, temperature, pressure, mask *field.Buffer
}

func New(g field.Grid, p Params, be compute.Backend, opts ...Option) (*Simulator, error) {
	if err := validateGrid(g); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if be == nil {
		be = compute.AutoSelectBackend()
	}

	s := &Simulator{
		grid:        g,
		params:      p,
		backend:     be,
		log:         slog.Default(),
		velocity:    field.New(field.Velocity, g),
		density:     field.New(field.Density, g),
		temperature: field.New(field.Temperature, g),
		pressure:    field.New(field.Pressure, g),
		divergence:  field.New(field.Divergence, g),
		mask:        field.NewMask(g),
		checkpoint: checkpoint{
			velocity:    field.NewBuffer(g, field.Vector),
			density:     field.NewBuffer(g, field.Scalar),
			temperature: field.NewBuffer(g, field.Scalar),
			pressure:    field.NewBuffer(g, field.Scalar),
			mask:        field.NewBuffer(g, field.Scalar),
		},
		timings:   make(map[string]time.Duration, len(Stages)),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Grid() field.Grid         { return s.grid }
func (s *Simulator) Backend() compute.Backend { return s.backend }
func (s *Simulator) Params() Params           { return s.params }
func (s *Simulator) FrameIndex() int          { return s.frame }
func (s *Simulator) Time() float64            { return s.time }

func (s *Simulator) Velocity() *field.Buffer    { return s.velocity.Current() }
func (s *Simulator) Density() *field.Buffer     { return s.density.Current() }
func (s *Simulator) Temperature() *field.Buffer { return s.temperature.Current() }
func (s *Simulator) Pressure() *field.Buffer    { return s.pressure.Current() }
func (s *Simulator) Divergence() *field.Buffer  { return s.divergence.Current() }
func (s *Simulator) Mask() *field.Mask          { return s.mask }

// SetParams replaces the configuration used from the next frame on. The
// version is bumped so consumers can notice the change.
func (s *Simulator) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Version = s.params.Version + 1
	s.params = p
	s.log.Info("params updated", "version", p.Version, "frame", s.frame)
	return nil
}

// Bytes is the memory held by all field buffers, checkpoint excluded.
func (s *Simulator) Bytes() int {
	return s.velocity.Bytes() + s.density.Bytes() + s.temperature.Bytes() +
		s.pressure.Bytes() + s.divergence.Bytes() + s.mask.Buffer().Bytes()
}

// Timings returns the per-stage wall time of the last completed frame.
func (s *Simulator) Timings() map[string]time.Duration {
	out := make(map[string]time.Duration, len(s.timings))
	for k, v := range s.timings {
		out[k] = v
	}
	return out
}

// Reset zeroes every field and clears the frame counter.
func (s *Simulator) Reset() {
	s.velocity.Reset()
	s.density.Reset()
	s.temperature.Reset()
	s.pressure.Reset()
	s.divergence.Reset()
	s.mask.Buffer().Fill(1)
	s.frame = 0
	s.time = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Step advances the simulation by one frame. If any stage fails the
// fields are restored to their state before the frame and the frame
// counter does not advance.
func (s *Simulator) Step() error {
	p := s.params
	s.save()

	if err := s.runPipeline(p); err != nil {
		s.restore()
		s.log.Warn("frame aborted", "frame", s.frame, "err", err)
		return err
	}

	s.frame++
	s.time += float64(p.Dt)

	f := s.Frame()
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnFrame(f)
	}
	return nil
}

// Frame returns a read-only view of the current state.
func (s *Simulator) Frame() Frame {
	return Frame{
		Index:       s.frame,
		Time:        s.time,
		Params:      s.params,
		Velocity:    s.velocity.Current(),
		Density:     s.density.Current(),
		Temperature: s.temperature.Current(),
		Pressure:    s.pressure.Current(),
		Divergence:  s.divergence.Current(),
		Mask:        s.mask,
	}
}

func (s *Simulator) runPipeline(p Params) error {
	be := s.backend
	mask := s.mask
	vel, dens, temp := s.velocity, s.density, s.temperature
	pres, div := s.pressure, s.divergence

	steps := []struct {
		name string
		run  func() error
	}{
		{StageObstacles, func() error {
			return solver.Obstacles(be, mask.Buffer(), p.Obstacle.Disc(), p.Obstacle.Border)
		}},
		{StageAdvectDensity, swapped(dens, func() error {
			return solver.Advect(be, vel.Current(), dens.Current(), dens.Write(), mask, p.Dt, p.Dissipation.Density)
		})},
		{StageAdvectTemperature, swapped(temp, func() error {
			return solver.Advect(be, vel.Current(), temp.Current(), temp.Write(), mask, p.Dt, p.Dissipation.Temperature)
		})},
		{StageAdvectVelocity, swapped(vel, func() error {
			return solver.Advect(be, vel.Current(), vel.Current(), vel.Write(), mask, p.Dt, p.Dissipation.Velocity)
		})},
		{StageBuoyancy, swapped(vel, func() error {
			return solver.Buoyancy(be, vel.Current(), temp.Current(), dens.Current(), vel.Write(), p.Buoyancy, p.Dt)
		})},
		{StageImpulseTemp, swapped(temp, func() error {
			return solver.Impulse(be, temp.Current(), temp.Write(), p.Impulse.Disc(), p.Impulse.Temperature, p.Impulse.Mode)
		})},
		{StageImpulseDensity, swapped(dens, func() error {
			return solver.Impulse(be, dens.Current(), dens.Write(), p.Impulse.Disc(), p.Impulse.Density, p.Impulse.Mode)
		})},
		{StageDivergence, swapped(div, func() error {
			return solver.Divergence(be, vel.Current(), div.Write(), mask, p.Solver.HalfInverseCellSize())
		})},
		{StageClearPressure, swapped(pres, func() error {
			return solver.Clear(be, pres.Write())
		})},
		{StageJacobi, func() error {
			alpha, beta := p.Solver.Alpha(), p.Solver.JacobiBeta
			for i := 0; i < p.Solver.JacobiIterations; i++ {
				if err := solver.Jacobi(be, pres.Current(), div.Current(), pres.Write(), mask, alpha, beta); err != nil {
					return fmt.Errorf("iteration %d: %w", i, err)
				}
				pres.Swap()
			}
			return nil
		}},
		{StageProject, swapped(vel, func() error {
			return solver.Project(be, vel.Current(), pres.Current(), vel.Write(), mask, p.Solver.GradientScale)
		})},
	}

	for _, st := range steps {
		start := time.Now()
		if err := st.run(); err != nil {
			return &FrameError{Frame: s.frame, Stage: st.name, Wrapped: err}
		}
		s.timings[st.name] = time.Since(start)
	}
	s.log.Debug("frame complete", "frame", s.frame, "version", p.Version)
	return nil
}

// swapped promotes f's write buffer once fn succeeds.
func swapped(f *field.Field, fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil {
			return err
		}
		f.Swap()
		return nil
	}
}

func (s *Simulator) save() {
	s.checkpoint.velocity.CopyFrom(s.velocity.Current())
	s.checkpoint.density.CopyFrom(s.density.Current())
	s.checkpoint.temperature.CopyFrom(s.temperature.Current())
	s.checkpoint.pressure.CopyFrom(s.pressure.Current())
	s.checkpoint.mask.CopyFrom(s.mask.Buffer())
}

func (s *Simulator) restore() {
	s.velocity.Current().CopyFrom(s.checkpoint.velocity)
	s.density.Current().CopyFrom(s.checkpoint.density)
	s.temperature.Current().CopyFrom(s.checkpoint.temperature)
	s.pressure.Current().CopyFrom(s.checkpoint.pressure)
	s.mask.Buffer().CopyFrom(s.checkpoint.mask)
}

// Run steps the simulation for the given number of frames, recording
// every metric after each frame. The result carries the final metric
// values even when the run stops early.
func (s *Simulator) Run(ctx context.Context, frames int) (*Result, error) {
	if frames < 0 {
		return nil, &ConfigError{Field: "frames", Value: frames, Reason: "must not be negative"}
	}

	result := &Result{
		Grid:    s.grid,
		Records: make([]Record, 0, frames),
		Metrics: make(map[string]float64),
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start).Seconds()
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return result, err
		}
		result.StepsTaken++

		rec := Record{Frame: s.frame, Time: s.time, Metrics: make(map[string]float64, len(s.metrics))}
		for _, m := range s.metrics {
			rec.Metrics[m.Name()] = m.Value()
		}
		result.Records = append(result.Records, rec)
	}

	s.log.Info("run complete", "frames", result.StepsTaken, "grid", s.grid.String(), "backend", s.backend.Name())
	return result, nil
}
