package sim

import (
	"context"
	"sync"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
)

// Ensemble runs independent simulations of the same grid with different
// parameter sets, one goroutine per variant.
type Ensemble struct {
	grid     field.Grid
	backend  compute.Backend
	variants []Params
	metrics  func() []Metric
	opts     []Option
}

// NewEnsemble builds an ensemble. metrics is called once per variant so
// no metric state is shared between runs.
func NewEnsemble(g field.Grid, be compute.Backend, variants []Params, metrics func() []Metric, opts ...Option) *Ensemble {
	return &Ensemble{grid: g, backend: be, variants: variants, metrics: metrics, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, frames int) ([]*Result, error) {
	results := make([]*Result, len(e.variants))
	errs := make([]error, len(e.variants))

	var wg sync.WaitGroup
	for i, p := range e.variants {
		wg.Add(1)
		go func(idx int, p Params) {
			defer wg.Done()

			s, err := New(e.grid, p, e.backend, e.opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx, frames)
		}(i, p)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
