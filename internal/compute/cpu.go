package compute

import (
	"runtime"
	"sync"
)

// minParallelCells is the grid size below which goroutine fan-out costs more
// than it saves.
const minParallelCells = 64 * 64

type CPUBackend struct {
	workers  int
	minCells int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers:  runtime.NumCPU(),
		minCells: minParallelCells,
	}
}

// NewCPUBackendWorkers fixes the worker count and always fans out, which
// tests use to exercise the parallel path on small grids.
func NewCPUBackendWorkers(workers int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.workers }

func (c *CPUBackend) Dispatch(width, height int, k Kernel) error {
	if width*height < c.minCells || c.workers <= 1 || height < 2 {
		return runRows(c.Name(), width, 0, height, k)
	}

	workers := c.workers
	if workers > height {
		workers = height
	}
	chunkSize := (height + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > height {
			end = height
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(worker, y0, y1 int) {
			defer wg.Done()
			errs[worker] = runRows(c.Name(), width, y0, y1, k)
		}(w, start, end)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runRows applies k to rows [y0, y1) and converts a kernel panic into a
// DispatchError.
func runRows(backend string, width, y0, y1 int, k Kernel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Backend: backend, Cause: r}
		}
	}()
	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			k(x, y)
		}
	}
	return nil
}
