// Package compute provides the execution backends that run per-cell kernels.
//
// Every solver stage is a [Kernel] applied once to each cell of a grid. A
// [Backend] decides how the cells are scheduled:
//
//   - CPU: rows split across runtime.NumCPU() goroutines
//   - Serial: every cell on the calling goroutine
//
// # Barrier
//
// Dispatch returns only after every cell has been written, so the next stage
// always observes a fully materialized buffer:
//
//	be := compute.AutoSelectBackend()
//	err := be.Dispatch(w, h, func(x, y int) { dst.Set(x, y, src.At(x, y)) })
//
// A kernel that panics aborts the dispatch with a [DispatchError] instead of
// crashing the process.
package compute
