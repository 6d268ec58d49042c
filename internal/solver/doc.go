// Package solver implements the per-cell stages of the Stable Fluids method.
//
// Each stage reads the current buffers of its inputs and the solid mask,
// writes every cell of one destination buffer through a [compute.Backend],
// and keeps no state between calls:
//
//   - [Obstacles]: signed-distance solid mask
//   - [Advect]: semi-Lagrangian backtrace with dissipation
//   - [Buoyancy]: temperature/density driven vertical force
//   - [Impulse]: density or temperature source injection
//   - [Divergence]: right-hand side of the pressure equation
//   - [Clear], [Jacobi]: pressure initial guess and relaxation
//   - [Project]: pressure gradient subtraction
//
// Neighbors are addressed as north (y+1), south (y-1), east (x+1) and
// west (x-1). Out-of-grid neighbors clamp to the edge cell.
package solver
