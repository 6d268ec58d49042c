// Package field provides the grid storage shared by every solver stage.
//
// The package defines:
//
//   - [Grid]: fixed W×H dimensions of a simulation instance
//   - [Buffer]: one scalar plane or two vector planes of float32 cells
//   - [Field]: a double-buffered quantity with a read (current) and write buffer
//   - [Mask]: per-cell signed distance marking solid obstacles
//
// # Double Buffering
//
// A stage populates every cell of [Field.Write] from the current buffers of its
// inputs, then the owner calls [Field.Swap]:
//
//	solver.Advect(be, vel.Current(), dens.Current(), dens.Write(), mask, dt, 0.99)
//	dens.Swap()
//
// Cells are stored row-major with y growing upward, so row 0 is the bottom
// edge of the domain.
package field
