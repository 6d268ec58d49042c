// Package viz renders simulation fields for people: PNG snapshots, GIF
// recordings and an interactive terminal viewer built on Bubble Tea.
//
//   - [Palette]: maps a normalized field value to a color
//   - [Render]: density plus obstacles as an image
//   - [Model]: live viewer stepping a simulator on every tick
//   - [App]: preset picker that opens a live viewer
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	R       - Reset fields
//	Arrows  - Move the smoke source
//	WASD    - Move the obstacle
//	+/-     - Jacobi iterations
//	B       - Toggle border walls
//	V       - Cycle view (density, temperature, speed, contour)
//	T       - Cycle themes
//	G       - Toggle GIF recording
//	?       - Show help overlay
package viz
