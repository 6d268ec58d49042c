package solver

import "math"

// Disc is a circle in normalized [0,1]² grid space, used for obstacles and
// impulse sources.
type Disc struct {
	X, Y   float32
	Radius float32
}

// Distance from the disc center to a normalized position.
func (d Disc) Distance(nx, ny float32) float32 {
	dx := nx - d.X
	dy := ny - d.Y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// Contains reports whether a normalized position is strictly inside the disc.
func (d Disc) Contains(nx, ny float32) bool {
	return d.Distance(nx, ny) < d.Radius
}
