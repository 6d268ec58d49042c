package field

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid indicates non-positive grid dimensions.
var ErrInvalidGrid = errors.New("field: invalid grid dimensions")

// Grid holds the cell dimensions shared by all fields of a simulation.
type Grid struct {
	Width  int
	Height int
}

func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height}
}

func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	return nil
}

func (g Grid) Cells() int { return g.Width * g.Height }

func (g Grid) Index(x, y int) int { return y*g.Width + x }

// Clamp pulls a cell coordinate back onto the grid.
func (g Grid) Clamp(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= g.Width {
		x = g.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.Height {
		y = g.Height - 1
	}
	return x, y
}

// Contains reports whether (x, y) lies on the grid.
func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Normalized returns the center of cell (x, y) in [0,1]² grid space.
func (g Grid) Normalized(x, y int) (float32, float32) {
	return (float32(x) + 0.5) / float32(g.Width), (float32(y) + 0.5) / float32(g.Height)
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
