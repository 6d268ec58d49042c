package viz

import (
	"math"
	"strings"

	"github.com/san-kum/fluidsim/internal/field"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille dot grid. Its size in dots is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y), with y growing downward.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Plot sets one dot per grid cell whose value exceeds threshold, scaling
// the grid onto the canvas. Grid row 0 lands on the bottom dot row.
func (c *Canvas) Plot(v field.View, threshold float64) {
	g := v.Grid()
	dw, dh := c.Width*2, c.Height*4
	for py := 0; py < dh; py++ {
		gy := g.Height - 1 - py*g.Height/dh
		for px := 0; px < dw; px++ {
			gx := px * g.Width / dw
			if cellValue(v, gx, gy) > threshold {
				c.Set(px, py)
			}
		}
	}
}

// Circle outlines a disc given in normalized grid coordinates.
func (c *Canvas) Circle(nx, ny, r float64) {
	if r <= 0 {
		return
	}
	dw, dh := float64(c.Width*2), float64(c.Height*4)
	steps := int(2*math.Pi*r*math.Max(dw, dh)) + 8
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x := (nx + r*math.Cos(a)) * dw
		y := (1 - (ny + r*math.Sin(a))) * dh
		c.Set(int(x), int(y))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}
