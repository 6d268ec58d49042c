package field

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Kind is the cell value type of a buffer.
type Kind int

const (
	Scalar Kind = iota
	Vector
)

func (k Kind) Planes() int {
	if k == Vector {
		return 2
	}
	return 1
}

func (k Kind) String() string {
	if k == Vector {
		return "vector"
	}
	return "scalar"
}

// View is the read-only surface handed to renderers and metrics.
type View interface {
	Grid() Grid
	Kind() Kind
	At(x, y int) float32
	Vec(x, y int) (float32, float32)
}

// Buffer stores one float32 plane per component. Vector buffers keep x and y
// in separate planes so each can be handed to blas32 directly.
type Buffer struct {
	grid   Grid
	kind   Kind
	planes [2][]float32
}

func NewBuffer(g Grid, k Kind) *Buffer {
	b := &Buffer{grid: g, kind: k}
	for c := 0; c < k.Planes(); c++ {
		b.planes[c] = make([]float32, g.Cells())
	}
	return b
}

func (b *Buffer) Grid() Grid { return b.grid }
func (b *Buffer) Kind() Kind { return b.kind }

// Plane exposes the raw storage of component c (0 = x or scalar, 1 = y).
func (b *Buffer) Plane(c int) []float32 { return b.planes[c] }

// Bytes is the storage footprint of the buffer.
func (b *Buffer) Bytes() int {
	return b.kind.Planes() * b.grid.Cells() * 4
}

// At returns component 0 at (x, y), clamping out-of-grid coordinates.
func (b *Buffer) At(x, y int) float32 {
	x, y = b.grid.Clamp(x, y)
	return b.planes[0][b.grid.Index(x, y)]
}

// Vec returns both components at (x, y), clamping out-of-grid coordinates.
// Scalar buffers report 0 for the y component.
func (b *Buffer) Vec(x, y int) (float32, float32) {
	x, y = b.grid.Clamp(x, y)
	i := b.grid.Index(x, y)
	if b.kind == Scalar {
		return b.planes[0][i], 0
	}
	return b.planes[0][i], b.planes[1][i]
}

func (b *Buffer) Set(x, y int, v float32) {
	b.planes[0][b.grid.Index(x, y)] = v
}

func (b *Buffer) SetVec(x, y int, vx, vy float32) {
	i := b.grid.Index(x, y)
	b.planes[0][i] = vx
	if b.kind == Vector {
		b.planes[1][i] = vy
	}
}

// Sample bilinearly interpolates component 0 at continuous cell coordinates.
// Positions outside the grid clamp to the valid sampling domain.
func (b *Buffer) Sample(px, py float32) float32 {
	return b.sample(0, px, py)
}

// SampleVec is Sample for both components.
func (b *Buffer) SampleVec(px, py float32) (float32, float32) {
	if b.kind == Scalar {
		return b.sample(0, px, py), 0
	}
	return b.sample(0, px, py), b.sample(1, px, py)
}

func (b *Buffer) sample(c int, px, py float32) float32 {
	maxX := float32(b.grid.Width - 1)
	maxY := float32(b.grid.Height - 1)
	px = clampf(px, 0, maxX)
	py = clampf(py, 0, maxY)

	x0 := int(px)
	y0 := int(py)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= b.grid.Width {
		x1 = b.grid.Width - 1
	}
	if y1 >= b.grid.Height {
		y1 = b.grid.Height - 1
	}
	fx := px - float32(x0)
	fy := py - float32(y0)

	p := b.planes[c]
	w := b.grid.Width
	v00 := p[y0*w+x0]
	v10 := p[y0*w+x1]
	v01 := p[y1*w+x0]
	v11 := p[y1*w+x1]

	// exact at integer positions so a zero offset is the identity
	if fx == 0 && fy == 0 {
		return v00
	}
	bottom := v00 + (v10-v00)*fx
	top := v01 + (v11-v01)*fx
	return bottom + (top-bottom)*fy
}

// clampf maps NaN to lo so a non-finite position still indexes the grid.
func clampf(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *Buffer) vector(c int) blas32.Vector {
	return blas32.Vector{N: len(b.planes[c]), Inc: 1, Data: b.planes[c]}
}

// Fill sets every component of every cell to v.
func (b *Buffer) Fill(v float32) {
	for c := 0; c < b.kind.Planes(); c++ {
		p := b.planes[c]
		for i := range p {
			p[i] = v
		}
	}
}

func (b *Buffer) Scale(s float32) {
	for c := 0; c < b.kind.Planes(); c++ {
		blas32.Scal(s, b.vector(c))
	}
}

// CopyFrom overwrites b with src. Both must share grid and kind.
func (b *Buffer) CopyFrom(src *Buffer) {
	for c := 0; c < b.kind.Planes(); c++ {
		blas32.Copy(src.vector(c), b.vector(c))
	}
}

// AbsSum is the sum of absolute values over all components.
func (b *Buffer) AbsSum() float32 {
	var s float32
	for c := 0; c < b.kind.Planes(); c++ {
		s += blas32.Asum(b.vector(c))
	}
	return s
}

// SquaredNorm is Σ|v|² over all cells.
func (b *Buffer) SquaredNorm() float32 {
	var s float32
	for c := 0; c < b.kind.Planes(); c++ {
		v := b.vector(c)
		s += blas32.Dot(v, v)
	}
	return s
}

// Norm is the Euclidean norm of the whole buffer.
func (b *Buffer) Norm() float32 {
	if b.kind == Scalar {
		return blas32.Nrm2(b.vector(0))
	}
	return float32(math.Sqrt(float64(b.SquaredNorm())))
}

// MaxAbs returns the largest per-cell magnitude.
func (b *Buffer) MaxAbs() float32 {
	var m float32
	n := b.grid.Cells()
	for i := 0; i < n; i++ {
		var v float32
		if b.kind == Vector {
			x, y := b.planes[0][i], b.planes[1][i]
			v = float32(math.Sqrt(float64(x*x + y*y)))
		} else {
			v = b.planes[0][i]
			if v < 0 {
				v = -v
			}
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Finite reports whether no cell holds NaN or Inf.
func (b *Buffer) Finite() bool {
	for c := 0; c < b.kind.Planes(); c++ {
		for _, v := range b.planes[c] {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}

// Rows copies component 0 into a [height][width] array.
func (b *Buffer) Rows() [][]float32 {
	rows := make([][]float32, b.grid.Height)
	for y := range rows {
		rows[y] = make([]float32, b.grid.Width)
		copy(rows[y], b.planes[0][y*b.grid.Width:(y+1)*b.grid.Width])
	}
	return rows
}

// SameShape reports whether two buffers can be used together by a stage.
func (b *Buffer) SameShape(o *Buffer) bool {
	return o != nil && b.grid == o.grid
}
