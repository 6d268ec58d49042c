package field

// Mask holds a signed distance per cell in normalized grid units. Negative
// values are inside an obstacle; zero and above are fluid.
type Mask struct {
	buf *Buffer
}

// NewMask returns an all-fluid mask.
func NewMask(g Grid) *Mask {
	m := &Mask{buf: NewBuffer(g, Scalar)}
	m.buf.Fill(1)
	return m
}

func (m *Mask) Grid() Grid { return m.buf.grid }

// Buffer exposes the storage the obstacle stage writes into.
func (m *Mask) Buffer() *Buffer { return m.buf }

// Value is the signed distance at (x, y), clamped to the grid.
func (m *Mask) Value(x, y int) float32 { return m.buf.At(x, y) }

// Solid reports whether (x, y) is inside an obstacle. Out-of-grid
// coordinates take the value of the nearest edge cell.
func (m *Mask) Solid(x, y int) bool { return m.buf.At(x, y) < 0 }

// SolidCount returns the number of obstacle cells.
func (m *Mask) SolidCount() int {
	n := 0
	for _, v := range m.buf.planes[0] {
		if v < 0 {
			n++
		}
	}
	return n
}
