package field

// Role names the simulated quantity a field carries.
type Role int

const (
	Velocity Role = iota
	Density
	Temperature
	Pressure
	Divergence
	Solid
)

func (r Role) String() string {
	switch r {
	case Velocity:
		return "velocity"
	case Density:
		return "density"
	case Temperature:
		return "temperature"
	case Pressure:
		return "pressure"
	case Divergence:
		return "divergence"
	case Solid:
		return "solid"
	}
	return "unknown"
}

// Kind returns the cell type a role is stored as.
func (r Role) Kind() Kind {
	if r == Velocity {
		return Vector
	}
	return Scalar
}

// Field is a double-buffered quantity. Exactly one buffer is current at any
// time; stages write the other one and the owner swaps.
type Field struct {
	role  Role
	front *Buffer
	back  *Buffer
}

func New(role Role, g Grid) *Field {
	return &Field{
		role:  role,
		front: NewBuffer(g, role.Kind()),
		back:  NewBuffer(g, role.Kind()),
	}
}

func (f *Field) Role() Role { return f.role }
func (f *Field) Grid() Grid { return f.front.grid }
func (f *Field) Kind() Kind { return f.front.kind }

// Current is the authoritative buffer.
func (f *Field) Current() *Buffer { return f.front }

// Write is the inactive buffer a stage populates before Swap.
func (f *Field) Write() *Buffer { return f.back }

// Swap makes the write buffer current. Only the frame orchestrator calls it.
func (f *Field) Swap() { f.front, f.back = f.back, f.front }

// Bytes is the footprint of both buffers.
func (f *Field) Bytes() int { return f.front.Bytes() + f.back.Bytes() }

// Reset zeroes both buffers.
func (f *Field) Reset() {
	f.front.Fill(0)
	f.back.Fill(0)
}
