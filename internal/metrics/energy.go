package metrics

import (
	"math"

	"github.com/san-kum/fluidsim/internal/sim"
)

// KineticEnergy is ½Σ|v|² per frame, with unit density. Peak tracks the
// largest value seen since the last reset.
type KineticEnergy struct {
	value float64
	peak  float64
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (k *KineticEnergy) Name() string { return NameKineticEnergy }

func (k *KineticEnergy) Observe(f sim.Frame) {
	k.value = 0.5 * float64(f.Velocity.SquaredNorm())
	k.peak = math.Max(k.peak, k.value)
}

func (k *KineticEnergy) Value() float64 { return k.value }
func (k *KineticEnergy) Peak() float64  { return k.peak }

func (k *KineticEnergy) Reset() {
	k.value = 0
	k.peak = 0
}

type MaxSpeed struct {
	value float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string        { return NameMaxSpeed }
func (m *MaxSpeed) Observe(f sim.Frame) { m.value = float64(f.Velocity.MaxAbs()) }
func (m *MaxSpeed) Value() float64      { return m.value }
func (m *MaxSpeed) Reset()              { m.value = 0 }
