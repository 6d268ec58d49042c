package solver

import (
	"errors"
	"fmt"

	"github.com/san-kum/fluidsim/internal/field"
)

var (
	// ErrGridMismatch indicates buffers of different dimensions in one stage.
	ErrGridMismatch = errors.New("solver: buffer grid mismatch")

	// ErrAliasedBuffers indicates a stage asked to write a buffer it reads.
	ErrAliasedBuffers = errors.New("solver: destination aliases an input buffer")

	// ErrKindMismatch indicates a scalar buffer where a vector is required or vice versa.
	ErrKindMismatch = errors.New("solver: buffer kind mismatch")
)

// checkBuffers verifies that dst shares the grid of every input and is not
// one of them.
func checkBuffers(stage string, dst *field.Buffer, mask *field.Mask, inputs ...*field.Buffer) error {
	if dst == nil {
		return fmt.Errorf("%s: nil destination", stage)
	}
	for _, in := range inputs {
		if in == nil {
			return fmt.Errorf("%s: nil input", stage)
		}
		if in == dst {
			return fmt.Errorf("%s: %w", stage, ErrAliasedBuffers)
		}
		if !dst.SameShape(in) {
			return fmt.Errorf("%s: %w: %v vs %v", stage, ErrGridMismatch, in.Grid(), dst.Grid())
		}
	}
	if mask != nil {
		if mask.Buffer() == dst {
			return fmt.Errorf("%s: %w", stage, ErrAliasedBuffers)
		}
		if mask.Grid() != dst.Grid() {
			return fmt.Errorf("%s: %w: mask %v vs %v", stage, ErrGridMismatch, mask.Grid(), dst.Grid())
		}
	}
	return nil
}

func requireKind(stage string, b *field.Buffer, k field.Kind) error {
	if b.Kind() != k {
		return fmt.Errorf("%s: %w: want %v, got %v", stage, ErrKindMismatch, k, b.Kind())
	}
	return nil
}
