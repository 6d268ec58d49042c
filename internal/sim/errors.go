package sim

import (
	"errors"
	"fmt"
)

// Domain errors for simulation setup and stepping.
var (
	// ErrInvalidConfig indicates parameters no stage can run against.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrFrameAborted indicates a stage failed and the frame was rolled back.
	ErrFrameAborted = errors.New("sim: frame aborted")
)

// ConfigError names the offending parameter.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sim: invalid %s = %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// FrameError wraps a stage failure with the frame it happened in.
type FrameError struct {
	Frame   int
	Stage   string
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("sim: frame %d aborted in %s: %v", e.Frame, e.Stage, e.Wrapped)
}

func (e *FrameError) Unwrap() error { return e.Wrapped }

func (e *FrameError) Is(target error) bool { return target == ErrFrameAborted }
