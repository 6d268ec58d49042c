package compute

import (
	"fmt"
	"sort"
)

// Kernel computes and writes one output cell. Kernels must not write any
// cell other than (x, y) and must not read the buffer they write.
type Kernel func(x, y int)

type Backend interface {
	Name() string
	Available() bool
	Dispatch(width, height int, k Kernel) error
	Cleanup()
}

// DispatchError reports a kernel that could not complete.
type DispatchError struct {
	Backend string
	Cause   any
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("compute: %s dispatch failed: %v", e.Backend, e.Cause)
}

var registry = map[string]func() Backend{
	"cpu":    func() Backend { return NewCPUBackend() },
	"serial": func() Backend { return NewSerialBackend() },
	"auto":   AutoSelectBackend,
}

// Lookup returns a fresh backend by name.
func Lookup(name string) (Backend, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, Names())
	}
	b := fn()
	if !b.Available() {
		return nil, fmt.Errorf("backend %s not available", name)
	}
	return b, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func AutoSelectBackend() Backend {
	cpu := NewCPUBackend()
	if cpu.Available() && cpu.workers > 1 {
		return cpu
	}
	return NewSerialBackend()
}
