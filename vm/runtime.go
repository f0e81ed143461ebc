// Package vm wires the entity registry, the status log and the virtual
// allocator into one interpreter runtime.
//
// A Runtime owns a single registry. Singletons such as the allocator and the
// None value are entities in that registry and are resolved by type:
//
//	rt, err := vm.New(vm.Options{})
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	m := rt.Allocator().Alloc(8)
//	m.PutInt64(0, 42)
//
// Runtime instances are not thread-safe.
package vm

import (
	"fmt"

	"github.com/joshuapare/vmkit/internal/logger"
	"github.com/joshuapare/vmkit/vm/alloc"
	"github.com/joshuapare/vmkit/vm/entity"
)

// NoneID is the identifier of the runtime's None singleton.
const NoneID = "none"

// Options configures a Runtime.
type Options struct {
	Alloc alloc.Config
}

// Runtime is the interpreter's memory runtime.
type Runtime struct {
	reg *entity.Registry
}

// New creates the registry, the None singleton and the allocator.
func New(opts Options) (*Runtime, error) {
	reg := entity.NewRegistry()
	reg.Create(entity.New(entity.TypeNone, NoneID))

	a, err := alloc.New(reg, opts.Alloc)
	if err != nil {
		return nil, fmt.Errorf("vm: %w", err)
	}
	logger.Debug("runtime started",
		"seed_capacity", a.Chunks()[0].Capacity(),
		"mapped", a.Chunks()[0].Mapped(),
	)
	return &Runtime{reg: reg}, nil
}

// Registry returns the runtime's entity registry.
func (r *Runtime) Registry() *entity.Registry { return r.reg }

// Allocator resolves the allocator singleton.
func (r *Runtime) Allocator() *alloc.Allocator {
	a, _ := r.reg.GetFirst(entity.TypeAllocator).(*alloc.Allocator)
	return a
}

// None resolves the None singleton.
func (r *Runtime) None() *entity.Entity {
	if n := r.reg.GetFirst(entity.TypeNone); n != nil {
		return n.Base()
	}
	return nil
}

// Close releases every chunk buffer.
func (r *Runtime) Close() error {
	if a := r.Allocator(); a != nil {
		return a.Close()
	}
	return nil
}
