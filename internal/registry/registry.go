package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/device"
)

// Kind is the payload a kernel enqueues.
type Kind int

const (
	// KindParallel kernels run once per work-item of an ND-range.
	KindParallel Kind = iota + 1
	// KindSingle kernels run once on the device.
	KindSingle
	// KindHost kernels run as host tasks.
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindParallel:
		return "parallel"
	case KindSingle:
		return "single"
	case KindHost:
		return "host"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Definition is one registered kernel.
type Definition struct {
	Name        string
	Description string
	Kind        Kind
	// Inputs is the built-in manifest of the arguments block.
	Inputs map[string]*config.InputDefinition
	// Accessors names the accessors the kernel expects, in argument order.
	Accessors []string
	// NewInput returns a pointer to a fresh input struct whose fields carry
	// `arg` tags.
	NewInput func() any

	Parallel func(input any) device.KernelFunc
	Single   func(input any) command.SingleTaskFunc
	Host     func(input any) command.HostTaskFunc
}

func (d *Definition) input(in any) any {
	if in == nil && d.NewInput != nil {
		return d.NewInput()
	}
	return in
}

// Module is the interface that all kernel modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the kernels of a single application instance.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a kernel. Registering a name twice is a programmer error.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", def.Name))
	}
	switch {
	case def.Kind == KindParallel && def.Parallel == nil,
		def.Kind == KindSingle && def.Single == nil,
		def.Kind == KindHost && def.Host == nil:
		panic(fmt.Sprintf("kernel '%s' of kind %s has no implementation", def.Name, def.Kind))
	}
	if def.Inputs == nil {
		def.Inputs = make(map[string]*config.InputDefinition)
	}
	slog.Debug("Registering kernel.", "name", def.Name, "kind", def.Kind.String())
	r.defs[def.Name] = def
}

// Lookup returns the kernel registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered kernel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.defs))
}

// PopulateDefinitionsFromModel merges manifests loaded from configuration
// into the registered definitions. A loaded input replaces the built-in
// input of the same name. Manifests for unregistered kernels are an error.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, manifest := range model.Kernels {
		def, ok := r.defs[name]
		if !ok {
			return fmt.Errorf("manifest declares kernel '%s' which is not registered", name)
		}
		if manifest.Description != "" {
			def.Description = manifest.Description
		}
		if def.Inputs == nil && len(manifest.Inputs) > 0 {
			def.Inputs = make(map[string]*config.InputDefinition, len(manifest.Inputs))
		}
		for in, idef := range manifest.Inputs {
			def.Inputs[in] = idef
		}
	}
	return nil
}
