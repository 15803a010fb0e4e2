package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a workload plus
// the kernel manifests loaded alongside it.
type Model struct {
	Kernels  map[string]*KernelDefinition
	Workload *Workload
}

// Workload is the user's declaration of devices, queues, buffers and the
// command groups submitted to them, in file order.
type Workload struct {
	Devices  []*Device
	Queues   []*Queue
	Buffers  []*Buffer
	Commands []*Command
}

// Device is a `device` block.
type Device struct {
	Name         string
	Kind         string
	ComputeUnits int
	// MemoryBytes bounds simulated device memory; zero keeps the default.
	MemoryBytes int64
}

// Queue is a `queue` block.
type Queue struct {
	Name     string
	Device   string
	Workers  int
	InOrder  bool
	Fallback string
}

// Buffer is a `buffer` block. A buffer with ViewOf set is a sub-buffer of
// another buffer and carries no element type or init values.
type Buffer struct {
	Name      string
	Element   string
	Shape     []int
	Init      cty.Value
	WriteBack bool
	ViewOf    string
	Offset    []int
	Range     []int
}

// Command is a `command` block: one command group.
type Command struct {
	Name      string
	Queue     string
	Kernel    string
	Build     string
	Range     []int
	Local     []int
	Accessors []*Accessor
	Arguments map[string]hcl.Expression
	DependsOn []string
}

// Accessor is an `accessor` block inside a command.
type Accessor struct {
	Name   string
	Buffer string
	Mode   string
	Target string
	Offset []int
	Range  []int
}

// --- Kernel Manifest Models ---

// KernelDefinition is the format-agnostic representation of a kernel
// manifest: the inputs its arguments block accepts.
type KernelDefinition struct {
	Name        string
	Description string
	Inputs      map[string]*InputDefinition
}

// InputDefinition defines a single kernel argument.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}
