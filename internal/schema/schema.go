// Package schema holds the gohcl decoding targets for workload files and
// kernel manifests.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Workload Structures ---

// Device is a `device "name" {}` block.
type Device struct {
	Name         string `hcl:"name,label"`
	Kind         string `hcl:"kind"`
	ComputeUnits int    `hcl:"compute_units,optional"`
	MemoryBytes  int64  `hcl:"memory_bytes,optional"`
}

// Queue is a `queue "name" {}` block.
type Queue struct {
	Name     string `hcl:"name,label"`
	Device   string `hcl:"device"`
	Workers  int    `hcl:"workers,optional"`
	InOrder  bool   `hcl:"in_order,optional"`
	Fallback string `hcl:"fallback,optional"`
}

// Buffer is a `buffer "name" {}` block. Init is kept as an expression so
// that both lists and single numbers can be given.
type Buffer struct {
	Name      string         `hcl:"name,label"`
	Element   string         `hcl:"element,optional"`
	Shape     []int          `hcl:"shape,optional"`
	Init      hcl.Expression `hcl:"init,optional"`
	WriteBack *bool          `hcl:"write_back,optional"`
	ViewOf    string         `hcl:"view_of,optional"`
	Offset    []int          `hcl:"offset,optional"`
	Range     []int          `hcl:"range,optional"`
}

// Accessor is an `accessor "name" {}` block inside a command.
type Accessor struct {
	Name   string `hcl:"name,label"`
	Buffer string `hcl:"buffer"`
	Mode   string `hcl:"mode"`
	Target string `hcl:"target,optional"`
	Offset []int  `hcl:"offset,optional"`
	Range  []int  `hcl:"range,optional"`
}

// CommandArgs represents the content of the 'arguments' block within a
// command.
type CommandArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Command is a `command "name" {}` block.
type Command struct {
	Name      string       `hcl:"name,label"`
	Queue     string       `hcl:"queue"`
	Kernel    string       `hcl:"kernel,optional"`
	Build     string       `hcl:"build_options,optional"`
	Range     []int        `hcl:"range,optional"`
	Local     []int        `hcl:"local,optional"`
	Accessors []*Accessor  `hcl:"accessor,block"`
	Arguments *CommandArgs `hcl:"arguments,block"`
	DependsOn []string     `hcl:"depends_on,optional"`
}

// WorkloadConfig represents the top-level structure of a workload file.
type WorkloadConfig struct {
	Devices  []*Device  `hcl:"device,block"`
	Queues   []*Queue   `hcl:"queue,block"`
	Buffers  []*Buffer  `hcl:"buffer,block"`
	Commands []*Command `hcl:"command,block"`
	Kernels  []*Kernel  `hcl:"kernel,block"`
}

// --- Kernel Manifest Schemas ---

// InputDefinition defines a single kernel argument.
type InputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// Kernel is a `kernel "name" {}` manifest block.
type Kernel struct {
	Name        string             `hcl:"name,label"`
	Description string             `hcl:"description,optional"`
	Inputs      []*InputDefinition `hcl:"input,block"`
}
