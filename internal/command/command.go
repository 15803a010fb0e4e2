package command

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/region"
)

// Kind is the payload kind of a command.
type Kind int

const (
	KindEmpty Kind = iota
	KindSingleTask
	KindParallelFor
	KindKernel
	KindHostTask
	KindInterop
	KindFill
	KindCopy
)

var kindNames = map[Kind]string{
	KindEmpty:       "barrier",
	KindSingleTask:  "single_task",
	KindParallelFor: "parallel_for",
	KindKernel:      "kernel",
	KindHostTask:    "host_task",
	KindInterop:     "interop",
	KindFill:        "fill",
	KindCopy:        "copy",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status is the scheduling state of a command as recorded in the command
// graph.
type Status int32

const (
	// StatusPending means the command waits for predecessors.
	StatusPending Status = iota
	// StatusRunning means a worker is executing the payload.
	StatusRunning
	// StatusCompleted means the payload finished successfully.
	StatusCompleted
	// StatusFailed means the payload returned an error or panicked.
	StatusFailed
	// StatusSkipped means a value predecessor failed and the payload never
	// ran.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// SingleTaskFunc is a payload executed once on the device.
type SingleTaskFunc func(args []access.View) error

// HostTaskFunc is a payload executed on a host goroutine with host views of
// its arguments.
type HostTaskFunc func(ctx context.Context, args []access.View) error

// Interop gives an interop payload the native device and argument memory.
type Interop struct {
	Device device.Device
	Args   []access.View
}

// InteropFunc is a payload that drives the device itself.
type InteropFunc func(ctx context.Context, ih Interop) error

// Command is a unit of work ready for scheduling.
type Command struct {
	ID    cmdid.ID
	Kind  Kind
	Name  string
	Event *event.Event

	// Accessors is every accessor the command declared, in declaration
	// order. Each participates in hazard resolution.
	Accessors []*access.Accessor
	// Args are indexes into Accessors, in payload argument order.
	Args []int
	// Deps are the explicit event dependencies.
	Deps []*event.Event

	single  SingleTaskFunc
	host    HostTaskFunc
	interop InteropFunc
	fn      device.KernelFunc
	kernel  device.Kernel
	global  region.Shape
	local   region.Shape
	value   []byte

	// depCount is the number of predecessors that have not reached a
	// terminal state.
	depCount atomic.Int32
	// status is the scheduling state.
	status atomic.Int32

	mu         sync.Mutex
	depFailure error
}

// Seq returns the queue-local submission number.
func (c *Command) Seq() uint64 { return c.ID.Seq }

// Global returns the ND-range of a launch payload.
func (c *Command) Global() region.Shape { return c.global }

// Local returns the work-group shape of a launch payload, zero when the
// device chooses.
func (c *Command) Local() region.Shape { return c.local }

// OnHost reports whether the payload runs against host memory regardless of
// the queue's device.
func (c *Command) OnHost() bool {
	switch c.Kind {
	case KindHostTask, KindFill, KindCopy, KindEmpty:
		return true
	}
	return false
}

// SetDepCount sets the number of unmet predecessors.
func (c *Command) SetDepCount(n int32) { c.depCount.Store(n) }

// DepCount returns the number of unmet predecessors.
func (c *Command) DepCount() int32 { return c.depCount.Load() }

// DecrementDepCount marks one predecessor terminal and returns how many are
// left.
func (c *Command) DecrementDepCount() int32 { return c.depCount.Add(-1) }

// SetStatus atomically sets the scheduling state.
func (c *Command) SetStatus(s Status) { c.status.Store(int32(s)) }

// Status atomically reads the scheduling state.
func (c *Command) Status() Status { return Status(c.status.Load()) }

// RecordDependencyFailure remembers the first failed value predecessor.
func (c *Command) RecordDependencyFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depFailure == nil {
		c.depFailure = err
	}
}

// DependencyFailure returns the first recorded failed value predecessor.
func (c *Command) DependencyFailure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depFailure
}

func (c *Command) String() string {
	return fmt.Sprintf("%s(%s)", c.ID, c.Kind)
}
