// Package builder prepares commands for execution by mapping every accessor
// into memory the payload can address.
//
// # How It Works
//
// For each command a worker picks up:
//  1. **Place:** Payloads that run on the host (host tasks, fill, copy,
//     barriers) use host memory; everything else uses the queue's device
//  2. **Map:** Acquire one storage mapping per accessor, staging the
//     accessed region into device memory when the device has its own
//  3. **Return:** Hand the task to the executor
//
// A failed mapping releases the ones already acquired without copying
// anything back.
package builder

import (
	"context"

	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/storage"
	"github.com/specialistvlad/memgrid/internal/task"
)

// Builder turns a ready command into a task.
type Builder interface {
	Build(ctx context.Context, c *command.Command, dev device.Device) (*task.Task, error)
}

// DefaultBuilder maps accessors through a storage table.
type DefaultBuilder struct {
	table *storage.Table
}

// New creates a builder over table.
func New(table *storage.Table) Builder {
	return &DefaultBuilder{table: table}
}

// Build implements the Builder interface.
func (b *DefaultBuilder) Build(ctx context.Context, c *command.Command, dev device.Device) (*task.Task, error) {
	logger := ctxlog.FromContext(ctx)
	target := dev
	if c.OnHost() {
		target = nil
	}
	mappings := make([]*storage.Mapping, 0, len(c.Accessors))
	for _, acc := range c.Accessors {
		m, err := b.table.Acquire(target, acc)
		if err != nil {
			for _, done := range mappings {
				done.Finish(false)
			}
			return nil, err
		}
		mappings = append(mappings, m)
	}
	logger.Debug("Command mapped.", "id", c.ID.String(), "accessors", len(mappings), "onHost", target == nil)
	return task.New(c, dev, mappings), nil
}
