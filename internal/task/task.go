package task

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/storage"
)

// Task is a command with its memory mapped, ready for execution. It is the
// output of a builder.Builder and the input of an executor.Executor.
type Task struct {
	Command *command.Command
	// Device is where the payload runs.
	Device device.Device
	// Views holds one view per command accessor, in declaration order.
	Views []access.View

	mappings []*storage.Mapping
}

// New assembles a task from mappings acquired for every accessor of c.
func New(c *command.Command, dev device.Device, mappings []*storage.Mapping) *Task {
	views := make([]access.View, len(mappings))
	for i, m := range mappings {
		views[i] = m.View()
	}
	return &Task{Command: c, Device: dev, Views: views, mappings: mappings}
}

// Args returns the payload arguments.
func (t *Task) Args() []access.View {
	return t.Command.ArgViews(t.Views)
}

// Finish releases the mappings, copying staged results back when the payload
// succeeded.
func (t *Task) Finish(success bool) {
	for _, m := range t.mappings {
		m.Finish(success)
	}
	t.mappings = nil
}
