// Package executor defines how a built task is run.
package executor

import (
	"context"

	"github.com/specialistvlad/memgrid/internal/task"
)

// Executor runs the payload of a task. It does not finish the task's
// mappings; the caller decides from the returned error whether staged results
// are copied back.
type Executor interface {
	Execute(ctx context.Context, t *task.Task) error
}
