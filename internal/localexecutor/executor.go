// Package localexecutor provides the in-process implementation of the
// executor.Executor interface.
package localexecutor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/executor"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/task"
)

// Executor runs payloads on the calling goroutine.
type Executor struct{}

// New creates a new local executor.
func New() executor.Executor {
	return &Executor{}
}

// Execute implements executor.Executor. A panicking payload is reported as
// an execution error.
func (e *Executor) Execute(ctx context.Context, t *task.Task) (err error) {
	logger := ctxlog.FromContext(ctx).With("id", t.Command.ID.String(), "kind", t.Command.Kind.String())
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Payload panicked.", "panic", r, "stack", string(debug.Stack()))
			if perr, ok := r.(error); ok {
				if _, known := rterr.KindOf(perr); known {
					err = perr
					return
				}
			}
			err = rterr.New(rterr.KindExecution, fmt.Sprintf("%s panicked: %v", t.Command, r))
		}
	}()
	logger.Debug("Executing payload.")
	return t.Command.Execute(ctx, t.Device, t.Args())
}
