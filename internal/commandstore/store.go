// Package commandstore defines the interface for the mutable execution state
// of submitted commands.
//
// # Why Command Store Exists
//
// The command store holds what changes while commands run (status, captured
// error and timings), apart from the graph structure in topologystore.
// Workers write it constantly; reports and tests read it. Keeping it separate
// lets both sides use the locking that fits their access pattern.
//
// # State Transitions
//
// Commands follow this lifecycle:
//
//	Pending → Running → Completed | Failed
//	Pending → Skipped (a value predecessor failed)
package commandstore

import (
	"context"
	"time"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
)

// Timing records when a command started and finished running.
type Timing struct {
	Started time.Time
	Ended   time.Time
}

// Duration returns the run time, zero if the command did not finish.
func (t Timing) Duration() time.Duration {
	if t.Started.IsZero() || t.Ended.IsZero() {
		return 0
	}
	return t.Ended.Sub(t.Started)
}

// Store is the interface for managing command execution state.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use from every worker of every
// queue of a session.
//
// # Typical Implementation
//
// See internal/inmemorystore for the reference in-memory implementation.
type Store interface {
	// SetStatus updates the status of a command.
	SetStatus(ctx context.Context, id cmdid.ID, status command.Status) error

	// GetStatus returns the status of a command, StatusPending if none was
	// set yet.
	GetStatus(ctx context.Context, id cmdid.ID) (command.Status, error)

	// SetError records why a command failed or was skipped.
	SetError(ctx context.Context, id cmdid.ID, cmdErr error) error

	// GetError returns the recorded error, nil if there is none.
	GetError(ctx context.Context, id cmdid.ID) (error, error)

	// SetTiming records the run timestamps of a command.
	SetTiming(ctx context.Context, id cmdid.ID, t Timing) error

	// GetTiming returns the recorded timestamps.
	GetTiming(ctx context.Context, id cmdid.ID) (Timing, error)
}
