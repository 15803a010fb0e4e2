// Package topologystore defines the interface for storing the structure of
// the command graph: every submitted command and the edges the dependency
// resolver, explicit dependencies and in-order queues added between them.
//
// # Why Topology Store Exists
//
// The topology store keeps the command graph structure apart from the
// mutable execution state held by commandstore:
//   - **Clarity:** Structure queries (introspection, reports) don't mix with
//     state updates from workers
//   - **Thread-Safety:** Read-heavy queries use RLocks without contention from
//     frequent status writes
//   - **Testability:** Edges produced by hazard resolution can be checked
//     without running anything
//
// # Lifecycle and Usage
//
// The store is created once per session. Queues append a command and its
// incoming edges at submission, inside the table-wide submission lock, so
// edges always point from an earlier command to a later one and the graph
// is acyclic by construction. Nothing is removed until the session ends.
package topologystore

import (
	"context"
	"fmt"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/hazard"
)

// Cause tells why an edge exists.
type Cause int

const (
	// CauseHazard edges come from overlapping accesses.
	CauseHazard Cause = iota
	// CauseExplicit edges come from Handler.DependsOn.
	CauseExplicit
	// CauseInOrder edges chain the commands of an in-order queue.
	CauseInOrder
)

func (c Cause) String() string {
	switch c {
	case CauseHazard:
		return "hazard"
	case CauseExplicit:
		return "explicit"
	case CauseInOrder:
		return "in_order"
	}
	return fmt.Sprintf("cause(%d)", int(c))
}

// Edge is a directed dependency: To may not start before From is terminal.
type Edge struct {
	From, To cmdid.ID
	Cause    Cause
	// Hazard is set for CauseHazard edges.
	Hazard   hazard.Kind
	Strength hazard.Strength
}

func (e Edge) String() string {
	if e.Cause == CauseHazard {
		return fmt.Sprintf("%s -> %s (%s, %s)", e.From, e.To, e.Hazard, e.Strength)
	}
	return fmt.Sprintf("%s -> %s (%s, %s)", e.From, e.To, e.Cause, e.Strength)
}

// Store is the interface for managing the command graph structure.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use: queues add commands while
// workers and reporters read.
//
// # Typical Implementation
//
// See internal/inmemorytopology for the reference in-memory implementation.
type Store interface {
	// AddCommand registers a command. Adding the same command twice is
	// idempotent; a different command under a registered ID is an error.
	AddCommand(ctx context.Context, c *command.Command) error

	// AddEdge records a dependency edge. Both ends must already be
	// registered. Commands submitted through another session are unknown to
	// the store; callers skip such edges.
	AddEdge(ctx context.Context, e Edge) error

	// Command looks a command up by ID.
	Command(ctx context.Context, id cmdid.ID) (*command.Command, bool)

	// AllCommands returns every command ordered by queue, then submission.
	AllCommands(ctx context.Context) []*command.Command

	// DependenciesOf returns the incoming edges of id in insertion order.
	DependenciesOf(ctx context.Context, id cmdid.ID) ([]Edge, error)

	// DependentsOf returns the outgoing edges of id in insertion order.
	DependentsOf(ctx context.Context, id cmdid.ID) ([]Edge, error)

	// Edges returns every edge in insertion order.
	Edges(ctx context.Context) []Edge
}
