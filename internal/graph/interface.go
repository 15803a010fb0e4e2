package graph

import (
	"context"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/topologystore"
)

// Summary counts commands by status.
type Summary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Skipped   int
}

// Graph is the command graph of one session.
type Graph interface {
	// AddCommand registers a submitted command in Pending state.
	AddCommand(ctx context.Context, c *command.Command) error

	// AddEdge records why one command waits for another.
	AddEdge(ctx context.Context, e topologystore.Edge) error

	// Command looks a command up by ID.
	Command(ctx context.Context, id cmdid.ID) (*command.Command, bool)

	// DependenciesOf returns the commands id waits for.
	DependenciesOf(ctx context.Context, id cmdid.ID) ([]*command.Command, error)

	// EdgesOf returns the incoming edges of id.
	EdgesOf(ctx context.Context, id cmdid.ID) ([]topologystore.Edge, error)

	// Edges returns every edge of the graph.
	Edges(ctx context.Context) []topologystore.Edge

	// CommandStatus returns the status of a command and whether it is known.
	CommandStatus(ctx context.Context, id cmdid.ID) (command.Status, bool)

	// CommandError returns the error a command failed or was skipped with.
	CommandError(ctx context.Context, id cmdid.ID) error

	// AllCommands returns every command ordered by queue and submission.
	AllCommands(ctx context.Context) []*command.Command

	// Summary counts commands by status.
	Summary(ctx context.Context) Summary

	// MarkRunning transitions a command to Running.
	MarkRunning(ctx context.Context, id cmdid.ID) error

	// MarkCompleted transitions a command to Completed.
	MarkCompleted(ctx context.Context, id cmdid.ID) error

	// MarkFailed transitions a command to Failed and records the error.
	MarkFailed(ctx context.Context, id cmdid.ID, cmdErr error) error

	// MarkSkipped transitions a command whose payload never ran to Skipped.
	MarkSkipped(ctx context.Context, id cmdid.ID, cause error) error
}
