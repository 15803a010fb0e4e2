package graph

import (
	"context"
	"time"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/commandstore"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/inmemorystore"
	"github.com/specialistvlad/memgrid/internal/inmemorytopology"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/topologystore"
)

// Manager composes a topology store and a command state store.
type Manager struct {
	topology topologystore.Store
	state    commandstore.Store
}

// New creates a graph manager over the given stores.
func New(ts topologystore.Store, cs commandstore.Store) Graph {
	return &Manager{topology: ts, state: cs}
}

// NewInMemory creates a graph manager over fresh in-memory stores.
func NewInMemory() Graph {
	return New(inmemorytopology.New(), inmemorystore.New())
}

func (m *Manager) AddCommand(ctx context.Context, c *command.Command) error {
	if err := m.topology.AddCommand(ctx, c); err != nil {
		return err
	}
	return m.state.SetStatus(ctx, c.ID, command.StatusPending)
}

func (m *Manager) AddEdge(ctx context.Context, e topologystore.Edge) error {
	ctxlog.FromContext(ctx).Debug("Dependency recorded.", "edge", e.String())
	return m.topology.AddEdge(ctx, e)
}

func (m *Manager) Command(ctx context.Context, id cmdid.ID) (*command.Command, bool) {
	return m.topology.Command(ctx, id)
}

func (m *Manager) DependenciesOf(ctx context.Context, id cmdid.ID) ([]*command.Command, error) {
	edges, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*command.Command, 0, len(edges))
	seen := make(map[cmdid.ID]bool, len(edges))
	for _, e := range edges {
		if seen[e.From] {
			continue
		}
		seen[e.From] = true
		c, ok := m.topology.Command(ctx, e.From)
		if !ok {
			return nil, rterr.Newf(rterr.KindRuntime, "dependency %s of %s is missing from the command graph", e.From, id)
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Manager) EdgesOf(ctx context.Context, id cmdid.ID) ([]topologystore.Edge, error) {
	return m.topology.DependenciesOf(ctx, id)
}

func (m *Manager) Edges(ctx context.Context) []topologystore.Edge {
	return m.topology.Edges(ctx)
}

func (m *Manager) CommandStatus(ctx context.Context, id cmdid.ID) (command.Status, bool) {
	if _, ok := m.topology.Command(ctx, id); !ok {
		return command.StatusPending, false
	}
	status, err := m.state.GetStatus(ctx, id)
	if err != nil {
		return command.StatusPending, false
	}
	return status, true
}

func (m *Manager) CommandError(ctx context.Context, id cmdid.ID) error {
	err, lookupErr := m.state.GetError(ctx, id)
	if lookupErr != nil {
		return lookupErr
	}
	return err
}

func (m *Manager) AllCommands(ctx context.Context) []*command.Command {
	return m.topology.AllCommands(ctx)
}

func (m *Manager) Summary(ctx context.Context) Summary {
	var s Summary
	for _, c := range m.topology.AllCommands(ctx) {
		status, _ := m.state.GetStatus(ctx, c.ID)
		s.Total++
		switch status {
		case command.StatusPending:
			s.Pending++
		case command.StatusRunning:
			s.Running++
		case command.StatusCompleted:
			s.Completed++
		case command.StatusFailed:
			s.Failed++
		case command.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

func (m *Manager) MarkRunning(ctx context.Context, id cmdid.ID) error {
	if err := m.state.SetTiming(ctx, id, commandstore.Timing{Started: time.Now()}); err != nil {
		return err
	}
	return m.state.SetStatus(ctx, id, command.StatusRunning)
}

func (m *Manager) finish(ctx context.Context, id cmdid.ID) error {
	t, err := m.state.GetTiming(ctx, id)
	if err != nil {
		return err
	}
	t.Ended = time.Now()
	return m.state.SetTiming(ctx, id, t)
}

func (m *Manager) MarkCompleted(ctx context.Context, id cmdid.ID) error {
	if err := m.finish(ctx, id); err != nil {
		return err
	}
	return m.state.SetStatus(ctx, id, command.StatusCompleted)
}

func (m *Manager) MarkFailed(ctx context.Context, id cmdid.ID, cmdErr error) error {
	ctxlog.FromContext(ctx).Debug("Command marked failed.", "id", id.String(), "error", cmdErr)
	if err := m.finish(ctx, id); err != nil {
		return err
	}
	if err := m.state.SetError(ctx, id, cmdErr); err != nil {
		return err
	}
	return m.state.SetStatus(ctx, id, command.StatusFailed)
}

func (m *Manager) MarkSkipped(ctx context.Context, id cmdid.ID, cause error) error {
	ctxlog.FromContext(ctx).Debug("Command marked skipped.", "id", id.String(), "cause", cause)
	if err := m.state.SetError(ctx, id, cause); err != nil {
		return err
	}
	return m.state.SetStatus(ctx, id, command.StatusSkipped)
}
