package inmemorytopology

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/topologystore"
)

// Store implements topologystore.Store using maps guarded by an RWMutex.
type Store struct {
	mu       sync.RWMutex
	commands map[cmdid.ID]*command.Command
	edges    []topologystore.Edge
	in       map[cmdid.ID][]int // Key: command ID, Value: indexes into edges
	out      map[cmdid.ID][]int
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		commands: make(map[cmdid.ID]*command.Command),
		in:       make(map[cmdid.ID][]int),
		out:      make(map[cmdid.ID][]int),
	}
}

// AddCommand adds a command to the store.
func (s *Store) AddCommand(ctx context.Context, c *command.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, exists := s.commands[c.ID]; exists {
		if prev == c {
			return nil
		}
		return rterr.Newf(rterr.KindRuntime, "command %q is already registered by another submission", c.ID)
	}
	s.commands[c.ID] = c
	return nil
}

// AddEdge records a dependency between two known commands.
func (s *Store) AddEdge(ctx context.Context, e topologystore.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.commands[e.From]; !exists {
		return rterr.Newf(rterr.KindRuntime, "edge source %q not found in command graph", e.From)
	}
	if _, exists := s.commands[e.To]; !exists {
		return rterr.Newf(rterr.KindRuntime, "edge target %q not found in command graph", e.To)
	}
	idx := len(s.edges)
	s.edges = append(s.edges, e)
	s.in[e.To] = append(s.in[e.To], idx)
	s.out[e.From] = append(s.out[e.From], idx)
	return nil
}

// Command retrieves a single command by ID.
func (s *Store) Command(ctx context.Context, id cmdid.ID) (*command.Command, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commands[id]
	return c, ok
}

// AllCommands returns a snapshot of all commands ordered by queue and
// submission.
func (s *Store) AllCommands(ctx context.Context) []*command.Command {
	s.mu.RLock()
	out := make([]*command.Command, 0, len(s.commands))
	for _, c := range s.commands {
		out = append(out, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *command.Command) int {
		return cmp.Or(cmp.Compare(a.ID.Queue, b.ID.Queue), cmp.Compare(a.ID.Seq, b.ID.Seq))
	})
	return out
}

func (s *Store) collect(id cmdid.ID, index map[cmdid.ID][]int) ([]topologystore.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.commands[id]; !exists {
		return nil, rterr.Newf(rterr.KindRuntime, "command %q not found in command graph", id)
	}
	edges := make([]topologystore.Edge, 0, len(index[id]))
	for _, i := range index[id] {
		edges = append(edges, s.edges[i])
	}
	return edges, nil
}

// DependenciesOf returns the incoming edges of id.
func (s *Store) DependenciesOf(ctx context.Context, id cmdid.ID) ([]topologystore.Edge, error) {
	return s.collect(id, s.in)
}

// DependentsOf returns the outgoing edges of id.
func (s *Store) DependentsOf(ctx context.Context, id cmdid.ID) ([]topologystore.Edge, error) {
	return s.collect(id, s.out)
}

// Edges returns a snapshot of every edge.
func (s *Store) Edges(ctx context.Context) []topologystore.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}
