// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for in-process
// execution.
package localsession

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/graph"
	"github.com/specialistvlad/memgrid/internal/inmemorystore"
	"github.com/specialistvlad/memgrid/internal/inmemorytopology"
	"github.com/specialistvlad/memgrid/internal/queue"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/session"
	"github.com/specialistvlad/memgrid/internal/storage"
)

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct{}

// NewSession creates and wires a new local session.
func (f *SessionFactory) NewSession(ctx context.Context, cfg session.Config) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)

	devices := cfg.Devices
	if len(devices) == 0 {
		devices = []device.Device{device.NewHost("host")}
	}
	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		if d == nil {
			return nil, rterr.New(rterr.KindDevice, "nil device in session config")
		}
		if seen[d.Name()] {
			return nil, rterr.Newf(rterr.KindDevice, "duplicate device name %q", d.Name())
		}
		seen[d.Name()] = true
	}

	topoStore := inmemorytopology.New()
	stateStore := inmemorystore.New()
	s := &Session{
		devices:  devices,
		table:    storage.NewTable(storage.WithLogger(logger)),
		graph:    graph.New(topoStore, stateStore),
		compiler: cfg.Compiler,
		workers:  cfg.Workers,
		queues:   make(map[string]*queue.Queue),
	}
	logger.Debug("Session created.", "devices", len(devices))
	return s, nil
}

// New is a shorthand for (&SessionFactory{}).NewSession.
func New(ctx context.Context, cfg session.Config) (session.Session, error) {
	return (&SessionFactory{}).NewSession(ctx, cfg)
}

// Session implements session.Session for local runs.
type Session struct {
	devices  []device.Device
	table    *storage.Table
	graph    graph.Graph
	compiler device.Compiler
	workers  int

	mu     sync.Mutex
	queues map[string]*queue.Queue
	order  []*queue.Queue
	closed bool
}

func (s *Session) Devices() []device.Device  { return slices.Clone(s.devices) }
func (s *Session) Table() *storage.Table     { return s.table }
func (s *Session) Graph() graph.Graph        { return s.graph }
func (s *Session) Compiler() device.Compiler { return s.compiler }

// NewQueue implements session.Session.
func (s *Session) NewQueue(ctx context.Context, name string, sel device.Selector, opts ...queue.Option) (*queue.Queue, error) {
	if sel == nil {
		sel = device.Default
	}
	dev, err := sel.Select(s.devices)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, rterr.New(rterr.KindRuntime, "session is closed")
	}
	if _, exists := s.queues[name]; exists {
		return nil, rterr.Newf(rterr.KindRuntime, "queue %q already exists", name)
	}
	base := []queue.Option{queue.WithGraph(s.graph), queue.WithLogger(ctxlog.FromContext(ctx))}
	if s.workers > 0 {
		base = append(base, queue.WithWorkers(s.workers))
	}
	q := queue.New(name, dev, s.table, append(base, opts...)...)
	s.queues[name] = q
	s.order = append(s.order, q)
	ctxlog.FromContext(ctx).Debug("Queue created.", "queue", name, "device", dev.Name())
	return q, nil
}

// Queue implements session.Session.
func (s *Session) Queue(name string) (*queue.Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[name]
	return q, ok
}

// Queues implements session.Session.
func (s *Session) Queues() []*queue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Close closes queues in reverse creation order.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	order := slices.Clone(s.order)
	s.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := order[i].Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Session closed.", "queues", len(order))
	return errors.Join(errs...)
}
