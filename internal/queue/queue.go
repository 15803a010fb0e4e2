// Package queue submits command groups to one device and runs them as their
// dependencies allow.
//
// # Submission
//
// Submit runs the command group function against a fresh handler, then,
// under the storage table's submission lock, resolves hazards for every
// accessor, assigns the command its ID and records it with its edges in the
// command graph. Dependencies are counted through terminal callbacks on the
// predecessor events; when the count hits zero the command goes to the
// scheduler, which hands it to a worker.
//
// # Failure
//
// A command whose value predecessor failed never runs its payload; its event
// fails with a dependency error and it is marked skipped. Commands that
// depend only through vacate edges run normally. Execution failures are
// captured for WaitAndThrow or the asynchronous handler.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/memgrid/internal/builder"
	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/executor"
	"github.com/specialistvlad/memgrid/internal/graph"
	"github.com/specialistvlad/memgrid/internal/hazard"
	"github.com/specialistvlad/memgrid/internal/localexecutor"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/scheduler"
	"github.com/specialistvlad/memgrid/internal/storage"
	"github.com/specialistvlad/memgrid/internal/topologystore"
)

// CommandGroupFunc declares one command through the handler.
type CommandGroupFunc func(h *command.Handler)

// AsyncHandler receives execution errors captured since the last delivery.
type AsyncHandler func(errs []error)

// Queue is bound to exactly one device.
type Queue struct {
	name    string
	dev     device.Device
	table   *storage.Table
	graph   graph.Graph
	sched   scheduler.Scheduler
	builder builder.Builder
	exec    executor.Executor
	logger  *slog.Logger
	async   AsyncHandler
	workers int
	inOrder bool

	// seq and last are guarded by the table's submission lock.
	seq  uint64
	last *event.Event

	mu        sync.Mutex
	pending   map[*event.Event]struct{}
	asyncErrs []error

	closed   atomic.Bool
	stopOnce sync.Once
	stopped  chan struct{}
	inflight sync.WaitGroup
	workerWG sync.WaitGroup
	runCtx   context.Context
	cancel   context.CancelFunc
}

// Option configures a queue.
type Option func(*Queue)

// WithWorkers sets the number of worker goroutines. The default is the
// device's compute units.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// InOrder makes every command wait for the previous command of the queue.
func InOrder() Option {
	return func(q *Queue) { q.inOrder = true }
}

// WithAsyncHandler routes captured execution errors to h instead of
// returning them from WaitAndThrow.
func WithAsyncHandler(h AsyncHandler) Option {
	return func(q *Queue) { q.async = h }
}

// WithGraph records commands in g. Queues of one session share a graph.
func WithGraph(g graph.Graph) Option {
	return func(q *Queue) { q.graph = g }
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithExecutor replaces the payload executor.
func WithExecutor(e executor.Executor) Option {
	return func(q *Queue) { q.exec = e }
}

// New creates a queue on dev and starts its workers.
func New(name string, dev device.Device, table *storage.Table, opts ...Option) *Queue {
	q := &Queue{
		name:    name,
		dev:     dev,
		table:   table,
		logger:  ctxlog.Nop(),
		workers: dev.ComputeUnits(),
		pending: make(map[*event.Event]struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.workers <= 0 {
		q.workers = 1
	}
	if q.graph == nil {
		q.graph = graph.NewInMemory()
	}
	if q.exec == nil {
		q.exec = localexecutor.New()
	}
	q.logger = q.logger.With("queue", name)
	q.builder = builder.New(table)
	q.sched = scheduler.New()
	q.runCtx, q.cancel = context.WithCancel(ctxlog.WithLogger(context.Background(), q.logger))

	q.logger.Debug("Starting worker pool.", "workers", q.workers, "device", dev.Name(), "inOrder", q.inOrder)
	q.workerWG.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker(i)
	}
	return q
}

func (q *Queue) Name() string          { return q.name }
func (q *Queue) Device() device.Device { return q.dev }
func (q *Queue) Graph() graph.Graph    { return q.graph }
func (q *Queue) Table() *storage.Table { return q.table }
func (q *Queue) IsInOrder() bool       { return q.inOrder }

// Submit submits a command group. If submission on q fails and fallback is
// not nil, the group is rerun once on fallback; when that fails too both
// causes are returned.
func (q *Queue) Submit(ctx context.Context, cgf CommandGroupFunc, fallback *Queue) (*event.Event, error) {
	ev, err := q.submit(ctx, cgf)
	if err == nil || fallback == nil || fallback == q {
		return ev, err
	}
	ctxlog.FromContext(ctx).Warn("Submission failed, retrying on fallback queue.", "queue", q.name, "fallback", fallback.name, "error", err)
	ev, ferr := fallback.submit(ctx, cgf)
	if ferr == nil {
		return ev, nil
	}
	return nil, rterr.Wrap(rterr.KindRuntime, errors.Join(err, ferr), fmt.Sprintf("submission failed on %s and fallback %s", q.name, fallback.name))
}

func runGroup(cgf CommandGroupFunc, h *command.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok {
				err = rterr.Wrap(rterr.KindRuntime, perr, "command group function panicked")
				return
			}
			err = rterr.Newf(rterr.KindRuntime, "command group function panicked: %v", r)
		}
	}()
	cgf(h)
	return nil
}

// dependency is one predecessor a new command waits for.
type dependency struct {
	ev       *event.Event
	strength hazard.Strength
}

func (q *Queue) submit(ctx context.Context, cgf CommandGroupFunc) (*event.Event, error) {
	logger := ctxlog.FromContext(ctx).With("queue", q.name)
	if q.closed.Load() {
		return nil, q.closedErr()
	}
	h := command.NewHandler(q.dev)
	if err := runGroup(cgf, h); err != nil {
		return nil, err
	}

	var c *command.Command
	var deps []dependency
	err := q.table.Atomically(func() error {
		if q.closed.Load() {
			return q.closedErr()
		}
		id := cmdid.New(q.name, h.Kind().String(), q.seq)
		ev := event.New(id.String())
		var err error
		c, err = h.Build(id, ev)
		if err != nil {
			return err
		}
		for _, acc := range c.Accessors {
			if err := q.table.Check(acc); err != nil {
				return err
			}
		}

		var edges []hazard.Edge
		var graphEdges []topologystore.Edge
		for _, acc := range c.Accessors {
			found, err := q.table.Track(acc, ev, id.String())
			if err != nil {
				return err
			}
			for _, e := range found {
				if e.Event == ev {
					continue
				}
				edges = append(edges, e)
				graphEdges = append(graphEdges, topologystore.Edge{Cause: topologystore.CauseHazard, Hazard: e.Hazard, Strength: e.Strength, From: fromID(e.Event)})
			}
		}
		for _, d := range c.Deps {
			edges = append(edges, hazard.Edge{Event: d, Owner: d.ID(), Strength: hazard.Value})
			graphEdges = append(graphEdges, topologystore.Edge{Cause: topologystore.CauseExplicit, Strength: hazard.Value, From: fromID(d)})
		}
		if q.inOrder && q.last != nil {
			edges = append(edges, hazard.Edge{Event: q.last, Owner: q.last.ID(), Strength: hazard.Vacate})
			graphEdges = append(graphEdges, topologystore.Edge{Cause: topologystore.CauseInOrder, Strength: hazard.Vacate, From: fromID(q.last)})
		}

		if err := q.graph.AddCommand(ctx, c); err != nil {
			return err
		}
		for _, ge := range graphEdges {
			if ge.From.IsZero() {
				continue
			}
			if _, known := q.graph.Command(ctx, ge.From); !known {
				continue
			}
			ge.To = id
			if err := q.graph.AddEdge(ctx, ge); err != nil {
				return err
			}
		}
		for _, e := range hazard.Merge(edges) {
			deps = append(deps, dependency{ev: e.Event, strength: e.Strength})
		}
		q.seq++
		q.last = ev
		q.inflight.Add(1)
		return nil
	})
	if err != nil {
		logger.Debug("Submission rejected.", "error", err)
		return nil, err
	}

	q.mu.Lock()
	q.pending[c.Event] = struct{}{}
	q.mu.Unlock()
	c.Event.OnTerminal(func(ev *event.Event) {
		q.mu.Lock()
		delete(q.pending, ev)
		q.mu.Unlock()
	})

	logger.Debug("Command submitted.", "id", c.ID.String(), "kind", c.Kind.String(), "dependencies", len(deps))
	c.SetDepCount(int32(len(deps)) + 1)
	for _, d := range deps {
		d.ev.OnTerminal(func(pred *event.Event) {
			if d.strength == hazard.Value && pred.Status() == event.Failed {
				c.RecordDependencyFailure(rterr.Wrapf(rterr.KindDependency, pred.Err(), "dependency %s failed", pred.ID()))
			}
			q.satisfy(c)
		})
	}
	q.satisfy(c)
	return c.Event, nil
}

func (q *Queue) closedErr() error {
	return rterr.Newf(rterr.KindRuntime, "queue %s is closed", q.name)
}

func fromID(ev *event.Event) cmdid.ID {
	id, err := cmdid.Parse(ev.ID())
	if err != nil {
		return cmdid.ID{}
	}
	return id
}

func (q *Queue) satisfy(c *command.Command) {
	if c.DecrementDepCount() == 0 {
		q.sched.Push(c)
	}
}

func (q *Queue) worker(workerID int) {
	defer q.workerWG.Done()
	logger := q.logger.With("workerID", workerID)
	logger.Debug("Worker started.")
	for c := range q.sched.Ready() {
		q.run(c)
	}
	logger.Debug("Worker stopped.")
}

func (q *Queue) run(c *command.Command) {
	defer q.inflight.Done()
	ctx := q.runCtx
	logger := q.logger.With("id", c.ID.String())

	if cause := c.DependencyFailure(); cause != nil {
		logger.Warn("Skipping command due to failed dependency.", "error", cause)
		c.SetStatus(command.StatusSkipped)
		if err := q.graph.MarkSkipped(ctx, c.ID, cause); err != nil {
			logger.Error("Failed to record skipped command.", "error", err)
		}
		c.Event.Fail(cause)
		return
	}

	c.Event.MarkRunning()
	c.SetStatus(command.StatusRunning)
	if err := q.graph.MarkRunning(ctx, c.ID); err != nil {
		logger.Error("Failed to record running command.", "error", err)
	}

	t, err := q.builder.Build(ctx, c, q.dev)
	if err == nil {
		err = q.exec.Execute(ctx, t)
		t.Finish(err == nil)
	}

	if err != nil {
		logger.Error("Command execution failed.", "error", err)
		c.SetStatus(command.StatusFailed)
		if gerr := q.graph.MarkFailed(ctx, c.ID, err); gerr != nil {
			logger.Error("Failed to record failed command.", "error", gerr)
		}
		q.capture(err)
		c.Event.Fail(err)
		return
	}

	logger.Debug("Command completed.")
	c.SetStatus(command.StatusCompleted)
	if gerr := q.graph.MarkCompleted(ctx, c.ID); gerr != nil {
		logger.Error("Failed to record completed command.", "error", gerr)
	}
	c.Event.Complete()
}

func (q *Queue) capture(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.asyncErrs = append(q.asyncErrs, err)
}

// Wait blocks until every command submitted so far is terminal.
func (q *Queue) Wait() {
	q.mu.Lock()
	evs := make([]*event.Event, 0, len(q.pending))
	for ev := range q.pending {
		evs = append(evs, ev)
	}
	q.mu.Unlock()
	event.WaitAll(evs...)
}

// WaitAndThrow waits and then delivers captured execution errors: to the
// asynchronous handler when one is set, otherwise as the joined return
// value.
func (q *Queue) WaitAndThrow() error {
	q.Wait()
	return q.ThrowAsynchronous()
}

// ThrowAsynchronous delivers the execution errors captured so far without
// waiting.
func (q *Queue) ThrowAsynchronous() error {
	q.mu.Lock()
	errs := q.asyncErrs
	q.asyncErrs = nil
	q.mu.Unlock()
	if len(errs) == 0 {
		return nil
	}
	if q.async != nil {
		q.async(errs)
		return nil
	}
	return errors.Join(errs...)
}

// Close rejects new submissions, waits for submitted commands to finish and
// stops the workers. Undelivered execution errors go to the asynchronous
// handler if one is set. When ctx ends first, running payloads are cancelled
// and a later Close finishes the shutdown.
func (q *Queue) Close(ctx context.Context) error {
	_ = q.table.Atomically(func() error {
		q.closed.Store(true)
		return nil
	})
	select {
	case <-q.stopped:
		return nil
	default:
	}
	drained := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		q.cancel()
		return rterr.Wrapf(rterr.KindRuntime, ctx.Err(), "closing queue %s", q.name)
	}
	q.stopOnce.Do(func() {
		q.sched.Close()
		q.workerWG.Wait()
		q.cancel()
		if q.async != nil {
			_ = q.ThrowAsynchronous()
		}
		close(q.stopped)
		q.logger.Debug("Queue closed.")
	})
	return nil
}
