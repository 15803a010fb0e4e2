package workload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/localsession"
	"github.com/specialistvlad/memgrid/internal/queue"
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/session"
	"github.com/specialistvlad/memgrid/internal/storage"
)

// DefaultQueue is the name of the queue created when a workload declares
// none.
const DefaultQueue = "default"

// Runner executes workloads.
type Runner struct {
	registry  *registry.Registry
	converter config.Converter
	factory   session.SessionFactory
	workers   int
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the default worker count of every queue that does not
// declare its own.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithSessionFactory replaces the local session factory.
func WithSessionFactory(f session.SessionFactory) Option {
	return func(r *Runner) { r.factory = f }
}

// New returns a runner resolving kernels in reg and decoding their
// arguments with conv.
func New(reg *registry.Registry, conv config.Converter, opts ...Option) *Runner {
	r := &Runner{
		registry:  reg,
		converter: conv,
		factory:   &localsession.SessionFactory{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run is the state of one workload execution.
type run struct {
	*Runner
	w       *config.Workload
	sess    session.Session
	queues  map[string]*queue.Queue
	buffers map[string]*storage.Buffer
	events  map[string]*event.Event
	hosts   map[string][]byte
	result  *Result
}

// Run executes w and returns its report. Command failures are part of the
// report; the returned error is reserved for workloads that cannot be set
// up at all.
func (r *Runner) Run(ctx context.Context, w *config.Workload) (res *Result, err error) {
	logger := ctxlog.FromContext(ctx)
	if w == nil {
		w = &config.Workload{}
	}
	if err := validate(w); err != nil {
		return nil, err
	}

	devs, err := buildDevices(w.Devices)
	if err != nil {
		return nil, err
	}
	sess, err := r.factory.NewSession(ctx, session.Config{Devices: devs, Compiler: r.registry, Workers: r.workers})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	st := &run{
		Runner:  r,
		w:       w,
		sess:    sess,
		queues:  make(map[string]*queue.Queue),
		buffers: make(map[string]*storage.Buffer),
		events:  make(map[string]*event.Event),
		hosts:   make(map[string][]byte),
		result:  &Result{},
	}
	if err := st.createQueues(ctx); err != nil {
		return nil, err
	}
	if err := st.createBuffers(ctx); err != nil {
		st.releaseBuffers()
		return nil, err
	}

	start := time.Now()
	logger.Info("🚀 Submitting workload.", "commands", len(w.Commands), "queues", len(st.queues), "buffers", len(st.buffers))
	var submitted []*event.Event
	for _, c := range w.Commands {
		ev, err := st.submit(ctx, c)
		cr := CommandResult{Name: c.Name, Queue: c.Queue, Kernel: c.Kernel, event: ev}
		if err != nil {
			logger.Error("Command submission failed.", "command", c.Name, "error", err)
			cr.Status = StatusRejected
			cr.Err = err
		} else {
			st.events[c.Name] = ev
			submitted = append(submitted, ev)
		}
		st.result.Commands = append(st.result.Commands, cr)
	}

	if err := event.WaitAllContext(ctx, submitted...); err != nil {
		return nil, rterr.Wrap(rterr.KindEvent, err, "waiting for workload")
	}
	st.result.Elapsed = time.Since(start)
	st.collect(ctx)

	if err := st.snapshotBuffers(ctx); err != nil {
		st.releaseBuffers()
		return nil, err
	}
	if err := st.releaseBuffers(); err != nil {
		return nil, err
	}
	st.collectWriteBack()
	logger.Info("🏁 Workload finished.",
		"completed", st.result.Summary.Completed,
		"failed", st.result.Summary.Failed,
		"skipped", st.result.Summary.Skipped,
		"rejected", st.result.Rejected(),
		"elapsed", st.result.Elapsed,
	)
	return st.result, nil
}

// collect fills in the terminal state of every submitted command from the
// session's command graph.
func (st *run) collect(ctx context.Context) {
	g := st.sess.Graph()
	for i := range st.result.Commands {
		cr := &st.result.Commands[i]
		if cr.event == nil {
			continue
		}
		id, err := cmdid.Parse(cr.event.ID())
		if err != nil {
			cr.Status, cr.Err = StatusFailed, err
			continue
		}
		// A command that fell back runs on another queue.
		cr.Queue = id.Queue
		if q, ok := st.sess.Queue(id.Queue); ok {
			cr.Device = q.Device().Name()
		}
		status, _ := g.CommandStatus(ctx, id)
		cr.Status = statusOf(status)
		cr.Err = cr.event.Err()
		if p := cr.event.Profile(); !p.Started.IsZero() && !p.Ended.IsZero() {
			cr.Duration = p.Ended.Sub(p.Started)
		}
	}
	st.result.Summary = g.Summary(ctx)
}

func statusOf(s command.Status) Status {
	switch s {
	case command.StatusCompleted:
		return StatusCompleted
	case command.StatusFailed:
		return StatusFailed
	case command.StatusSkipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// validate checks the cross references of a workload before anything is
// created.
func validate(w *config.Workload) error {
	names := func(kind string, n int, name func(int) string) (map[string]bool, error) {
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			nm := name(i)
			if seen[nm] {
				return nil, fmt.Errorf("%s %q declared twice", kind, nm)
			}
			seen[nm] = true
		}
		return seen, nil
	}
	devs, err := names("device", len(w.Devices), func(i int) string { return w.Devices[i].Name })
	if err != nil {
		return err
	}
	queues, err := names("queue", len(w.Queues), func(i int) string { return w.Queues[i].Name })
	if err != nil {
		return err
	}
	if _, err := names("buffer", len(w.Buffers), func(i int) string { return w.Buffers[i].Name }); err != nil {
		return err
	}
	if _, err := names("command", len(w.Commands), func(i int) string { return w.Commands[i].Name }); err != nil {
		return err
	}

	for _, q := range w.Queues {
		if q.Device != "" && !devs[q.Device] && len(w.Devices) > 0 {
			return fmt.Errorf("queue %q uses undeclared device %q", q.Name, q.Device)
		}
		if q.Fallback != "" && !queues[q.Fallback] {
			return fmt.Errorf("queue %q falls back to undeclared queue %q", q.Name, q.Fallback)
		}
		if q.Fallback == q.Name && q.Fallback != "" {
			return fmt.Errorf("queue %q cannot fall back to itself", q.Name)
		}
	}
	earlier := make(map[string]bool, len(w.Commands))
	for _, c := range w.Commands {
		if c.Queue != "" && !queues[c.Queue] {
			if len(w.Queues) > 0 || c.Queue != DefaultQueue {
				return fmt.Errorf("command %q uses undeclared queue %q", c.Name, c.Queue)
			}
		}
		for _, dep := range c.DependsOn {
			name, err := commandRef(dep)
			if err != nil {
				return fmt.Errorf("command %q: %w", c.Name, err)
			}
			if !earlier[name] {
				return fmt.Errorf("command %q depends on %q, which is not declared before it", c.Name, dep)
			}
		}
		earlier[c.Name] = true
	}
	return nil
}

func buildDevices(decls []*config.Device) ([]device.Device, error) {
	devs := make([]device.Device, 0, len(decls))
	for _, d := range decls {
		kind, err := device.ParseKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		switch kind {
		case device.KindHost:
			devs = append(devs, device.NewHost(d.Name))
		default:
			devs = append(devs, device.NewSim(d.Name,
				device.WithComputeUnits(d.ComputeUnits),
				device.WithMemory(d.MemoryBytes),
			))
		}
	}
	return devs, nil
}

func (st *run) createQueues(ctx context.Context) error {
	decls := st.w.Queues
	if len(decls) == 0 {
		decls = []*config.Queue{{Name: DefaultQueue}}
	}
	for _, q := range decls {
		var sel device.Selector
		if q.Device != "" {
			sel = device.ByName(q.Device)
		}
		var opts []queue.Option
		if q.Workers > 0 {
			opts = append(opts, queue.WithWorkers(q.Workers))
		}
		if q.InOrder {
			opts = append(opts, queue.InOrder())
		}
		created, err := st.sess.NewQueue(ctx, q.Name, sel, opts...)
		if err != nil {
			return fmt.Errorf("queue %q: %w", q.Name, err)
		}
		st.queues[q.Name] = created
	}
	return nil
}

// queueFor resolves the queue a command is submitted to and its fallback.
func (st *run) queueFor(name string) (*queue.Queue, *queue.Queue) {
	decls := st.w.Queues
	if name == "" {
		if len(decls) == 0 {
			return st.queues[DefaultQueue], nil
		}
		name = decls[0].Name
	}
	q := st.queues[name]
	for _, d := range decls {
		if d.Name == name && d.Fallback != "" {
			return q, st.queues[d.Fallback]
		}
	}
	return q, nil
}
