package device

import (
	"context"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/specialistvlad/memgrid/internal/memory"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultSimMemory is the memory size of a Sim device unless configured.
const DefaultSimMemory = 256 << 20

// Sim is a simulated accelerator. It owns a separate, bounded memory pool,
// so data has to be staged in and out, and it runs work-groups in parallel
// on at most ComputeUnits goroutines shared by all concurrent launches.
type Sim struct {
	name     string
	units    int
	mem      *memory.Limited
	slots    *semaphore.Weighted
	launches atomic.Int64
}

// SimOption configures a Sim device.
type SimOption func(*Sim)

// WithComputeUnits sets the number of concurrently running work-groups.
func WithComputeUnits(n int) SimOption {
	return func(s *Sim) {
		if n > 0 {
			s.units = n
		}
	}
}

// WithMemory sets the device memory size in bytes.
func WithMemory(bytes int64) SimOption {
	return func(s *Sim) {
		if bytes > 0 {
			s.mem = memory.NewLimited(bytes)
		}
	}
}

// NewSim returns a simulated accelerator.
func NewSim(name string, opts ...SimOption) *Sim {
	s := &Sim{
		name:  name,
		units: 4,
		mem:   memory.NewLimited(DefaultSimMemory),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.slots = semaphore.NewWeighted(int64(s.units))
	return s
}

func (s *Sim) Name() string      { return s.name }
func (s *Sim) Kind() Kind        { return KindSim }
func (s *Sim) ComputeUnits() int { return s.units }
func (s *Sim) Unified() bool     { return false }

// Launches returns how many launches the device has started.
func (s *Sim) Launches() int64 { return s.launches.Load() }

func (s *Sim) MemoryUsage() (int64, int64) {
	return s.mem.Used(), s.mem.Limit
}

// Allocate reserves device memory, failing with an allocation error when the
// pool is exhausted.
func (s *Sim) Allocate(size int, usage gputypes.BufferUsage) (Buffer, error) {
	b, err := s.mem.Allocate(size, memory.CacheLineSize)
	if err != nil {
		return nil, rterr.Wrapf(rterr.KindAllocation, err, "device %s", s.name)
	}
	return &simBuffer{data: b, usage: usage, pool: s.mem}, nil
}

// Run splits the launch into work-groups and runs them concurrently.
func (s *Sim) Run(ctx context.Context, l Launch) error {
	s.launches.Add(1)
	if l.Global.Empty() {
		return nil
	}
	local := l.Local
	if local == (region.Shape{}) {
		local = l.Global
		local[0] = (l.Global[0] + s.units - 1) / s.units
	} else if err := validateLocal(l.Global, local); err != nil {
		return err
	}
	groups := groupCount(l.Global, local)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.units)
	for g0 := 0; g0 < groups[0]; g0++ {
		for g1 := 0; g1 < groups[1]; g1++ {
			for g2 := 0; g2 < groups[2]; g2++ {
				group := [region.MaxDims]int{g0, g1, g2}
				g.Go(func() error {
					if err := s.slots.Acquire(gctx, 1); err != nil {
						return err
					}
					defer s.slots.Release(1)
					args := groupLocals(l.Args)
					return forEachItem(l.Global, local, groups, group, func(it Item) error {
						return l.Kernel(it, args)
					})
				})
			}
		}
	}
	return runErr(l.Name, g.Wait())
}

type simBuffer struct {
	data  []byte
	usage gputypes.BufferUsage
	pool  *memory.Limited
	freed atomic.Bool
}

func (b *simBuffer) Bytes() []byte               { return b.data }
func (b *simBuffer) Size() int                   { return len(b.data) }
func (b *simBuffer) Usage() gputypes.BufferUsage { return b.usage }

func (b *simBuffer) Free() {
	if b.freed.CompareAndSwap(false, true) {
		b.pool.Free(b.data)
	}
}
