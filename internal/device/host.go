package device

import (
	"context"
	"runtime"

	"github.com/gogpu/gputypes"
	"github.com/specialistvlad/memgrid/internal/memory"
	"github.com/specialistvlad/memgrid/internal/region"
)

// Host executes payloads on the calling worker goroutine, directly on host
// memory. An ND-range runs as a single work-group.
type Host struct {
	name string
}

// NewHost returns the host device.
func NewHost(name string) *Host {
	if name == "" {
		name = "host"
	}
	return &Host{name: name}
}

func (h *Host) Name() string      { return h.name }
func (h *Host) Kind() Kind        { return KindHost }
func (h *Host) ComputeUnits() int { return runtime.GOMAXPROCS(0) }
func (h *Host) Unified() bool     { return true }

func (h *Host) MemoryUsage() (int64, int64) { return 0, 0 }

// Allocate returns plain host memory.
func (h *Host) Allocate(size int, usage gputypes.BufferUsage) (Buffer, error) {
	b, err := memory.Aligned{}.Allocate(size, memory.CacheLineSize)
	if err != nil {
		return nil, err
	}
	return &hostBuffer{data: b, usage: usage}, nil
}

// Run executes the launch sequentially.
func (h *Host) Run(ctx context.Context, l Launch) error {
	if l.Global.Empty() {
		return nil
	}
	local := l.Local
	if local == (region.Shape{}) {
		local = l.Global
	} else if err := validateLocal(l.Global, local); err != nil {
		return err
	}
	groups := groupCount(l.Global, local)
	for g0 := 0; g0 < groups[0]; g0++ {
		for g1 := 0; g1 < groups[1]; g1++ {
			for g2 := 0; g2 < groups[2]; g2++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				args := groupLocals(l.Args)
				err := forEachItem(l.Global, local, groups, [region.MaxDims]int{g0, g1, g2}, func(it Item) error {
					return l.Kernel(it, args)
				})
				if err != nil {
					return runErr(l.Name, err)
				}
			}
		}
	}
	return nil
}

type hostBuffer struct {
	data  []byte
	usage gputypes.BufferUsage
}

func (b *hostBuffer) Bytes() []byte               { return b.data }
func (b *hostBuffer) Size() int                   { return len(b.data) }
func (b *hostBuffer) Usage() gputypes.BufferUsage { return b.usage }
func (b *hostBuffer) Free()                       {}
