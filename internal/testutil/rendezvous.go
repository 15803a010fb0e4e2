package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// ExecutionRecord holds the start and end times of one task.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// RendezvousModule registers the "rendezvous" host task. Every task blocks
// until Parties tasks have arrived, so tasks that are falsely serialized
// time out instead of finishing.
type RendezvousModule struct {
	Parties int
	Timeout time.Duration

	once    sync.Once
	arrived chan struct{}
	mu      sync.Mutex
	count   int
	records map[string]ExecutionRecord
}

type rendezvousInput struct {
	ID string `arg:"id"`
}

func (m *RendezvousModule) init() {
	m.once.Do(func() {
		m.arrived = make(chan struct{})
		m.records = make(map[string]ExecutionRecord)
		if m.Timeout == 0 {
			m.Timeout = 2 * time.Second
		}
	})
}

// Records returns the execution record of every finished task by id.
func (m *RendezvousModule) Records() map[string]ExecutionRecord {
	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

func (m *RendezvousModule) meet(ctx context.Context, in *rendezvousInput) error {
	start := time.Now()
	m.mu.Lock()
	m.count++
	if m.count == m.Parties {
		close(m.arrived)
	}
	m.mu.Unlock()

	timer := time.NewTimer(m.Timeout)
	defer timer.Stop()
	select {
	case <-m.arrived:
	case <-timer.C:
		return fmt.Errorf("rendezvous %s timed out waiting for %d parties", in.ID, m.Parties)
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	m.records[in.ID] = ExecutionRecord{Start: start, End: time.Now()}
	m.mu.Unlock()
	return nil
}

// Register registers the host task.
func (m *RendezvousModule) Register(r *registry.Registry) {
	m.init()
	r.Register(&registry.Definition{
		Name:     "rendezvous",
		Kind:     registry.KindHost,
		Inputs:   registry.Inputs(registry.String("id", "Task identifier.")),
		NewInput: func() any { return new(rendezvousInput) },
		Host: func(in any) command.HostTaskFunc {
			return func(ctx context.Context, _ []access.View) error {
				return m.meet(ctx, in.(*rendezvousInput))
			}
		},
	})
}
