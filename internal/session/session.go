// Package session defines the core interfaces for creating and managing a
// runtime session: the devices, the storage table and the command graph that
// every queue of the session shares.
package session

import (
	"context"

	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/graph"
	"github.com/specialistvlad/memgrid/internal/queue"
	"github.com/specialistvlad/memgrid/internal/storage"
)

// Config describes what a session is built from.
type Config struct {
	// Devices available to queues. An empty list gets a single host device.
	Devices []device.Device
	// Compiler builds kernels for LaunchKernel. It may be nil.
	Compiler device.Compiler
	// Workers per queue; zero uses each device's compute units.
	Workers int
}

// SessionFactory creates a Session.
type SessionFactory interface {
	NewSession(ctx context.Context, cfg Config) (Session, error)
}

// Session owns the shared runtime state and the queues created on it.
type Session interface {
	Devices() []device.Device
	Table() *storage.Table
	Graph() graph.Graph
	Compiler() device.Compiler

	// NewQueue binds a new queue to the device sel picks.
	NewQueue(ctx context.Context, name string, sel device.Selector, opts ...queue.Option) (*queue.Queue, error)
	// Queue looks up a queue created by NewQueue.
	Queue(name string) (*queue.Queue, bool)
	// Queues returns every queue in creation order.
	Queues() []*queue.Queue

	// Close drains and stops every queue. It accepts a context to bound the
	// wait.
	Close(ctx context.Context) error
}
