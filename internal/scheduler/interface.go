// Package scheduler decides the order in which ready commands reach a
// queue's workers.
//
// # How It Works
//
// A command becomes ready when its last predecessor reaches a terminal state.
// The queue pushes it into the scheduler, which keeps ready commands ordered
// by submission and streams them to workers through Ready(). A command pushed
// while an older one is still waiting is therefore never overtaken by it.
//
// # Relationship with Other Components
//
//   - **Queue:** Counts unmet predecessors and pushes commands that hit zero
//   - **Workers:** Range over Ready() and execute each command
package scheduler

import "github.com/specialistvlad/memgrid/internal/command"

// Scheduler orders ready commands.
//
// # Thread-Safety
//
// Push may be called from any goroutine, including event callbacks of other
// queues. Ready() is safe to consume from many workers.
type Scheduler interface {
	// Push hands over a command whose predecessors are all terminal.
	Push(c *command.Command)

	// Ready streams commands in submission order among those ready. The
	// channel is closed after Close once everything pushed was handed out.
	Ready() <-chan *command.Command

	// Len returns the number of ready commands not yet handed out.
	Len() int

	// Close stops accepting commands.
	Close()
}
