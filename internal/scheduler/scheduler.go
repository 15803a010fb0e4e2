package scheduler

import (
	"container/heap"
	"sync"

	"github.com/specialistvlad/memgrid/internal/command"
)

// readyHeap is a min-heap on submission sequence.
type readyHeap []*command.Command

func (h readyHeap) Len() int           { return len(h) }
func (h readyHeap) Less(i, j int) bool { return h[i].ID.Seq < h[j].ID.Seq }
func (h readyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)        { *h = append(*h, x.(*command.Command)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// DefaultScheduler is a FIFO scheduler backed by a heap and a dispatcher
// goroutine.
type DefaultScheduler struct {
	mu      sync.Mutex
	pending readyHeap
	closed  bool
	wake    chan struct{}
	out     chan *command.Command
}

// New starts a scheduler.
func New() Scheduler {
	s := &DefaultScheduler{
		wake: make(chan struct{}, 1),
		out:  make(chan *command.Command),
	}
	go s.dispatch()
	return s
}

// Push implements Scheduler.
func (s *DefaultScheduler) Push(c *command.Command) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	heap.Push(&s.pending, c)
	s.mu.Unlock()
	s.signal()
}

func (s *DefaultScheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Ready implements Scheduler.
func (s *DefaultScheduler) Ready() <-chan *command.Command { return s.out }

// Len implements Scheduler.
func (s *DefaultScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// Close implements Scheduler.
func (s *DefaultScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *DefaultScheduler) dispatch() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if s.pending.Len() == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			<-s.wake
			continue
		}
		c := heap.Pop(&s.pending).(*command.Command)
		s.mu.Unlock()
		s.out <- c
	}
}
