// Package event implements completion handles for submitted commands.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Status is the execution state of an event.
type Status int32

const (
	// Submitted means the command is queued or waiting for dependencies.
	Submitted Status = iota
	// Running means the payload is executing.
	Running
	// Complete is terminal: the payload succeeded.
	Complete
	// Failed is terminal: the payload or a dependency failed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Running:
		return "running"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == Complete || s == Failed
}

// Profile holds the timestamps of an event's transitions.
type Profile struct {
	Submitted time.Time
	Started   time.Time
	Ended     time.Time
}

// Event tracks one command's progress. Terminal states are reached exactly
// once and never change afterwards.
type Event struct {
	id     string
	status atomic.Int32
	done   chan struct{}

	mu        sync.Mutex
	err       error
	callbacks []func(*Event)
	profile   Profile
}

// New returns an event in the Submitted state.
func New(id string) *Event {
	return &Event{
		id:      id,
		done:    make(chan struct{}),
		profile: Profile{Submitted: time.Now()},
	}
}

// Completed returns an event that is already complete.
func Completed(id string) *Event {
	e := New(id)
	e.Complete()
	return e
}

// ID returns the identifier of the command the event belongs to.
func (e *Event) ID() string { return e.id }

// Status returns the current status.
func (e *Event) Status() Status { return Status(e.status.Load()) }

// MarkRunning moves a submitted event to Running.
func (e *Event) MarkRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.status.CompareAndSwap(int32(Submitted), int32(Running)) {
		return false
	}
	e.profile.Started = time.Now()
	return true
}

// Complete moves the event to Complete. It returns false if the event was
// already terminal.
func (e *Event) Complete() bool {
	return e.finish(Complete, nil)
}

// Fail moves the event to Failed with err as the captured cause.
func (e *Event) Fail(err error) bool {
	if err == nil {
		err = rterr.New(rterr.KindExecution, "command failed")
	}
	return e.finish(Failed, err)
}

func (e *Event) finish(s Status, err error) bool {
	e.mu.Lock()
	cur := Status(e.status.Load())
	if cur.Terminal() {
		e.mu.Unlock()
		return false
	}
	now := time.Now()
	if e.profile.Started.IsZero() {
		e.profile.Started = now
	}
	e.profile.Ended = now
	e.err = err
	e.status.Store(int32(s))
	cbs := e.callbacks
	e.callbacks = nil
	close(e.done)
	e.mu.Unlock()

	for _, cb := range cbs {
		cb(e)
	}
	return true
}

// OnTerminal registers cb to run once the event is terminal. If it already
// is, cb runs immediately on the calling goroutine.
func (e *Event) OnTerminal(cb func(*Event)) {
	e.mu.Lock()
	if !Status(e.status.Load()).Terminal() {
		e.callbacks = append(e.callbacks, cb)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	cb(e)
}

// Done is closed when the event becomes terminal.
func (e *Event) Done() <-chan struct{} { return e.done }

// Err returns the captured error of a failed event.
func (e *Event) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Wait blocks until the event is terminal. Failures are not reported.
func (e *Event) Wait() {
	<-e.done
}

// WaitContext blocks until the event is terminal or ctx is done. It returns
// ctx's error in the latter case; command failures are not reported.
func (e *Event) WaitContext(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return rterr.Wrapf(rterr.KindEvent, ctx.Err(), "waiting for %s", e.id)
	}
}

// WaitAndThrow blocks until the event is terminal and returns the captured
// error if it failed.
func (e *Event) WaitAndThrow() error {
	<-e.done
	return e.Err()
}

// Profile returns the event's timestamps.
func (e *Event) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

func (e *Event) String() string {
	return fmt.Sprintf("%s(%s)", e.id, e.Status())
}
