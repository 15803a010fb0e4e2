package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Lifecycle(t *testing.T) {
	e := New("q.cg[0]")
	assert.Equal(t, Submitted, e.Status())

	require.True(t, e.MarkRunning())
	assert.False(t, e.MarkRunning())
	assert.Equal(t, Running, e.Status())

	require.True(t, e.Complete())
	assert.Equal(t, Complete, e.Status())
	assert.NoError(t, e.WaitAndThrow())

	p := e.Profile()
	assert.False(t, p.Submitted.After(p.Started))
	assert.False(t, p.Started.After(p.Ended))
}

func TestEvent_TerminalIsSticky(t *testing.T) {
	e := New("x")
	boom := errors.New("boom")

	require.True(t, e.Fail(boom))
	assert.False(t, e.Complete())
	assert.False(t, e.Fail(errors.New("other")))
	assert.False(t, e.MarkRunning())

	assert.Equal(t, Failed, e.Status())
	assert.Same(t, boom, e.WaitAndThrow())
}

func TestEvent_WaitDoesNotReportFailure(t *testing.T) {
	e := New("x")
	go e.Fail(errors.New("boom"))
	e.Wait()
	e.Wait()
	assert.Equal(t, Failed, e.Status())
}

func TestEvent_FailWithNilErrorIsExecutionError(t *testing.T) {
	e := New("x")
	e.Fail(nil)
	assert.True(t, errors.Is(e.Err(), rterr.ErrExecution))
}

func TestEvent_OnTerminal(t *testing.T) {
	e := New("x")
	var calls atomic.Int32
	e.OnTerminal(func(got *Event) {
		assert.Same(t, e, got)
		calls.Add(1)
	})
	assert.EqualValues(t, 0, calls.Load())

	e.Complete()
	assert.EqualValues(t, 1, calls.Load())

	// Registered after completion: runs immediately.
	e.OnTerminal(func(*Event) { calls.Add(1) })
	assert.EqualValues(t, 2, calls.Load())
}

func TestEvent_ConcurrentFinishExactlyOnce(t *testing.T) {
	e := New("x")
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = e.Complete()
			} else {
				ok = e.Fail(errors.New("f"))
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestEvent_WaitContext(t *testing.T) {
	e := New("slow")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := e.WaitContext(ctx)
	assert.True(t, errors.Is(err, rterr.ErrEvent))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWaitAll(t *testing.T) {
	a, b, c := New("a"), New("b"), New("c")
	go func() {
		a.Complete()
		b.Fail(errors.New("b failed"))
		c.Fail(errors.New("c failed"))
	}()

	WaitAll(a, nil, b, c)

	err := WaitAllAndThrow(a, b, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b failed")
	assert.Contains(t, err.Error(), "c failed")

	assert.NoError(t, WaitAllAndThrow(a, Completed("d")))
	assert.NoError(t, WaitAllAndThrow())
}

func TestWaitAllContext(t *testing.T) {
	a, b := New("a"), New("b")
	a.Complete()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, WaitAllContext(ctx, a, b))

	b.Fail(errors.New("ignored"))
	assert.NoError(t, WaitAllContext(context.Background(), a, b))
}
