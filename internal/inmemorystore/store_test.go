package inmemorystore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/commandstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := cmdid.New("q", "", 0)

	status, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, command.StatusPending, status)

	require.NoError(t, s.SetStatus(ctx, id, command.StatusRunning))
	status, err = s.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, command.StatusRunning, status)
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := cmdid.New("q", "", 0)

	got, err := s.GetError(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	expected := errors.New("kernel failed")
	require.NoError(t, s.SetError(ctx, id, expected))
	got, err = s.GetError(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestSetAndGetTiming(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := cmdid.New("q", "", 0)

	tm, err := s.GetTiming(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, tm.Duration())

	start := time.Now()
	require.NoError(t, s.SetTiming(ctx, id, commandstore.Timing{Started: start, Ended: start.Add(time.Second)}))
	tm, err = s.GetTiming(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.Second, tm.Duration())
}

// TestStore_ConcurrentAccess verifies that the store can be safely accessed by
// multiple goroutines simultaneously without data races or lost writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := cmdid.New("q", "", uint64(i))
			s.SetStatus(ctx, id, command.StatusFailed)
			s.SetError(ctx, id, fmt.Errorf("error for command %d", i))
		}(i)
	}
	wg.Wait()

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := cmdid.New("q", "", uint64(i))

			status, err := s.GetStatus(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, command.StatusFailed, status, "mismatched status for command %d", i)

			cmdErr, err := s.GetError(ctx, id)
			assert.NoError(t, err)
			assert.EqualError(t, cmdErr, fmt.Sprintf("error for command %d", i))
		}(i)
	}
	wg.Wait()
}
