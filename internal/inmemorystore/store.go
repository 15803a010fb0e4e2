package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/commandstore"
)

// Store implements commandstore.Store with one sync.Map per kind of state.
// Every command's state is independent and written by whichever worker runs
// it, which is the access pattern sync.Map is built for.
type Store struct {
	states  sync.Map // Key: cmdid.ID, Value: command.Status
	errors  sync.Map // Key: cmdid.ID, Value: error
	timings sync.Map // Key: cmdid.ID, Value: commandstore.Timing
}

// New creates a new, empty in-memory command state store.
func New() commandstore.Store {
	return &Store{}
}

// SetStatus updates the status of a command.
func (s *Store) SetStatus(ctx context.Context, id cmdid.ID, status command.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus returns the status of a command, StatusPending if unset.
func (s *Store) GetStatus(ctx context.Context, id cmdid.ID) (command.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return command.StatusPending, nil
	}
	return status.(command.Status), nil
}

// SetError records the failure of a command.
func (s *Store) SetError(ctx context.Context, id cmdid.ID, cmdErr error) error {
	s.errors.Store(id, cmdErr)
	return nil
}

// GetError returns the recorded failure of a command.
func (s *Store) GetError(ctx context.Context, id cmdid.ID) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}

// SetTiming records the run timestamps of a command.
func (s *Store) SetTiming(ctx context.Context, id cmdid.ID, t commandstore.Timing) error {
	s.timings.Store(id, t)
	return nil
}

// GetTiming returns the run timestamps of a command.
func (s *Store) GetTiming(ctx context.Context, id cmdid.ID) (commandstore.Timing, error) {
	t, ok := s.timings.Load(id)
	if !ok {
		return commandstore.Timing{}, nil
	}
	return t.(commandstore.Timing), nil
}
