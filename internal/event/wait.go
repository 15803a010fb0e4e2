package event

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// WaitAll blocks until every event is terminal. No ordering is imposed
// between the events. Nil entries are skipped.
func WaitAll(events ...*Event) {
	for _, e := range events {
		if e != nil {
			e.Wait()
		}
	}
}

// WaitAllAndThrow waits for every event and returns the captured errors of
// the failed ones, joined in list order.
func WaitAllAndThrow(events ...*Event) error {
	var errs []error
	for _, e := range events {
		if e == nil {
			continue
		}
		if err := e.WaitAndThrow(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WaitAllContext waits for every event concurrently and gives up when ctx is
// done. Command failures are not reported.
func WaitAllContext(ctx context.Context, events ...*Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range events {
		if e == nil {
			continue
		}
		g.Go(func() error { return e.WaitContext(gctx) })
	}
	return g.Wait()
}
