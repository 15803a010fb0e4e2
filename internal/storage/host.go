package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

var hostSeq atomic.Uint64

// HostAccessor holds a region of a buffer for direct host use until Release.
type HostAccessor struct {
	acc  *access.Accessor
	view access.View
	ev   *event.Event
}

// HostAccess requests host access to b. It blocks until every conflicting
// earlier access reaches a terminal state, whether it succeeded or not, and
// holds the region against later commands until Release.
func (b *Buffer) HostAccess(ctx context.Context, mode access.Mode, opts ...access.Option) (*HostAccessor, error) {
	opts = append(opts[:len(opts):len(opts)], access.WithTarget(access.HostBuffer))
	acc, err := b.Accessor(mode, opts...)
	if err != nil {
		return nil, err
	}
	ev := event.New(fmt.Sprintf("host%s.%d", b.handle, hostSeq.Add(1)))

	var edges []*event.Event
	var obj *object
	err = b.table.Atomically(func() error {
		tracked, err := b.table.Track(acc, ev, ev.ID())
		if err != nil {
			return err
		}
		obj, err = b.table.lookup(b.handle)
		if err != nil {
			return err
		}
		for _, e := range tracked {
			edges = append(edges, e.Event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev.MarkRunning()

	if len(edges) > 0 {
		ctxlog.FromContext(ctx).Debug("Host accessor waiting for earlier accesses.", "buffer", b.handle, "edges", len(edges))
	}
	for _, e := range edges {
		if err := e.WaitContext(ctx); err != nil {
			// The record may have superseded accesses that are still running,
			// so it stays outstanding until they finish. Nothing was touched,
			// so later accesses see their contents.
			go func() {
				event.WaitAll(edges...)
				ev.Complete()
			}()
			return nil, err
		}
	}

	root := obj.root
	view := access.NewView(root.data, root.shape, acc.RootRegion(), root.elemSize, root.elem, mode, access.HostBuffer)
	return &HostAccessor{acc: acc, view: view, ev: ev}, nil
}

// View returns the host view. Element 0 is the accessor offset.
func (h *HostAccessor) View() access.View { return h.view }

// Accessor returns the accessor the host access was granted for.
func (h *HostAccessor) Accessor() *access.Accessor { return h.acc }

// Release ends the host access and unblocks later commands.
func (h *HostAccessor) Release() error {
	if !h.ev.Complete() {
		return rterr.New(rterr.KindAccessor, "host accessor released twice")
	}
	return nil
}
