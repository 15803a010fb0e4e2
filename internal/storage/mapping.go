package storage

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Mapping is the memory a command sees for one accessor on one device.
type Mapping struct {
	view    access.View
	root    access.View
	staging device.Buffer
}

// View returns the view handed to the payload.
func (m *Mapping) View() access.View { return m.view }

// Staged reports whether the mapping lives in separate device memory.
func (m *Mapping) Staged() bool { return m.staging != nil }

// Acquire maps acc for a command running on dev. Unified devices see root
// memory directly. Other devices get a staging allocation holding just the
// accessed region, filled from the root unless the mode discards.
func (t *Table) Acquire(dev device.Device, acc *access.Accessor) (*Mapping, error) {
	if acc.IsLocal() {
		return &Mapping{view: access.NewLocalView(acc.ElemSize(), acc.LocalCount(), acc.Elem())}, nil
	}
	obj, err := t.lookup(acc.Object())
	if err != nil {
		return nil, err
	}
	root := obj.root
	rootView := access.NewView(root.data, root.shape, acc.RootRegion(), root.elemSize, root.elem, acc.Mode(), acc.Target())
	if dev == nil || dev.Unified() {
		return &Mapping{view: rootView, root: rootView}, nil
	}

	n := acc.Len() * root.elemSize
	buf, err := dev.Allocate(n, access.Usage(acc.Target(), acc.Mode()))
	if err != nil {
		return nil, rterr.Wrapf(rterr.KindAllocation, err, "staging %s on %s", acc, dev.Name())
	}
	dst := buf.Bytes()[:n]
	if !acc.Mode().Discards() {
		off := 0
		for run := range rootView.Runs() {
			off += copy(dst[off:], run)
		}
	}
	shape := region.Shape(acc.Region().Extent)
	view := access.NewView(dst, shape, region.Full(shape), root.elemSize, root.elem, acc.Mode(), acc.Target())
	return &Mapping{view: view, root: rootView, staging: buf}, nil
}

// Finish releases the mapping. Staged contents are copied back to the root
// only when the command succeeded and the mode writes.
func (m *Mapping) Finish(success bool) {
	if m.staging == nil {
		return
	}
	if success && m.root.Mode().Writes() {
		src := m.staging.Bytes()
		off := 0
		for run := range m.root.Runs() {
			off += copy(run, src[off:])
		}
	}
	m.staging.Free()
	m.staging = nil
}
