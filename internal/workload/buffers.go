package workload

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/storage"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// createBuffers creates every declared buffer in order. A view must name a
// buffer declared before it.
func (st *run) createBuffers(ctx context.Context) error {
	table := st.sess.Table()
	for _, b := range st.w.Buffers {
		if b.ViewOf != "" {
			parent, ok := st.buffers[b.ViewOf]
			if !ok {
				return fmt.Errorf("buffer %q is a view of %q, which is not declared before it", b.Name, b.ViewOf)
			}
			offset, rng := viewRegion(parent.Shape(), b.Offset, b.Range)
			view, err := parent.CreateView(offset, rng)
			if err != nil {
				return fmt.Errorf("buffer %q: %w", b.Name, err)
			}
			st.buffers[b.Name] = view
			continue
		}

		elem, err := access.ParseElemType(b.Element)
		if err != nil {
			return fmt.Errorf("buffer %q: %w", b.Name, err)
		}
		data, shape, err := initBytes(elem, b.Shape, b.Init)
		if err != nil {
			return fmt.Errorf("buffer %q: %w", b.Name, err)
		}
		buf, err := storage.CloneFrom(table, data, elem, shape, storage.WithWriteBack(b.WriteBack))
		if err != nil {
			return fmt.Errorf("buffer %q: %w", b.Name, err)
		}
		st.buffers[b.Name] = buf
		if b.WriteBack {
			host := make([]byte, len(data))
			if err := buf.AttachFinalData(storage.ToSlice(host)); err != nil {
				return fmt.Errorf("buffer %q: %w", b.Name, err)
			}
			st.hosts[b.Name] = host
		}
	}
	return nil
}

// viewRegion fills in an omitted offset or range of a view declaration.
func viewRegion(parent region.Shape, offset, rng []int) ([]int, []int) {
	if rng == nil {
		dims := parent.Slice()
		if offset != nil {
			dims = dims[:min(len(offset), len(dims))]
		}
		rng = make([]int, len(dims))
		for d := range rng {
			rng[d] = dims[d]
			if d < len(offset) {
				rng[d] -= offset[d]
			}
		}
	}
	if offset == nil {
		offset = make([]int, len(rng))
	}
	return offset, rng
}

// initBytes encodes a buffer's init value. A number fills every element, a
// list or tuple gives one value per element and null leaves the buffer
// zeroed. An empty shape is taken from the length of the init list.
func initBytes(elem access.ElemType, shape []int, init cty.Value) ([]byte, []int, error) {
	var vals []float64
	var scalar *float64
	if init != cty.NilVal && !init.IsNull() {
		if !init.IsWhollyKnown() {
			return nil, nil, errors.New("init value is not known")
		}
		if init.Type() == cty.Number {
			var x float64
			if err := gocty.FromCtyValue(init, &x); err != nil {
				return nil, nil, fmt.Errorf("init: %w", err)
			}
			scalar = &x
		} else {
			list, err := convert.Convert(init, cty.List(cty.Number))
			if err != nil {
				return nil, nil, fmt.Errorf("init must be a number or a list of numbers: %w", err)
			}
			if err := gocty.FromCtyValue(list, &vals); err != nil {
				return nil, nil, fmt.Errorf("init: %w", err)
			}
		}
	}

	if len(shape) == 0 {
		if vals == nil {
			return nil, nil, errors.New("needs a shape or an init list")
		}
		shape = []int{len(vals)}
	}
	s, err := region.NewShape(shape...)
	if err != nil {
		return nil, nil, err
	}
	n := s.Size()
	if vals != nil && len(vals) != n {
		return nil, nil, fmt.Errorf("init has %d values, shape %v holds %d", len(vals), shape, n)
	}

	size := elem.Size()
	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		var x float64
		switch {
		case scalar != nil:
			x = *scalar
		case vals != nil:
			x = vals[i]
		default:
			continue
		}
		b, err := access.EncodeFloat64(elem, x)
		if err != nil {
			return nil, nil, fmt.Errorf("init element %d: %w", i, err)
		}
		copy(data[i*size:], b)
	}
	return data, slices.Clone(shape), nil
}

// snapshotBuffers reads the contents of every buffer through a host
// accessor, which waits for all earlier writers.
func (st *run) snapshotBuffers(ctx context.Context) error {
	for _, b := range st.w.Buffers {
		buf := st.buffers[b.Name]
		h, err := buf.HostAccess(ctx, access.Read)
		if err != nil {
			return fmt.Errorf("reading buffer %q: %w", b.Name, err)
		}
		br := BufferResult{
			Name:      b.Name,
			ViewOf:    b.ViewOf,
			Elem:      buf.Elem(),
			Shape:     buf.Shape().Slice(),
			Values:    floats(h.View()),
			WriteBack: b.WriteBack && b.ViewOf == "",
		}
		if err := h.Release(); err != nil {
			return err
		}
		st.result.Buffers = append(st.result.Buffers, br)
	}
	return nil
}

// releaseBuffers releases every buffer in reverse declaration order, so
// views go before the buffers they were created from.
func (st *run) releaseBuffers() error {
	var errs []error
	for i := len(st.w.Buffers) - 1; i >= 0; i-- {
		name := st.w.Buffers[i].Name
		buf, ok := st.buffers[name]
		if !ok {
			continue
		}
		if err := buf.Release(); err != nil {
			errs = append(errs, fmt.Errorf("releasing buffer %q: %w", name, err))
		}
		delete(st.buffers, name)
	}
	return errors.Join(errs...)
}

// collectWriteBack decodes the host copies written on release.
func (st *run) collectWriteBack() {
	for i := range st.result.Buffers {
		br := &st.result.Buffers[i]
		host, ok := st.hosts[br.Name]
		if !ok {
			continue
		}
		s, _ := region.NewShape(br.Shape...)
		br.WrittenBack = floats(access.NewView(host, s, region.Full(s), br.Elem.Size(), br.Elem, access.Read, access.HostBuffer))
	}
}

func floats(v access.View) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.Float64(i)
	}
	return out
}

// buffer returns the named buffer or an error naming the command.
func (st *run) buffer(cmd string, acc *config.Accessor) (*storage.Buffer, error) {
	buf, ok := st.buffers[acc.Buffer]
	if !ok {
		return nil, fmt.Errorf("command %q accessor %q uses undeclared buffer %q", cmd, acc.Name, acc.Buffer)
	}
	return buf, nil
}
