package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type setInput struct {
	Value float64 `arg:"value"`
}

func setDef() *Definition {
	return &Definition{
		Name:      "set",
		Kind:      KindParallel,
		Inputs:    Inputs(Number("value", "", 1)),
		Accessors: []string{"out"},
		NewInput:  func() any { return new(setInput) },
		Parallel: func(in any) device.KernelFunc {
			v := in.(*setInput).Value
			return func(it device.Item, args []access.View) error {
				args[0].SetFloat64(it.Linear(), v)
				return nil
			}
		},
	}
}

func hostDef(name string) *Definition {
	return &Definition{
		Name: name,
		Kind: KindHost,
		Host: func(any) command.HostTaskFunc {
			return func(context.Context, []access.View) error { return nil }
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := New()
	r.Register(setDef())
	r.Register(hostDef("wait"))

	def, ok := r.Lookup("set")
	require.True(t, ok)
	assert.Equal(t, KindParallel, def.Kind)
	assert.Equal(t, []string{"set", "wait"}, r.Names())

	assert.Panics(t, func() { r.Register(setDef()) })
	assert.Panics(t, func() { r.Register(&Definition{Name: "empty", Kind: KindSingle}) })
}

func TestRegistry_Compile(t *testing.T) {
	ctx := context.Background()
	r := New()
	r.Register(setDef())
	r.Register(hostDef("wait"))
	host, sim := device.NewHost("cpu"), device.NewSim("gpu")

	k, err := r.Build(ctx, []byte("set"), "")
	require.NoError(t, err)
	assert.Equal(t, "set", k.Name())
	assert.True(t, k.Supports(host))
	assert.True(t, k.Supports(sim))

	pinned, err := r.Compile(ctx, " set ", "-O2 -device=sim -DFAST")
	require.NoError(t, err)
	assert.False(t, pinned.Supports(host))
	assert.True(t, pinned.Supports(sim))

	for _, tt := range []struct{ name, blob, opts string }{
		{"unknown kernel", "nope", ""},
		{"host kernel", "wait", ""},
		{"forced failure", "set", "-fail-build"},
		{"unknown option", "set", "-fast-math"},
		{"unknown device", "set", "-device=tpu"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Build(ctx, []byte(tt.blob), tt.opts)
			assert.True(t, errors.Is(err, rterr.ErrDevice), "got %v", err)
		})
	}
}

func TestKernel_InputBinding(t *testing.T) {
	ctx := context.Background()
	r := New()
	r.Register(setDef())
	k, err := r.Compile(ctx, "set", "")
	require.NoError(t, err)

	run := func(k device.Kernel) []float32 {
		s := region.Shape{3, 1, 1}
		out := access.NewView(make([]byte, 12), s, region.Full(s), 4, access.Float32, access.Write, access.GlobalBuffer)
		require.NoError(t, device.NewHost("").Run(ctx, device.Launch{Global: s, Kernel: k.Func(), Args: []access.View{out}}))
		return access.Collect[float32](out)
	}
	assert.Equal(t, []float32{0, 0, 0}, run(k))
	assert.Equal(t, []float32{4, 4, 4}, run(k.WithInput(&setInput{Value: 4})))
}

func TestRegistry_PopulateAndValidate(t *testing.T) {
	ctx := context.Background()
	r := New()
	r.Register(setDef())
	require.NoError(t, r.ValidateRegistry(ctx))

	five := cty.NumberIntVal(5)
	err := r.PopulateDefinitionsFromModel(&config.Model{Kernels: map[string]*config.KernelDefinition{
		"set": {Name: "set", Description: "Sets.", Inputs: map[string]*config.InputDefinition{
			"value": {Name: "value", Type: cty.Number, Default: &five, Optional: true},
		}},
	}})
	require.NoError(t, err)
	def, _ := r.Lookup("set")
	assert.Equal(t, "Sets.", def.Description)
	assert.True(t, def.Inputs["value"].Default.RawEquals(five))
	require.NoError(t, r.ValidateRegistry(ctx))

	err = r.PopulateDefinitionsFromModel(&config.Model{Kernels: map[string]*config.KernelDefinition{
		"ghost": {Name: "ghost"},
	}})
	assert.ErrorContains(t, err, "not registered")

	def.Inputs["value"] = &config.InputDefinition{Name: "value", Type: cty.String}
	def.Inputs["extra"] = &config.InputDefinition{Name: "extra", Type: cty.Number}
	err = r.ValidateRegistry(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")
	assert.Contains(t, err.Error(), "manifest declares input 'extra'")
}
