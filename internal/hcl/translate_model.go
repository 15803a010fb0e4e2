// This file contains the logic for translating HCL schema structs into the
// format-agnostic workload model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateInputDefinition processes a single input block, handling its
// default value and type parsing.
func translateInputDefinition(ctx context.Context, in *schema.InputDefinition, kernel string) (*config.InputDefinition, error) {
	var defaultVal *cty.Value
	var isOptional bool

	if isExprDefined(ctx, in.Default, "default") {
		val, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for input '%s' in kernel '%s': %w", in.Name, kernel, diags)
		}
		if !val.IsNull() {
			defaultVal = &val
			isOptional = true
		}
	}

	parsedType, err := typeExprToCtyType(ctx, in.Type)
	if err != nil {
		return nil, fmt.Errorf("in kernel '%s', input '%s': %w", kernel, in.Name, err)
	}

	return &config.InputDefinition{
		Name:        in.Name,
		Type:        parsedType,
		Description: in.Description,
		Default:     defaultVal,
		Optional:    isOptional,
	}, nil
}

func translateKernel(ctx context.Context, k *schema.Kernel) (*config.KernelDefinition, error) {
	def := &config.KernelDefinition{
		Name:        k.Name,
		Description: k.Description,
		Inputs:      make(map[string]*config.InputDefinition, len(k.Inputs)),
	}
	for _, in := range k.Inputs {
		translated, err := translateInputDefinition(ctx, in, k.Name)
		if err != nil {
			return nil, err
		}
		def.Inputs[in.Name] = translated
	}
	return def, nil
}

func translateDevice(d *schema.Device) *config.Device {
	return &config.Device{
		Name:         d.Name,
		Kind:         d.Kind,
		ComputeUnits: d.ComputeUnits,
		MemoryBytes:  d.MemoryBytes,
	}
}

func translateQueue(q *schema.Queue) *config.Queue {
	return &config.Queue{
		Name:     q.Name,
		Device:   q.Device,
		Workers:  q.Workers,
		InOrder:  q.InOrder,
		Fallback: q.Fallback,
	}
}

// translateBuffer evaluates the init expression eagerly; buffers are created
// before any command runs, so init values cannot refer to anything.
func translateBuffer(ctx context.Context, b *schema.Buffer) (*config.Buffer, error) {
	out := &config.Buffer{
		Name:      b.Name,
		Element:   b.Element,
		Shape:     b.Shape,
		WriteBack: true,
		ViewOf:    b.ViewOf,
		Offset:    b.Offset,
		Range:     b.Range,
		Init:      cty.NullVal(cty.DynamicPseudoType),
	}
	if b.WriteBack != nil {
		out.WriteBack = *b.WriteBack
	}
	if isExprDefined(ctx, b.Init, "init") {
		val, diags := b.Init.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid init value for buffer '%s': %w", b.Name, diags)
		}
		out.Init = val
	}
	if out.ViewOf != "" && (out.Element != "" || !out.Init.IsNull()) {
		return nil, fmt.Errorf("buffer '%s' is a view of '%s' and cannot declare element or init", b.Name, b.ViewOf)
	}
	if out.ViewOf == "" && out.Element == "" {
		return nil, fmt.Errorf("buffer '%s' needs an element type", b.Name)
	}
	return out, nil
}

func translateCommand(c *schema.Command) *config.Command {
	out := &config.Command{
		Name:      c.Name,
		Queue:     c.Queue,
		Kernel:    c.Kernel,
		Build:     c.Build,
		Range:     c.Range,
		Local:     c.Local,
		DependsOn: c.DependsOn,
	}
	if c.Arguments != nil {
		out.Arguments = extractBodyAttributes(c.Arguments.Body)
	}
	for _, a := range c.Accessors {
		out.Accessors = append(out.Accessors, &config.Accessor{
			Name:   a.Name,
			Buffer: a.Buffer,
			Mode:   a.Mode,
			Target: a.Target,
			Offset: a.Offset,
			Range:  a.Range,
		})
	}
	return out
}
