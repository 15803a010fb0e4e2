package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific workload loader.
type Loader interface {
	// Load reads workload files and kernel manifests from the given paths,
	// translates them into the format-agnostic model and returns a matching
	// Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds raw configuration to the Go types kernels use.
type Converter interface {
	// DecodeBody decodes an 'arguments' block into a target Go struct,
	// applying manifest defaults and required-input checks.
	DecodeBody(
		ctx context.Context,
		inputStruct any,
		args map[string]hcl.Expression,
		defs map[string]*InputDefinition,
		evalCtx *hcl.EvalContext,
	) error

	// DecodeValue decodes a single value into a Go pointer.
	DecodeValue(ctx context.Context, val cty.Value, target any) error

	// ToCtyValue converts a native Go value into its cty equivalent.
	ToCtyValue(v any) (cty.Value, error)
}
