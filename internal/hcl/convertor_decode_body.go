package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// DecodeBody iterates through the fields of a Go struct, finds the
// corresponding HCL arguments by their `arg` tag and uses the recursive
// decode helper to populate them. Arguments the manifest does not declare
// are rejected.
func (c *Converter) DecodeBody(
	ctx context.Context,
	inputStruct any,
	args map[string]hcl.Expression,
	defs map[string]*config.InputDefinition,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting HCL body decoding.")

	for name := range args {
		if _, ok := defs[name]; !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
	}

	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("inputStruct must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		fieldDef := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}

		tagName := strings.Split(fieldDef.Tag.Get("arg"), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}

		inputDef, ok := defs[tagName]
		if !ok {
			continue
		}

		var valueToDecode cty.Value
		if argExpr, provided := args[tagName]; provided {
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return diags
			}
			valueToDecode = val
		} else {
			switch {
			case inputDef.Default != nil:
				valueToDecode = *inputDef.Default
			case inputDef.Optional:
				continue
			default:
				return fmt.Errorf("missing required argument %q", tagName)
			}
		}

		if err := c.decode(ctx, valueToDecode, inputDef.Type, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument '%s': %w", tagName, err)
		}
	}
	logger.Debug("Finished HCL body decoding successfully.")
	return nil
}
