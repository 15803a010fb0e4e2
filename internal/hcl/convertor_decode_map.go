package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var anyMapType = reflect.TypeOf((map[string]any)(nil))

// decodeMap decodes a cty map or object into a Go map. Generic
// map[string]any targets take a fast path through ctyToNative.
func (c *Converter) decodeMap(ctx context.Context, val cty.Value, manifestType cty.Type, goPtr reflect.Value) error {
	logger := ctxlog.FromContext(ctx).With("go_type", goPtr.Type().String(), "cty_type", val.Type().FriendlyName())

	if goPtr.Type() == anyMapType {
		nativeVal, err := ctyToNative(val)
		if err != nil {
			return err
		}
		m, ok := nativeVal.(map[string]any)
		if !ok {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into map[string]any", val.Type().FriendlyName())
		}
		goPtr.Set(reflect.ValueOf(m))
		return nil
	}

	if !val.Type().IsMapType() && !val.Type().IsObjectType() {
		return fmt.Errorf("type mismatch: cannot decode cty.%s into Go map %s", val.Type().FriendlyName(), goPtr.Type().String())
	}

	logger.Debug("Performing deep decode for typed map.")
	newMap := reflect.MakeMap(goPtr.Type())
	for it := val.ElementIterator(); it.Next(); {
		key, elemVal := it.Element()
		keyStr := key.AsString()

		elemManifestType := cty.DynamicPseudoType
		if manifestType.IsMapType() {
			elemManifestType = manifestType.ElementType()
		}
		newElemPtr := reflect.New(goPtr.Type().Elem())
		if err := c.decode(ctx, elemVal, elemManifestType, newElemPtr.Interface()); err != nil {
			return fmt.Errorf("failed to decode map element '%s': %w", keyStr, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(keyStr), newElemPtr.Elem())
	}
	goPtr.Set(newMap)
	return nil
}
