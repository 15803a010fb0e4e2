package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ctyValueType = reflect.TypeOf(cty.Value{})

// decode is a recursive function that populates a Go value from a cty.Value,
// guided by a manifest-derived cty.Type. DynamicPseudoType as the manifest
// type means the Go target decides.
func (c *Converter) decode(ctx context.Context, val cty.Value, manifestType cty.Type, goVal any) error {
	goPtr := reflect.ValueOf(goVal).Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_kind", goType.Kind().String())

	if goType == ctyValueType {
		if val.IsKnown() {
			goPtr.Set(reflect.ValueOf(val))
		}
		return nil
	}

	if !val.IsKnown() || val.IsNull() {
		logger.Debug("Skipping decode for null or unknown value.")
		return nil
	}

	switch goType.Kind() {
	case reflect.Struct:
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return fmt.Errorf("type mismatch: cannot decode cty value of type %s into Go struct %s", val.Type().FriendlyName(), goType.String())
		}
		isManifestObject := manifestType.IsObjectType()
		attrMap := val.AsValueMap()

		for i := 0; i < goType.NumField(); i++ {
			fieldDef := goType.Field(i)
			fieldVal := goPtr.Field(i)
			if !fieldDef.IsExported() || !fieldVal.CanSet() {
				continue
			}
			tagName := strings.Split(fieldDef.Tag.Get("cty"), ",")[0]
			if tagName == "" || tagName == "-" {
				continue
			}
			attrVal, ok := attrMap[tagName]
			if !ok {
				continue
			}
			attrManifestType := cty.DynamicPseudoType
			if isManifestObject && manifestType.HasAttribute(tagName) {
				attrManifestType = manifestType.AttributeType(tagName)
			}
			if err := c.decode(ctx, attrVal, attrManifestType, fieldVal.Addr().Interface()); err != nil {
				return fmt.Errorf("in attribute '%s': %w", tagName, err)
			}
		}
		return nil

	case reflect.Interface:
		nativeVal, err := ctyToNative(val)
		if err != nil {
			return err
		}
		if nativeVal != nil {
			goPtr.Set(reflect.ValueOf(nativeVal))
		}
		return nil

	case reflect.Map:
		return c.decodeMap(ctx, val, manifestType, goPtr)

	case reflect.Slice:
		ty := val.Type()
		if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into Go slice %s", ty.FriendlyName(), goType.String())
		}
		if manifestType != cty.DynamicPseudoType && !manifestType.IsListType() && !manifestType.IsSetType() {
			return fmt.Errorf("type mismatch: manifest expected %s for Go slice %s", manifestType.FriendlyName(), goType.String())
		}
		elemManifestType := cty.DynamicPseudoType
		if manifestType.IsListType() || manifestType.IsSetType() {
			elemManifestType = manifestType.ElementType()
		}

		newSlice := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		it := val.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elemVal := it.Element()
			if err := c.decode(ctx, elemVal, elemManifestType, newSlice.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in slice element %d: %w", i, err)
			}
		}
		goPtr.Set(newSlice)
		return nil

	default:
		target := manifestType
		if target == cty.DynamicPseudoType {
			implied, err := gocty.ImpliedType(goPtr.Interface())
			if err != nil {
				logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", goType.String(), "error", err)
				return gocty.FromCtyValue(val, goVal)
			}
			target = implied
		}
		converted, err := convert.Convert(val, target)
		if err != nil {
			return fmt.Errorf("cannot convert value of type %s to required type %s: %w", val.Type().FriendlyName(), target.FriendlyName(), err)
		}
		return gocty.FromCtyValue(converted, goVal)
	}
}
