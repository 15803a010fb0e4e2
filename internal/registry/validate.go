package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// input structs. It checks both the presence of inputs and the
// compatibility of their types.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for name, def := range r.defs {
		if def.NewInput == nil {
			if len(def.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("kernel '%s': manifest declares inputs, but Go kernel has no input struct", name))
			}
			continue
		}

		inputType := reflect.TypeOf(def.NewInput())
		if inputType.Kind() != reflect.Ptr || inputType.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("kernel '%s': NewInput must return a pointer to a struct, got %s", name, inputType))
			continue
		}
		inputType = inputType.Elem()

		goInputs := make(map[string]reflect.StructField)
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("arg"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		for in := range goInputs {
			if _, ok := def.Inputs[in]; !ok {
				errs = append(errs, fmt.Sprintf("kernel '%s': Go struct has field for input '%s' which is not declared in manifest", name, in))
			}
		}
		for in, inputDef := range def.Inputs {
			goField, ok := goInputs[in]
			if !ok {
				errs = append(errs, fmt.Sprintf("kernel '%s': manifest declares input '%s' which is not found in Go struct", name, in))
				continue
			}

			manifestType := inputDef.Type
			if manifestType.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest input has 'type = any', which disables static type checking.", "kernel", name, "input", in)
				continue
			}
			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("kernel '%s', input '%s': could not imply cty type from Go field type %s: %v", name, in, goField.Type, err))
				continue
			}
			if !manifestType.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("kernel '%s', input '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					name, in, manifestType.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
