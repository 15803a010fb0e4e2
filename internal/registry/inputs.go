package registry

import (
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Inputs builds a manifest from input definitions.
func Inputs(defs ...*config.InputDefinition) map[string]*config.InputDefinition {
	m := make(map[string]*config.InputDefinition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

func input(name, desc string, ty cty.Type, dflt *cty.Value) *config.InputDefinition {
	return &config.InputDefinition{
		Name:        name,
		Type:        ty,
		Description: desc,
		Default:     dflt,
		Optional:    dflt != nil,
	}
}

// Number declares a number input, optional when a default is given.
func Number(name, desc string, dflt ...float64) *config.InputDefinition {
	if len(dflt) == 0 {
		return input(name, desc, cty.Number, nil)
	}
	v := cty.NumberFloatVal(dflt[0])
	return input(name, desc, cty.Number, &v)
}

// String declares a string input, optional when a default is given.
func String(name, desc string, dflt ...string) *config.InputDefinition {
	if len(dflt) == 0 {
		return input(name, desc, cty.String, nil)
	}
	v := cty.StringVal(dflt[0])
	return input(name, desc, cty.String, &v)
}

// Bool declares a bool input, optional when a default is given.
func Bool(name, desc string, dflt ...bool) *config.InputDefinition {
	if len(dflt) == 0 {
		return input(name, desc, cty.Bool, nil)
	}
	v := cty.BoolVal(dflt[0])
	return input(name, desc, cty.Bool, &v)
}
