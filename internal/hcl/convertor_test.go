package hcl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type limits struct {
	Lo float64 `cty:"lo"`
	Hi float64 `cty:"hi"`
}

type kernelInput struct {
	Factor float64            `arg:"factor"`
	Count  int                `arg:"count"`
	Label  string             `arg:"label"`
	Tags   []string           `arg:"tags"`
	Bounds limits             `arg:"bounds"`
	Extra  map[string]any     `arg:"extra"`
	Named  map[string]float64 `arg:"named"`
	Raw    cty.Value          `arg:"raw"`
	Skip   string
}

func parseArgs(t *testing.T, src string) map[string]hcl.Expression {
	t.Helper()
	f, diags := hclsyntax.ParseConfig([]byte(src), "args.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), diags.Error())
	return extractBodyAttributes(f.Body)
}

func def(ty cty.Type, dflt *cty.Value) *config.InputDefinition {
	return &config.InputDefinition{Type: ty, Default: dflt, Optional: dflt != nil}
}

func TestDecodeBody(t *testing.T) {
	three := cty.NumberIntVal(3)
	defs := map[string]*config.InputDefinition{
		"factor": def(cty.Number, nil),
		"count":  def(cty.Number, &three),
		"label":  {Type: cty.String, Optional: true},
		"tags":   def(cty.List(cty.String), nil),
		"bounds": def(cty.DynamicPseudoType, nil),
		"extra":  def(cty.DynamicPseudoType, nil),
		"named":  def(cty.Map(cty.Number), nil),
		"raw":    def(cty.DynamicPseudoType, nil),
	}
	args := parseArgs(t, `
factor = "2.5"
tags   = ["a", "b"]
bounds = { lo = 1, hi = 9.5 }
extra  = { n = 1, s = "x", l = [true] }
named  = { x = 1.5 }
raw    = 42
`)

	var in kernelInput
	require.NoError(t, NewConverter().DecodeBody(context.Background(), &in, args, defs, nil))

	want := kernelInput{
		Factor: 2.5,
		Count:  3,
		Tags:   []string{"a", "b"},
		Bounds: limits{Lo: 1, Hi: 9.5},
		Extra:  map[string]any{"n": int64(1), "s": "x", "l": []any{true}},
		Named:  map[string]float64{"x": 1.5},
	}
	assert.True(t, in.Raw.RawEquals(cty.NumberIntVal(42)))
	if diff := cmp.Diff(want, in, cmp.Comparer(func(a, b cty.Value) bool { return true })); diff != "" {
		t.Errorf("decoded input mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBody_Errors(t *testing.T) {
	ctx := context.Background()
	defs := map[string]*config.InputDefinition{"factor": def(cty.Number, nil)}

	var in kernelInput
	err := NewConverter().DecodeBody(ctx, &in, nil, defs, nil)
	assert.ErrorContains(t, err, `missing required argument "factor"`)

	err = NewConverter().DecodeBody(ctx, &in, parseArgs(t, `factor = "abc"`), defs, nil)
	assert.ErrorContains(t, err, "failed to decode argument 'factor'")

	err = NewConverter().DecodeBody(ctx, &in, parseArgs(t, "factor = 1\nbogus = 2"), defs, nil)
	assert.ErrorContains(t, err, `unsupported argument "bogus"`)

	err = NewConverter().DecodeBody(ctx, in, nil, defs, nil)
	assert.ErrorContains(t, err, "non-nil pointer")
}

func TestDecodeValue(t *testing.T) {
	var vals []float64
	v := cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberFloatVal(2.5)})
	require.NoError(t, NewConverter().DecodeValue(context.Background(), v, &vals))
	assert.Equal(t, []float64{1, 2.5}, vals)
}

func TestToCtyValue(t *testing.T) {
	c := NewConverter()
	v, err := c.ToCtyValue([]float64{1, 2})
	require.NoError(t, err)
	assert.True(t, v.Type().Equals(cty.List(cty.Number)))

	v, err = c.ToCtyValue(nil)
	require.NoError(t, err)
	assert.Equal(t, cty.NilVal, v)
}
