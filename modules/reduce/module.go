// Package reduce provides the "sum" kernel.
package reduce

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Sum stores the sum of args[0] into args[1][0].
func Sum(args []access.View) error {
	var total float64
	for i := 0; i < args[0].Len(); i++ {
		total += args[0].Float64(i)
	}
	args[1].SetFloat64(0, total)
	return nil
}

// Register registers the kernel.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "sum",
		Description: "Writes the sum of in to the first element of out.",
		Kind:        registry.KindSingle,
		Accessors:   []string{"in", "out"},
		Single:      func(any) command.SingleTaskFunc { return Sum },
	})
}
