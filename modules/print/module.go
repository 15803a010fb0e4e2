package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines; nil means stdout.
	Out io.Writer
}

// Input defines the arguments for the print host task.
type Input struct {
	Label string `arg:"label"`
}

// Print returns a host task writing every argument's elements to out.
func Print(out io.Writer, in *Input) command.HostTaskFunc {
	return func(ctx context.Context, args []access.View) error {
		ctxlog.FromContext(ctx).Info("Printing buffers", "label", in.Label, "count", len(args))
		for i, v := range args {
			vals := make([]string, v.Len())
			for j := range vals {
				vals[j] = fmt.Sprint(v.Float64(j))
			}
			if _, err := fmt.Fprintf(out, "      %s[%d] = [%s]\n", in.Label, i, strings.Join(vals, " ")); err != nil {
				return err
			}
		}
		return nil
	}
}

// Register registers the host task.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.Register(&registry.Definition{
		Name:        "print",
		Description: "Prints the elements of every accessor on the host.",
		Kind:        registry.KindHost,
		Inputs:      registry.Inputs(registry.String("label", "Prefix of each printed line.", "buf")),
		NewInput:    func() any { return new(Input) },
		Host:        func(in any) command.HostTaskFunc { return Print(out, in.(*Input)) },
	})
}
