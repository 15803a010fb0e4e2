package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/fsutil"
	"github.com/specialistvlad/memgrid/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL workload loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths. It is agnostic to the
// origin of the paths and accepts any block from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{
		Kernels:  make(map[string]*config.KernelDefinition),
		Workload: &config.Workload{},
	}

	files, err := fsutil.CollectFiles(".hcl", paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk workload paths: %w", err)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.WorkloadConfig
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := l.merge(ctx, model, &root); err != nil {
			return nil, nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	w := model.Workload
	logger.Debug("HCL loading complete.",
		"kernels", len(model.Kernels),
		"devices", len(w.Devices),
		"queues", len(w.Queues),
		"buffers", len(w.Buffers),
		"commands", len(w.Commands),
	)
	return model, NewConverter(), nil
}

func (l *Loader) merge(ctx context.Context, model *config.Model, root *schema.WorkloadConfig) error {
	for _, k := range root.Kernels {
		def, err := translateKernel(ctx, k)
		if err != nil {
			return err
		}
		if _, dup := model.Kernels[def.Name]; dup {
			return fmt.Errorf("kernel manifest %q declared twice", def.Name)
		}
		model.Kernels[def.Name] = def
	}
	w := model.Workload
	for _, d := range root.Devices {
		w.Devices = append(w.Devices, translateDevice(d))
	}
	for _, q := range root.Queues {
		w.Queues = append(w.Queues, translateQueue(q))
	}
	for _, b := range root.Buffers {
		buf, err := translateBuffer(ctx, b)
		if err != nil {
			return err
		}
		w.Buffers = append(w.Buffers, buf)
	}
	for _, c := range root.Commands {
		w.Commands = append(w.Commands, translateCommand(c))
	}
	return nil
}
