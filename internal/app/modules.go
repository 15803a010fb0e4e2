package app

import (
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/specialistvlad/memgrid/modules/arith"
	"github.com/specialistvlad/memgrid/modules/fault"
	"github.com/specialistvlad/memgrid/modules/fill"
	"github.com/specialistvlad/memgrid/modules/iota"
	"github.com/specialistvlad/memgrid/modules/print"
	"github.com/specialistvlad/memgrid/modules/reduce"
	"github.com/specialistvlad/memgrid/modules/sleep"
)

// coreModules is the definitive list of all kernel modules compiled into
// the memgrid binary.
var coreModules = []registry.Module{
	&fill.Module{},
	&iota.Module{},
	&arith.Module{},
	&reduce.Module{},
	&print.Module{},
	&fault.Module{},
	&sleep.Module{},
}
