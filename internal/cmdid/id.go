// internal/cmdid/id.go
package cmdid

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// ID is the identity of one command.
type ID struct {
	Queue string
	Kind  string
	Seq   uint64
}

// New returns the ID of the seq-th command of a queue.
func New(queue, kind string, seq uint64) ID {
	if kind == "" {
		kind = "cg"
	}
	return ID{Queue: queue, Kind: kind, Seq: seq}
}

// String serializes the ID into its canonical form.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s.%s[%d]", id.Queue, id.Kind, id.Seq)
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id == ID{} }

// Before reports whether id was submitted before other on the same queue.
func (id ID) Before(other ID) bool {
	return id.Queue == other.Queue && id.Seq < other.Seq
}

// idRegex splits `<queue>.<kind>[<seq>]`. Queue names may contain dots, the
// last segment is always the kind.
var idRegex = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)\.([a-zA-Z0-9_-]+)\[(\d+)\]$`)

func isValidName(name string) bool {
	return name != "." && name != ".." && name != "-"
}

// Parse reads the canonical form produced by String.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, rterr.New(rterr.KindRuntime, "command identifier cannot be empty")
	}
	m := idRegex.FindStringSubmatch(raw)
	if m == nil {
		return ID{}, rterr.Newf(rterr.KindRuntime, "invalid command identifier %q", raw)
	}
	if !isValidName(m[1]) || !isValidName(m[2]) {
		return ID{}, rterr.Newf(rterr.KindRuntime, "invalid command identifier %q", raw)
	}
	seq, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return ID{}, rterr.Wrapf(rterr.KindRuntime, err, "command identifier %q", raw)
	}
	return ID{Queue: m[1], Kind: m[2], Seq: seq}, nil
}
