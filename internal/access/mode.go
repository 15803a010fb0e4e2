package access

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Mode is the access mode an accessor declares.
type Mode uint8

const (
	Read Mode = iota + 1
	Write
	ReadWrite
	DiscardWrite
	DiscardReadWrite
	Atomic
)

type capability struct {
	name     string
	reads    bool
	writes   bool
	discards bool
}

var modeCaps = [...]capability{
	Read:             {name: "read", reads: true},
	Write:            {name: "write", writes: true},
	ReadWrite:        {name: "read_write", reads: true, writes: true},
	DiscardWrite:     {name: "discard_write", writes: true, discards: true},
	DiscardReadWrite: {name: "discard_read_write", reads: true, writes: true, discards: true},
	Atomic:           {name: "atomic", reads: true, writes: true},
}

func (m Mode) caps() capability {
	if m == 0 || int(m) >= len(modeCaps) {
		return capability{}
	}
	return modeCaps[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m.caps().name != "" }

// Reads reports whether the mode observes existing contents.
func (m Mode) Reads() bool { return m.caps().reads }

// Writes reports whether the mode modifies contents.
func (m Mode) Writes() bool { return m.caps().writes }

// Discards reports whether prior contents may be thrown away.
func (m Mode) Discards() bool { return m.caps().discards }

func (m Mode) String() string {
	if c := m.caps(); c.name != "" {
		return c.name
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode converts a mode name such as "discard_write" into a Mode.
func ParseMode(s string) (Mode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for m := Read; m <= Atomic; m++ {
		if modeCaps[m].name == norm {
			return m, nil
		}
	}
	return 0, rterr.Newf(rterr.KindAccessor, "unknown access mode %q", s)
}

// Target is where the accessed memory is used.
type Target uint8

const (
	GlobalBuffer Target = iota + 1
	ConstantBuffer
	Local
	HostBuffer
)

var targetNames = [...]string{
	GlobalBuffer:   "global_buffer",
	ConstantBuffer: "constant_buffer",
	Local:          "local",
	HostBuffer:     "host_buffer",
}

func (t Target) String() string {
	if t > 0 && int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("target(%d)", uint8(t))
}

// ParseTarget converts a target name into a Target. "global", "constant"
// and "host" are accepted as short forms.
func ParseTarget(s string) (Target, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t := GlobalBuffer; t <= HostBuffer; t++ {
		if norm == targetNames[t] || norm+"_buffer" == targetNames[t] {
			return t, nil
		}
	}
	return 0, rterr.Newf(rterr.KindAccessor, "unknown access target %q", s)
}

// rule validates a mode for one target.
type rule func(Mode) error

func allowAll(Mode) error { return nil }

func readOnly(m Mode) error {
	if m != Read {
		return rterr.Newf(rterr.KindAccessor, "constant_buffer accessors are read-only, got %s", m)
	}
	return nil
}

func localModes(m Mode) error {
	if m != ReadWrite && m != Atomic {
		return rterr.Newf(rterr.KindAccessor, "local accessors must be read_write or atomic, got %s", m)
	}
	return nil
}

func hostModes(m Mode) error {
	if m == Atomic {
		return rterr.New(rterr.KindAccessor, "host_buffer accessors do not support atomic mode")
	}
	return nil
}

var targetRules = [...]rule{
	GlobalBuffer:   allowAll,
	ConstantBuffer: readOnly,
	Local:          localModes,
	HostBuffer:     hostModes,
}

// Validate checks a mode and target combination.
func Validate(m Mode, t Target) error {
	if !m.Valid() {
		return rterr.Newf(rterr.KindAccessor, "invalid access mode %s", m)
	}
	if t == 0 || int(t) >= len(targetRules) {
		return rterr.Newf(rterr.KindAccessor, "invalid access target %s", t)
	}
	return targetRules[t](m)
}

// Usage returns the buffer usage flags a device mirror needs for this
// target and mode.
func Usage(t Target, m Mode) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	switch t {
	case GlobalBuffer:
		u = gputypes.BufferUsageStorage
	case ConstantBuffer:
		u = gputypes.BufferUsageUniform
	case HostBuffer:
		u = gputypes.BufferUsageMapRead
		if m.Writes() {
			u |= gputypes.BufferUsageMapWrite
		}
		return u
	case Local:
		return gputypes.BufferUsageStorage
	}
	if !m.Discards() {
		u |= gputypes.BufferUsageCopyDst
	}
	if m.Writes() {
		u |= gputypes.BufferUsageCopySrc
	}
	return u
}
