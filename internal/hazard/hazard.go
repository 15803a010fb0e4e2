// Package hazard detects read/write conflicts between accesses to the same
// storage object and turns them into ordering edges.
//
// Each root allocation owns one Tracker holding its outstanding accesses.
// Resolve compares a new access against that list: overlapping regions where
// at least one side writes produce an edge to the earlier access's event.
//
// Edges come in two strengths. A value edge means the new command consumes
// the contents produced by the earlier writer, so if that writer failed the
// new command fails too. A vacate edge only needs the earlier access to get
// out of the way (write-after-read, or any predecessor of a discard mode),
// and is satisfied by any terminal state.
//
// Policy when several overlapping accesses are outstanding: a new writer
// waits for every overlapping reader and every overlapping earlier writer; a
// new reader waits for every overlapping earlier writer and never for other
// readers. A new writer drops the records it fully covers, which keeps the
// list short without losing ordering, since later accesses reach the dropped
// ones transitively through the new writer.
package hazard

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/region"
)

// Kind names the data hazard an edge protects against.
type Kind int

const (
	RAW Kind = iota + 1
	WAR
	WAW
)

func (k Kind) String() string {
	switch k {
	case RAW:
		return "RAW"
	case WAR:
		return "WAR"
	case WAW:
		return "WAW"
	}
	return fmt.Sprintf("hazard(%d)", int(k))
}

// Strength says what the successor needs from its predecessor.
type Strength int

const (
	// Vacate edges are satisfied by any terminal state.
	Vacate Strength = iota + 1
	// Value edges require the predecessor to complete successfully.
	Value
)

func (s Strength) String() string {
	if s == Value {
		return "value"
	}
	return "vacate"
}

// Edge orders a new access after an earlier one.
type Edge struct {
	Event    *event.Event
	Owner    string
	Hazard   Kind
	Strength Strength
	Region   region.Region
}

// Record is one outstanding access.
type Record struct {
	Region region.Region
	Mode   access.Mode
	Event  *event.Event
	Owner  string
}

// Classify returns the edge required between an earlier access prev and a
// later access next over overlapping regions, or false if none is needed.
func Classify(prev, next access.Mode) (Kind, Strength, bool) {
	switch {
	case prev.Writes() && next.Writes():
		if next.Discards() {
			return WAW, Vacate, true
		}
		return WAW, Value, true
	case prev.Writes():
		if next.Discards() {
			return RAW, Vacate, true
		}
		return RAW, Value, true
	case next.Writes():
		return WAR, Vacate, true
	}
	return 0, 0, false
}

// Tracker is the outstanding access list of one root allocation.
type Tracker struct {
	mu      sync.Mutex
	records []Record
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Resolve computes the edges a new access needs and records it. Callers that
// resolve several accesses for one command must serialise whole commands
// externally so that edges always point to earlier submissions.
func (t *Tracker) Resolve(r region.Region, m access.Mode, ev *event.Event, owner string) []Edge {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune()
	edges := t.conflicts(r, m)
	if r.Empty() {
		return edges
	}
	if m.Writes() {
		kept := t.records[:0]
		for _, rec := range t.records {
			if !r.Covers(rec.Region) {
				kept = append(kept, rec)
			}
		}
		clear(t.records[len(kept):])
		t.records = kept
	}
	t.records = append(t.records, Record{Region: r, Mode: m, Event: ev, Owner: owner})
	return edges
}

// Conflicts returns the edges a new access would need without recording it.
func (t *Tracker) Conflicts(r region.Region, m access.Mode) []Edge {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune()
	return t.conflicts(r, m)
}

func (t *Tracker) conflicts(r region.Region, m access.Mode) []Edge {
	var edges []Edge
	for _, rec := range t.records {
		if !rec.Region.Overlaps(r) {
			continue
		}
		kind, strength, ok := Classify(rec.Mode, m)
		if !ok {
			continue
		}
		overlap, _ := rec.Region.Intersect(r)
		edges = append(edges, Edge{
			Event:    rec.Event,
			Owner:    rec.Owner,
			Hazard:   kind,
			Strength: strength,
			Region:   overlap,
		})
	}
	return edges
}

// prune drops records that can no longer affect anyone: successfully
// completed accesses and finished readers. Failed writers stay so that
// later value readers observe the failure.
func (t *Tracker) prune() {
	kept := t.records[:0]
	for _, rec := range t.records {
		st := rec.Event.Status()
		if st == event.Complete || (st == event.Failed && !rec.Mode.Writes()) {
			continue
		}
		kept = append(kept, rec)
	}
	clear(t.records[len(kept):])
	t.records = kept
}

// Outstanding returns the events of records that are not yet terminal.
func (t *Tracker) Outstanding() []*event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*event.Event
	seen := make(map[*event.Event]struct{})
	for _, rec := range t.records {
		if rec.Event.Status().Terminal() {
			continue
		}
		if _, ok := seen[rec.Event]; ok {
			continue
		}
		seen[rec.Event] = struct{}{}
		out = append(out, rec.Event)
	}
	return out
}

// Records returns a snapshot of the outstanding access list.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Merge collapses edges that point to the same event, keeping the strongest
// requirement. Order of first appearance is preserved.
func Merge(edges []Edge) []Edge {
	if len(edges) < 2 {
		return edges
	}
	index := make(map[*event.Event]int, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if i, ok := index[e.Event]; ok {
			if e.Strength > out[i].Strength {
				out[i].Strength = e.Strength
				out[i].Hazard = e.Hazard
			}
			continue
		}
		index[e.Event] = len(out)
		out = append(out, e)
	}
	return out
}
