package hazard

import (
	"errors"
	"testing"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(t *testing.T, offset, n int) region.Region {
	t.Helper()
	r, err := region.New([]int{offset}, []int{n})
	require.NoError(t, err)
	return r
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		prev     access.Mode
		next     access.Mode
		kind     Kind
		strength Strength
		ok       bool
	}{
		{"read after read", access.Read, access.Read, 0, 0, false},
		{"read after write", access.Write, access.Read, RAW, Value, true},
		{"read_write after write", access.Write, access.ReadWrite, WAW, Value, true},
		{"write after read", access.Read, access.Write, WAR, Vacate, true},
		{"write after write", access.Write, access.Write, WAW, Value, true},
		{"discard after write", access.ReadWrite, access.DiscardWrite, WAW, Vacate, true},
		{"discard_read_write after write", access.Write, access.DiscardReadWrite, WAW, Vacate, true},
		{"discard after read", access.Read, access.DiscardWrite, WAR, Vacate, true},
		{"atomic after atomic", access.Atomic, access.Atomic, WAW, Value, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, strength, ok := Classify(tc.prev, tc.next)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.strength, strength)
		})
	}
}

func TestResolve_DisjointRegionsAreIndependent(t *testing.T) {
	tr := NewTracker()
	w1, w2 := event.New("w1"), event.New("w2")

	assert.Empty(t, tr.Resolve(span(t, 0, 50), access.Write, w1, "w1"))
	assert.Empty(t, tr.Resolve(span(t, 50, 50), access.Write, w2, "w2"))
	assert.Len(t, tr.Records(), 2)
}

func TestResolve_ReadAfterWrite(t *testing.T) {
	tr := NewTracker()
	w, r := event.New("w"), event.New("r")

	tr.Resolve(span(t, 0, 100), access.Write, w, "w")
	edges := tr.Resolve(span(t, 0, 100), access.Read, r, "r")

	require.Len(t, edges, 1)
	assert.Same(t, w, edges[0].Event)
	assert.Equal(t, RAW, edges[0].Hazard)
	assert.Equal(t, Value, edges[0].Strength)
	assert.Equal(t, span(t, 0, 100), edges[0].Region)
}

func TestResolve_ReadersDoNotWaitOnReaders(t *testing.T) {
	tr := NewTracker()
	r1, r2 := event.New("r1"), event.New("r2")

	tr.Resolve(span(t, 0, 10), access.Read, r1, "r1")
	assert.Empty(t, tr.Resolve(span(t, 0, 10), access.Read, r2, "r2"))
}

func TestResolve_WriterWaitsForAllOverlappingReadersAndWriter(t *testing.T) {
	tr := NewTracker()
	w0 := event.New("w0")
	r1, r2, r3 := event.New("r1"), event.New("r2"), event.New("r3")
	w := event.New("w")

	tr.Resolve(span(t, 0, 100), access.Write, w0, "w0")
	tr.Resolve(span(t, 0, 40), access.Read, r1, "r1")
	tr.Resolve(span(t, 30, 40), access.Read, r2, "r2")
	tr.Resolve(span(t, 80, 20), access.Read, r3, "r3")

	edges := tr.Resolve(span(t, 20, 40), access.Write, w, "w")
	var owners []string
	for _, e := range edges {
		owners = append(owners, e.Owner)
	}
	assert.ElementsMatch(t, []string{"w0", "r1", "r2"}, owners)
}

func TestResolve_CoveringWriterSupersedes(t *testing.T) {
	tr := NewTracker()
	a, b, c := event.New("a"), event.New("b"), event.New("c")

	tr.Resolve(span(t, 0, 10), access.Write, a, "a")
	tr.Resolve(span(t, 10, 10), access.Read, b, "b")
	tr.Resolve(span(t, 0, 20), access.DiscardWrite, c, "c")

	recs := tr.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "c", recs[0].Owner)

	// A later reader only needs the covering writer.
	edges := tr.Resolve(span(t, 5, 1), access.Read, event.New("d"), "d")
	require.Len(t, edges, 1)
	assert.Equal(t, "c", edges[0].Owner)
}

func TestResolve_PartialWriterKeepsOlderRecords(t *testing.T) {
	tr := NewTracker()
	tr.Resolve(span(t, 0, 10), access.Write, event.New("a"), "a")
	tr.Resolve(span(t, 5, 10), access.Write, event.New("b"), "b")

	edges := tr.Resolve(span(t, 0, 3), access.Read, event.New("c"), "c")
	require.Len(t, edges, 1)
	assert.Equal(t, "a", edges[0].Owner)
}

func TestResolve_PrunesCompletedAndKeepsFailedWriters(t *testing.T) {
	tr := NewTracker()
	done, failed, reader := event.New("done"), event.New("failed"), event.New("reader")

	tr.Resolve(span(t, 0, 10), access.Write, done, "done")
	tr.Resolve(span(t, 10, 10), access.Write, failed, "failed")
	tr.Resolve(span(t, 20, 10), access.Read, reader, "reader")
	done.Complete()
	failed.Fail(errors.New("boom"))
	reader.Fail(errors.New("boom"))

	recs := tr.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "failed", recs[0].Owner)

	edges := tr.Conflicts(span(t, 0, 30), access.Read)
	require.Len(t, edges, 1)
	assert.Equal(t, "failed", edges[0].Owner)
	assert.Equal(t, Value, edges[0].Strength)
}

func TestResolve_EmptyRegionIsAlwaysSatisfiable(t *testing.T) {
	tr := NewTracker()
	tr.Resolve(span(t, 0, 10), access.Write, event.New("w"), "w")
	assert.Empty(t, tr.Resolve(span(t, 5, 0), access.Write, event.New("e"), "e"))
	assert.Len(t, tr.Records(), 1)
}

func TestOutstanding(t *testing.T) {
	tr := NewTracker()
	a, b := event.New("a"), event.New("b")
	tr.Resolve(span(t, 0, 5), access.Read, a, "a")
	tr.Resolve(span(t, 5, 5), access.Read, b, "b")
	a.Complete()

	out := tr.Outstanding()
	require.Len(t, out, 1)
	assert.Same(t, b, out[0])
}

func TestMerge(t *testing.T) {
	a, b := event.New("a"), event.New("b")
	edges := Merge([]Edge{
		{Event: a, Strength: Vacate, Hazard: WAR},
		{Event: b, Strength: Vacate},
		{Event: a, Strength: Value, Hazard: RAW},
	})
	require.Len(t, edges, 2)
	assert.Same(t, a, edges[0].Event)
	assert.Equal(t, Value, edges[0].Strength)
	assert.Equal(t, RAW, edges[0].Hazard)
}
