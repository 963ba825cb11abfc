package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// messagePassingGraph builds the graph of a propagated REL write observed
// by an ACQ read.
func messagePassingGraph() *graph.Graph {
	g := graph.New()
	w := g.Append(graph.Event{Thread: 0, Index: 1, Kind: graph.KindWrite, Loc: "mX", Value: 9, Mode: ir.Rel})
	pw := g.Append(graph.Event{Thread: 0, Index: 1, Kind: graph.KindPropagatedWrite, Loc: "mX", Value: 9, Mode: ir.Rel, Origin: w})
	r := g.Append(graph.Event{Thread: 1, Index: 0, Kind: graph.KindRead, Loc: "mX", Value: 9, Mode: ir.Acq})
	g.AddPO(w, pw)
	g.AppendMO(w)
	g.AddRF(w, r)
	return g
}

func TestRecordAndReadRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordRun(ctx, "run-1", "TSO", messagePassingGraph()))

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunInfo{Token: "run-1", Model: "TSO", EventCount: 3}, runs[0])

	trace, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trace.Events, 3)

	assert.Equal(t, TraceEvent{ID: 0, Thread: 0, Index: 1, Kind: "W", Loc: "mX", Value: 9, Mode: "REL", Origin: -1}, trace.Events[0])
	assert.Equal(t, "PropW", trace.Events[1].Kind)
	assert.Equal(t, 0, trace.Events[1].Origin)
	assert.Equal(t, "R", trace.Events[2].Kind)

	// po + rf + sw; a single-write mo contributes no chain edges and the
	// read has no mo-later write, so no fr.
	assert.Contains(t, trace.Edges, TraceEdge{Kind: "po", Src: 0, Dst: 1})
	assert.Contains(t, trace.Edges, TraceEdge{Kind: "rf", Src: 0, Dst: 2})
	assert.Contains(t, trace.Edges, TraceEdge{Kind: "sw", Src: 0, Dst: 2})
	assert.Len(t, trace.Edges, 3)
}

func TestRecordRunTwiceFails(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordRun(ctx, "run-1", "SC", messagePassingGraph()))
	err := st.RecordRun(ctx, "run-1", "SC", messagePassingGraph())
	assert.Error(t, err)
}

func TestListRunsOrdersByToken(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordRun(ctx, "run-b", "SC", graph.New()))
	require.NoError(t, st.RecordRun(ctx, "run-a", "PSO", graph.New()))

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].Token)
	assert.Equal(t, "run-b", runs[1].Token)
}

func TestReadRunUnknownToken(t *testing.T) {
	st := openTestStore(t)
	_, err := st.ReadRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.db")
	st1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st2.Close())
}
