package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weft/internal/compiler"
	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/memmodel"
)

func mustPrograms(t *testing.T, srcs ...string) []ir.Program {
	t.Helper()
	programs := make([]ir.Program, 0, len(srcs))
	for i, src := range srcs {
		p, err := compiler.ParseProgram(strings.NewReader(src), "test")
		require.NoError(t, err, "program %d", i)
		programs = append(programs, p)
	}
	return programs
}

func newTestEngine(t *testing.T, model memmodel.Model, srcs ...string) *Engine {
	t.Helper()
	return New(model, mustPrograms(t, srcs...))
}

// apply drives the engine through a choice stream, failing the test on the
// first error.
func apply(t *testing.T, e *Engine, choices ...int) {
	t.Helper()
	for i, c := range choices {
		require.NoError(t, e.Apply(c), "choice %d (index %d)", i, c)
	}
}

// findEvent returns the first event matching kind at a location.
func findEvent(g *graph.Graph, kind graph.Kind, loc ir.LocID) (graph.Event, bool) {
	for _, ev := range g.Events() {
		if ev.Kind == kind && ev.Loc == loc {
			return ev, true
		}
	}
	return graph.Event{}, false
}

func TestSCSanity(t *testing.T) {
	// Writer thread first: the reader must observe 1.
	e := newTestEngine(t, memmodel.SC,
		"r1 = 1\nstore SC r1 #mX",
		"load SC #mX r2")
	apply(t, e, 0, 0, 0)

	assert.True(t, e.Done())
	assert.Equal(t, ir.Value(1), e.State().Register(1, "r2"))
	assert.Equal(t, ir.Value(1), e.State().MemRead("mX"))

	w, ok := findEvent(e.State().Graph, graph.KindWrite, "mX")
	require.True(t, ok)
	r, ok := findEvent(e.State().Graph, graph.KindRead, "mX")
	require.True(t, ok)
	assert.Contains(t, e.State().Graph.RF(), graph.Edge{From: w.ID, To: r.ID})
}

func TestSCSanityReaderFirst(t *testing.T) {
	// Reader goes first: it reads the default 0 and gets no rf edge.
	e := newTestEngine(t, memmodel.SC,
		"r1 = 1\nstore SC r1 #mX",
		"load SC #mX r2")
	apply(t, e, 1, 0, 0)

	assert.True(t, e.Done())
	assert.Equal(t, ir.Value(0), e.State().Register(1, "r2"))
	assert.Equal(t, ir.Value(1), e.State().MemRead("mX"))
	assert.Empty(t, e.State().Graph.RF())
}

func TestTSOStoreForwarding(t *testing.T) {
	// With the store buffered and not propagated, the load must forward 7
	// from the thread's own buffer, not read 0 from memory.
	e := newTestEngine(t, memmodel.TSO,
		"r1 = 7\nstore RLX r1 #mA\nload RLX #mA r2")
	apply(t, e, 0, 0, 0)

	assert.Equal(t, ir.Value(7), e.State().Register(0, "r2"))
	assert.Equal(t, ir.Value(0), e.State().MemRead("mA"))
	assert.Equal(t, 1, e.BufferedWrites(0))

	w, ok := findEvent(e.State().Graph, graph.KindWrite, "mA")
	require.True(t, ok)
	r, ok := findEvent(e.State().Graph, graph.KindRead, "mA")
	require.True(t, ok)
	assert.Contains(t, e.State().Graph.RF(), graph.Edge{From: w.ID, To: r.ID})

	// The deferred propagation is still enabled and drains the buffer.
	require.False(t, e.Done())
	apply(t, e, 0)
	assert.Equal(t, ir.Value(7), e.State().MemRead("mA"))
	assert.Zero(t, e.BufferedWrites(0))
	assert.True(t, e.Done())
}

func TestPSOReorder(t *testing.T) {
	// Under PSO the younger write to mB may propagate before the older
	// write to mA.
	e := newTestEngine(t, memmodel.PSO,
		"r1 = 1\nr2 = 2\nstore RLX r1 #mA\nstore RLX r2 #mB")
	apply(t, e, 0, 0, 0, 0)

	actions := e.Enabled()
	require.Len(t, actions, 2)
	assert.Equal(t, ActionPropagate, actions[0].Kind)
	assert.Equal(t, ir.LocID("mA"), actions[0].Prop.Head.Loc)
	assert.Equal(t, ir.LocID("mB"), actions[1].Prop.Head.Loc)

	apply(t, e, 1)
	assert.Equal(t, ir.Value(2), e.State().MemRead("mB"))
	assert.Equal(t, ir.Value(0), e.State().MemRead("mA"))
	assert.Equal(t, 1, e.BufferedWrites(0))
}

func TestReleaseAcquireSW(t *testing.T) {
	// After the REL store propagates and the ACQ load observes it, the
	// graph carries a sw edge exactly because rf connects them.
	e := newTestEngine(t, memmodel.TSO,
		"r1 = 9\nstore REL r1 #mX",
		"load ACQ #mX r2")
	apply(t, e, 0, 0, 0, 0)

	assert.True(t, e.Done())
	assert.Equal(t, ir.Value(9), e.State().Register(1, "r2"))

	w, ok := findEvent(e.State().Graph, graph.KindWrite, "mX")
	require.True(t, ok)
	r, ok := findEvent(e.State().Graph, graph.KindRead, "mX")
	require.True(t, ok)
	assert.Contains(t, e.State().Graph.RF(), graph.Edge{From: w.ID, To: r.ID})
	assert.Contains(t, e.State().Graph.SW(), graph.Edge{From: w.ID, To: r.ID})
}

func TestGotoNotTakenFinishes(t *testing.T) {
	e := newTestEngine(t, memmodel.TSO,
		"L: r2 = 1488\nr1 = 0\nif r1 goto L")
	apply(t, e, 0, 0, 0)

	assert.True(t, e.Done())
	assert.Equal(t, 3, e.State().Graph.Len())
}

func TestGotoReplayGrowsPOMonotonically(t *testing.T) {
	// Each loop iteration appends a fresh pair of events chained to the
	// prior iteration's tail; nothing is reused or mutated.
	e := newTestEngine(t, memmodel.TSO,
		"r1 = 1\nL: r2 = 1488\nif r1 goto L")
	apply(t, e, 0) // r1 = 1
	for i := 0; i < 3; i++ {
		apply(t, e, 0, 0) // r2 = 1488; if r1 goto L (taken)
	}

	g := e.State().Graph
	assert.Equal(t, 7, g.Len())
	po := g.PO()
	require.Len(t, po, 6)
	for i, edge := range po {
		assert.Equal(t, graph.Edge{From: graph.EventID(i), To: graph.EventID(i + 1)}, edge)
	}
	assert.False(t, e.Done())
	assert.Equal(t, 1, e.State().Threads[0].PC)
}

func TestSCFlushBlocksUntilDrained(t *testing.T) {
	// An SC access acts as a full flush point: while the buffer is
	// non-empty the thread offers only its propagation.
	e := newTestEngine(t, memmodel.TSO,
		"r1 = 1\nstore RLX r1 #mA\nstore SC r1 #mB")
	apply(t, e, 0, 0)

	actions := e.Enabled()
	require.Len(t, actions, 1)
	assert.Equal(t, ActionPropagate, actions[0].Kind)

	apply(t, e, 0)
	actions = e.Enabled()
	require.Len(t, actions, 1)
	assert.Equal(t, ActionStep, actions[0].Kind)

	// The SC store fired only once the buffer was empty, but the store
	// itself enqueues, so it is offered for propagation immediately after
	// issuing.
	apply(t, e, 0)
	assert.Equal(t, 1, e.BufferedWrites(0))
}

func TestEnabledOrderIsStable(t *testing.T) {
	// Threads ascending; within a thread the local step precedes the
	// propagations.
	e := newTestEngine(t, memmodel.TSO,
		"r1 = 1\nstore RLX r1 #mA\nr2 = 2",
		"r1 = 3\nstore RLX r1 #mB\nr2 = 4")
	apply(t, e, 0, 0, 2, 2) // both threads assign and buffer a store

	actions := e.Enabled()
	require.Len(t, actions, 4)
	assert.Equal(t, ActionStep, actions[0].Kind)
	assert.Equal(t, 0, actions[0].Thread)
	assert.Equal(t, ActionPropagate, actions[1].Kind)
	assert.Equal(t, 0, actions[1].Thread)
	assert.Equal(t, ActionStep, actions[2].Kind)
	assert.Equal(t, 1, actions[2].Thread)
	assert.Equal(t, ActionPropagate, actions[3].Kind)
	assert.Equal(t, 1, actions[3].Thread)

	assert.Equal(t, "Thread 0, line 2: r2 = 2", actions[0].Label)
	assert.Equal(t, "Thread 0: propagate write (line 1: store RLX r1 #mA)", actions[1].Label)
}

func TestArithmeticErrorLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t, memmodel.SC,
		"r1 = 1\nr3 = r1 / r2")
	apply(t, e, 0)

	before := e.State().Graph.Len()
	err := e.Apply(0)
	require.Error(t, err)
	assert.True(t, IsArithmeticError(err))

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 0, re.Thread)
	assert.Equal(t, 1, re.Index)

	// The failed step mutated nothing.
	assert.Equal(t, before, e.State().Graph.Len())
	assert.Equal(t, 1, e.State().Threads[0].PC)
	assert.Equal(t, ir.Value(0), e.State().Register(0, "r3"))

	// Only the successful first step is on the choice record.
	assert.Equal(t, []int{0}, e.Choices())
}

func TestUnknownLabelAborts(t *testing.T) {
	e := newTestEngine(t, memmodel.SC,
		"r1 = 1\nif r1 goto nowhere")
	apply(t, e, 0)

	err := e.Apply(0)
	require.Error(t, err)
	assert.True(t, IsUnknownLabelError(err))
	assert.Equal(t, 1, e.State().Threads[0].PC)
	assert.Equal(t, 1, e.State().Graph.Len())
}

func TestUntakenBranchIgnoresMissingLabel(t *testing.T) {
	// The branch target is resolved at issue time, only when taken.
	e := newTestEngine(t, memmodel.SC,
		"if r1 goto nowhere")
	apply(t, e, 0)
	assert.True(t, e.Done())
}

func TestInvalidChoice(t *testing.T) {
	e := newTestEngine(t, memmodel.SC, "r1 = 1")
	err := e.Apply(5)
	require.Error(t, err)
	assert.True(t, IsInvalidChoice(err))
	err = e.Apply(-1)
	assert.True(t, IsInvalidChoice(err))
}

func TestDeterminismUnderChoiceStream(t *testing.T) {
	// Two runs of the same programs under the same model, given the same
	// index stream, yield byte-identical graphs and memory.
	srcs := []string{
		"r1 = 1\nstore RLX r1 #mA\nstore RLX r1 #mB\nload RLX #mB r2",
		"load RLX #mA r1\nstore REL r1 #mC",
	}
	choices := []int{0, 0, 1, 0, 1, 0, 0, 0, 0}

	render := func() (string, map[ir.LocID]ir.Value) {
		e := New(memmodel.PSO, mustPrograms(t, srcs...))
		require.NoError(t, e.Replay(choices))
		var buf bytes.Buffer
		require.NoError(t, e.State().GraphSnapshot().WriteDOT(&buf))
		return buf.String(), e.State().MemorySnapshot()
	}

	dotA, memA := render()
	dotB, memB := render()
	assert.Equal(t, dotA, dotB)
	assert.Equal(t, memA, memB)
}

func TestChoicesAccumulate(t *testing.T) {
	e := newTestEngine(t, memmodel.TSO, "r1 = 1\nstore RLX r1 #mA")
	apply(t, e, 0, 0, 0)
	assert.Equal(t, []int{0, 0, 0}, e.Choices())

	// The returned slice is a copy.
	e.Choices()[0] = 99
	assert.Equal(t, []int{0, 0, 0}, e.Choices())
}

func TestFixedTokenOption(t *testing.T) {
	e := New(memmodel.SC, mustPrograms(t, "r1 = 1"),
		WithTokenGenerator(fixedGen("run-fixed")))
	assert.Equal(t, "run-fixed", e.RunToken())
}

type fixedGen string

func (g fixedGen) Generate() string { return string(g) }
