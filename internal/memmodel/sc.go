package memmodel

import (
	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/machine"
)

// scSubsystem is sequential consistency: no buffers exist. Every store
// writes memory atomically at issue and mo extends in issue order; every
// load reads the latest memory value.
type scSubsystem struct{}

func newSC() *scSubsystem { return &scSubsystem{} }

func (*scSubsystem) Model() Model { return SC }

func (*scSubsystem) AccessBlocked(ir.ThreadID, ir.Instr) bool { return false }

func (*scSubsystem) IssueLoad(st *machine.State, t ir.ThreadID, ld ir.Load, index int) (ir.Value, graph.EventID) {
	return loadFromMemory(st, t, ld, index)
}

func (*scSubsystem) IssueStore(st *machine.State, t ir.ThreadID, sto ir.Store, v ir.Value, index int) graph.EventID {
	ev := st.Record(t, graph.Event{
		Index: index,
		Kind:  graph.KindWrite,
		Loc:   sto.Loc,
		Value: v,
		Mode:  sto.Mode,
	})
	st.MemWrite(sto.Loc, v)
	st.Graph.AppendMO(ev)
	return ev
}

func (*scSubsystem) Propagations(ir.ThreadID) []Propagation { return nil }

func (*scSubsystem) Propagate(*machine.State, Propagation) graph.EventID {
	panic(&graph.ModelViolation{Msg: "propagation under SC: no buffers exist"})
}

func (*scSubsystem) BufferedWrites(ir.ThreadID) int { return 0 }
