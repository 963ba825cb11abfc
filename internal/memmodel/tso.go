package memmodel

import (
	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/machine"
)

// tsoSubsystem is total-store-order: each thread owns exactly one FIFO
// buffer of pending writes. Stores enqueue; loads forward from the issuing
// thread's buffer ahead of memory; an SC-mode access is enabled only once
// the thread's buffer has drained.
type tsoSubsystem struct {
	buffers []fifo
	seq     int
}

func newTSO(n int) *tsoSubsystem {
	return &tsoSubsystem{buffers: make([]fifo, n)}
}

func (*tsoSubsystem) Model() Model { return TSO }

func (s *tsoSubsystem) AccessBlocked(t ir.ThreadID, in ir.Instr) bool {
	if s.buffers[t].len() == 0 {
		return false
	}
	switch acc := in.(type) {
	case ir.Load:
		return acc.Mode == ir.SeqCst
	case ir.Store:
		return acc.Mode == ir.SeqCst
	default:
		return false
	}
}

func (s *tsoSubsystem) IssueLoad(st *machine.State, t ir.ThreadID, ld ir.Load, index int) (ir.Value, graph.EventID) {
	if e, ok := s.buffers[t].forward(ld.Loc); ok {
		ev := st.Record(t, graph.Event{
			Index: index,
			Kind:  graph.KindRead,
			Loc:   ld.Loc,
			Value: e.Value,
			Mode:  ld.Mode,
		})
		st.Graph.AddRF(e.Origin, ev)
		return e.Value, ev
	}
	return loadFromMemory(st, t, ld, index)
}

func (s *tsoSubsystem) IssueStore(st *machine.State, t ir.ThreadID, sto ir.Store, v ir.Value, index int) graph.EventID {
	ev := st.Record(t, graph.Event{
		Index: index,
		Kind:  graph.KindWrite,
		Loc:   sto.Loc,
		Value: v,
		Mode:  sto.Mode,
	})
	s.seq++
	s.buffers[t].push(Entry{
		Loc:    sto.Loc,
		Value:  v,
		Mode:   sto.Mode,
		Origin: ev,
		Index:  index,
		Seq:    s.seq,
	})
	return ev
}

func (s *tsoSubsystem) Propagations(t ir.ThreadID) []Propagation {
	head, ok := s.buffers[t].head()
	if !ok {
		return nil
	}
	return []Propagation{{Thread: t, Head: head}}
}

func (s *tsoSubsystem) Propagate(st *machine.State, p Propagation) graph.EventID {
	e, ok := s.buffers[p.Thread].pop()
	if !ok || e.Origin != p.Head.Origin {
		panic(&graph.ModelViolation{Msg: "TSO propagation does not match buffer head"})
	}
	st.MemWrite(e.Loc, e.Value)
	st.Graph.AppendMO(e.Origin)
	return st.Record(p.Thread, graph.Event{
		Index:  e.Index,
		Kind:   graph.KindPropagatedWrite,
		Loc:    e.Loc,
		Value:  e.Value,
		Mode:   e.Mode,
		Origin: e.Origin,
	})
}

func (s *tsoSubsystem) BufferedWrites(t ir.ThreadID) int {
	return s.buffers[t].len()
}
