package memmodel

import (
	"sort"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/machine"
)

// psoSubsystem is partial-store-order: each (thread, location) pair owns
// its own FIFO buffer, so writes to distinct locations may propagate out
// of issue order. Forwarding reads the same location's bucket; an SC-mode
// access requires ALL of the thread's buckets to be empty.
type psoSubsystem struct {
	// buckets[t] maps a location to that thread's pending writes at it.
	buckets []map[ir.LocID]*fifo
	seq     int
}

func newPSO(n int) *psoSubsystem {
	buckets := make([]map[ir.LocID]*fifo, n)
	for i := range buckets {
		buckets[i] = make(map[ir.LocID]*fifo)
	}
	return &psoSubsystem{buckets: buckets}
}

func (*psoSubsystem) Model() Model { return PSO }

func (s *psoSubsystem) AccessBlocked(t ir.ThreadID, in ir.Instr) bool {
	if s.BufferedWrites(t) == 0 {
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

func (s *psoSubsystem) IssueLoad(st *machine.State, t ir.ThreadID, ld ir.Load, index int) (ir.Value, graph.EventID) {
	if b, ok := s.buckets[t][ld.Loc]; ok {
		if e, ok := b.forward(ld.Loc); ok {
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
	}
	return loadFromMemory(st, t, ld, index)
}

func (s *psoSubsystem) IssueStore(st *machine.State, t ir.ThreadID, sto ir.Store, v ir.Value, index int) graph.EventID {
	ev := st.Record(t, graph.Event{
		Index: index,
		Kind:  graph.KindWrite,
		Loc:   sto.Loc,
		Value: v,
		Mode:  sto.Mode,
	})
	b, ok := s.buckets[t][sto.Loc]
	if !ok {
		b = &fifo{}
		s.buckets[t][sto.Loc] = b
	}
	s.seq++
	b.push(Entry{
		Loc:    sto.Loc,
		Value:  v,
		Mode:   sto.Mode,
		Origin: ev,
		Index:  index,
		Seq:    s.seq,
	})
	return ev
}

// Propagations lists one entry per non-empty bucket, ordered by location
// and then by head age so the menu order is deterministic.
func (s *psoSubsystem) Propagations(t ir.ThreadID) []Propagation {
	var props []Propagation
	for _, b := range s.buckets[t] {
		if head, ok := b.head(); ok {
			props = append(props, Propagation{Thread: t, Head: head})
		}
	}
	sort.Slice(props, func(i, j int) bool {
		if props[i].Head.Loc != props[j].Head.Loc {
			return props[i].Head.Loc < props[j].Head.Loc
		}
		return props[i].Head.Seq < props[j].Head.Seq
	})
	return props
}

func (s *psoSubsystem) Propagate(st *machine.State, p Propagation) graph.EventID {
	b, ok := s.buckets[p.Thread][p.Head.Loc]
	if !ok {
		panic(&graph.ModelViolation{Msg: "PSO propagation for empty bucket"})
	}
	e, ok := b.pop()
	if !ok || e.Origin != p.Head.Origin {
		panic(&graph.ModelViolation{Msg: "PSO propagation does not match bucket head"})
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

func (s *psoSubsystem) BufferedWrites(t ir.ThreadID) int {
	n := 0
	for _, b := range s.buckets[t] {
		n += b.len()
	}
	return n
}
