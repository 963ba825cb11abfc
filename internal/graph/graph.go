package graph

import (
	"fmt"
	"sort"

	"github.com/roach88/weft/internal/ir"
)

// Edge is a directed edge between two events.
type Edge struct {
	From EventID
	To   EventID
}

// ModelViolation is an internal-consistency failure: one of the structural
// invariants of the graph was breached by a caller. It indicates a bug in
// the interpreter itself and is non-recoverable.
type ModelViolation struct {
	Msg string
}

func (v *ModelViolation) Error() string {
	return fmt.Sprintf("MODEL_VIOLATION: %s", v.Msg)
}

func violationf(format string, args ...any) {
	panic(&ModelViolation{Msg: fmt.Sprintf(format, args...)})
}

// Graph is the append-only execution-graph recorder.
//
// All mutation happens through the step engine; front ends only see copies
// via the snapshot accessors. Events are held in an arena indexed by
// EventID; edges reference events by id only, never by pointer.
type Graph struct {
	events []Event
	po     []Edge
	rf     []Edge
	sw     []Edge
	mo     map[ir.LocID][]EventID

	// rfOf maps a read event to its rf source, enforcing that rf stays
	// functional: every read has at most one source.
	rfOf map[EventID]EventID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		mo:   make(map[ir.LocID][]EventID),
		rfOf: make(map[EventID]EventID),
	}
}

// Append adds an event to the arena and returns its id.
// The ID and Origin fields of the argument are ignored except for
// KindPropagatedWrite, where Origin must name an existing write.
func (g *Graph) Append(e Event) EventID {
	id := EventID(len(g.events))
	e.ID = id
	if e.Kind == KindPropagatedWrite {
		if !g.valid(e.Origin) || g.events[e.Origin].Kind != KindWrite {
			violationf("propagated write e%d has no originating write", id)
		}
	} else {
		e.Origin = NoEvent
	}
	g.events = append(g.events, e)
	return id
}

// AddPO appends a program-order edge. from may be NoEvent for the first
// action of a thread, in which case no edge is recorded.
func (g *Graph) AddPO(from, to EventID) {
	if from == NoEvent {
		return
	}
	g.mustValid(from, "po.from")
	g.mustValid(to, "po.to")
	if g.events[from].Thread != g.events[to].Thread {
		violationf("po edge e%d->e%d crosses threads", from, to)
	}
	g.po = append(g.po, Edge{From: from, To: to})
}

// AddRF records that read r observed write w, and derives the
// synchronizes-with edge when the modes qualify (source REL or SC, sink ACQ
// or SC). rf is functional: a second source for the same read is a
// violation.
func (g *Graph) AddRF(w, r EventID) {
	g.mustValid(w, "rf.from")
	g.mustValid(r, "rf.to")
	we, re := g.events[w], g.events[r]
	if we.Kind != KindWrite {
		violationf("rf source e%d is not a write", w)
	}
	if re.Kind != KindRead {
		violationf("rf sink e%d is not a read", r)
	}
	if we.Loc != re.Loc {
		violationf("rf edge e%d->e%d mixes locations %s and %s", w, r, we.Loc, re.Loc)
	}
	if _, dup := g.rfOf[r]; dup {
		violationf("read e%d already has an rf source", r)
	}
	g.rfOf[r] = w
	g.rf = append(g.rf, Edge{From: w, To: r})
	if we.Mode.ReleaseLike() && re.Mode.AcquireLike() {
		g.sw = append(g.sw, Edge{From: w, To: r})
	}
}

// AppendMO extends the modification order of the write's location with w.
// Called when the write reaches shared memory: at issue under SC, at
// propagation under TSO/PSO.
func (g *Graph) AppendMO(w EventID) {
	g.mustValid(w, "mo")
	we := g.events[w]
	if we.Kind != KindWrite {
		violationf("mo member e%d is not a write", w)
	}
	for _, prior := range g.mo[we.Loc] {
		if prior == w {
			violationf("write e%d appended to mo twice", w)
		}
	}
	g.mo[we.Loc] = append(g.mo[we.Loc], w)
}

// RFSource returns the write a read observed, if any. A read of the
// machine-default 0 with no prior write has no source.
func (g *Graph) RFSource(r EventID) (EventID, bool) {
	w, ok := g.rfOf[r]
	return w, ok
}

// LastMO returns the mo-maximal write for a location: the write whose value
// shared memory currently holds. ok is false if no write reached memory.
func (g *Graph) LastMO(loc ir.LocID) (EventID, bool) {
	order := g.mo[loc]
	if len(order) == 0 {
		return NoEvent, false
	}
	return order[len(order)-1], true
}

// Events returns a copy of the event arena.
func (g *Graph) Events() []Event {
	out := make([]Event, len(g.events))
	copy(out, g.events)
	return out
}

// Event returns the event with the given id.
func (g *Graph) Event(id EventID) Event {
	g.mustValid(id, "lookup")
	return g.events[id]
}

// Len returns the number of events.
func (g *Graph) Len() int { return len(g.events) }

// PO returns a copy of the program-order edges.
func (g *Graph) PO() []Edge { return copyEdges(g.po) }

// RF returns a copy of the reads-from edges.
func (g *Graph) RF() []Edge { return copyEdges(g.rf) }

// SW returns a copy of the synchronizes-with edges.
func (g *Graph) SW() []Edge { return copyEdges(g.sw) }

// MO returns the per-location modification orders as edge chains:
// consecutive writes in each location's order.
func (g *Graph) MO() []Edge {
	var edges []Edge
	for _, loc := range g.moLocs() {
		order := g.mo[loc]
		for i := 1; i < len(order); i++ {
			edges = append(edges, Edge{From: order[i-1], To: order[i]})
		}
	}
	return edges
}

// MOForLoc returns a copy of one location's modification order.
func (g *Graph) MOForLoc(loc ir.LocID) []EventID {
	out := make([]EventID, len(g.mo[loc]))
	copy(out, g.mo[loc])
	return out
}

// FR derives the from-read edges: for a read observing write w0, an fr
// edge points to every write mo-after w0 at the same location. A read with
// no rf source (machine-default value) contributes no fr edges.
func (g *Graph) FR() []Edge {
	var edges []Edge
	// Walk reads in id order so derived output is deterministic.
	for id := range g.events {
		r := EventID(id)
		if g.events[r].Kind != KindRead {
			continue
		}
		w0, ok := g.rfOf[r]
		if !ok {
			continue
		}
		order := g.mo[g.events[r].Loc]
		seen := false
		for _, w := range order {
			if seen {
				edges = append(edges, Edge{From: r, To: w})
			}
			if w == w0 {
				seen = true
			}
		}
	}
	return edges
}

// Clone returns a deep copy. Used for read-only snapshots handed to the
// front end so nothing can mutate the live graph mid-step.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		events: make([]Event, len(g.events)),
		po:     copyEdges(g.po),
		rf:     copyEdges(g.rf),
		sw:     copyEdges(g.sw),
		mo:     make(map[ir.LocID][]EventID, len(g.mo)),
		rfOf:   make(map[EventID]EventID, len(g.rfOf)),
	}
	copy(c.events, g.events)
	for loc, order := range g.mo {
		cp := make([]EventID, len(order))
		copy(cp, order)
		c.mo[loc] = cp
	}
	for r, w := range g.rfOf {
		c.rfOf[r] = w
	}
	return c
}

func (g *Graph) valid(id EventID) bool {
	return id >= 0 && int(id) < len(g.events)
}

func (g *Graph) mustValid(id EventID, what string) {
	if !g.valid(id) {
		violationf("%s references unknown event e%d", what, id)
	}
}

// moLocs returns the locations with a non-empty mo, sorted for
// deterministic iteration.
func (g *Graph) moLocs() []ir.LocID {
	locs := make([]ir.LocID, 0, len(g.mo))
	for loc := range g.mo {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
	return locs
}

func copyEdges(in []Edge) []Edge {
	out := make([]Edge, len(in))
	copy(out, in)
	return out
}
