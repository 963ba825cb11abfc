// Package memmodel implements the shared-memory subsystems: sequential
// consistency, total-store-order and partial-store-order.
//
// Each subsystem owns its store buffers and mediates every Load/Store and
// every buffer propagation, appending the corresponding events and rf/mo
// edges to the machine's execution graph as a side effect. Dispatch over
// the three models is static: there is no plugin surface.
package memmodel

import (
	"fmt"
	"strings"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/machine"
)

// Model selects a memory consistency model.
type Model int

const (
	// SC is sequential consistency: stores hit memory at issue.
	SC Model = iota

	// TSO is total-store-order: one FIFO store buffer per thread.
	TSO

	// PSO is partial-store-order: one FIFO store buffer per (thread,
	// location) pair; distinct locations may propagate out of issue order.
	PSO
)

// String returns the CLI spelling of the model.
func (m Model) String() string {
	switch m {
	case SC:
		return "SC"
	case TSO:
		return "TSO"
	case PSO:
		return "PSO"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel parses a CLI model name, case-insensitively.
func ParseModel(s string) (Model, error) {
	switch strings.ToUpper(s) {
	case "SC":
		return SC, nil
	case "TSO":
		return TSO, nil
	case "PSO":
		return PSO, nil
	default:
		return 0, fmt.Errorf("unknown memory model %q (want SC, TSO or PSO)", s)
	}
}

// Propagation identifies one enabled buffer-head propagation: the write at
// the head of one of thread Thread's buffers.
type Propagation struct {
	Thread ir.ThreadID
	Head   Entry
}

// Subsystem is the fixed capability set every memory model implements.
//
// IssueLoad, IssueStore and Propagate append events (and rf/mo/sw edges)
// to the state's graph; the caller never touches memory or buffers
// directly.
type Subsystem interface {
	Model() Model

	// AccessBlocked reports whether the memory-model's flush rule blocks
	// the instruction from firing: an SC-mode access under TSO/PSO is
	// enabled only once the issuing thread's buffer(s) are empty.
	AccessBlocked(t ir.ThreadID, in ir.Instr) bool

	// IssueLoad performs an enabled load: forwarded from the thread's own
	// buffer when a matching entry exists, else from shared memory.
	// Returns the value read and the appended read event.
	IssueLoad(st *machine.State, t ir.ThreadID, ld ir.Load, index int) (ir.Value, graph.EventID)

	// IssueStore performs an enabled store of an already-evaluated value.
	// Under SC the write reaches memory immediately; under TSO/PSO it is
	// enqueued. Returns the appended write event.
	IssueStore(st *machine.State, t ir.ThreadID, sto ir.Store, v ir.Value, index int) graph.EventID

	// Propagations lists the enabled buffer-head propagations for a
	// thread, in deterministic order (under PSO: by location, then head
	// age). Empty under SC.
	Propagations(t ir.ThreadID) []Propagation

	// Propagate moves the selected buffer head into shared memory,
	// extends mo with the originating write, and appends a PropagatedW
	// marker event. Returns the marker event.
	Propagate(st *machine.State, p Propagation) graph.EventID

	// BufferedWrites counts the pending writes a thread still holds
	// across all of its buffers.
	BufferedWrites(t ir.ThreadID) int
}

// New creates the subsystem for a model, sized for n threads.
func New(m Model, n int) Subsystem {
	switch m {
	case SC:
		return newSC()
	case TSO:
		return newTSO(n)
	case PSO:
		return newPSO(n)
	default:
		panic(fmt.Sprintf("unknown memory model %d", int(m)))
	}
}

// loadFromMemory reads a location from shared memory and wires the rf edge
// to the mo-maximal write, when one exists. A location never written reads
// the machine default 0 with no rf edge.
func loadFromMemory(st *machine.State, t ir.ThreadID, ld ir.Load, index int) (ir.Value, graph.EventID) {
	v := st.MemRead(ld.Loc)
	ev := st.Record(t, graph.Event{
		Index: index,
		Kind:  graph.KindRead,
		Loc:   ld.Loc,
		Value: v,
		Mode:  ld.Mode,
	})
	if w, ok := st.Graph.LastMO(ld.Loc); ok {
		st.Graph.AddRF(w, ev)
	}
	return v, ev
}
