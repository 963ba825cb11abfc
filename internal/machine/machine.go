// Package machine holds the mutable interpreter state: per-thread register
// files and program counters, the shared memory, and the execution graph.
//
// Mutation happens only through the step engine and the memory subsystem.
// Front ends get read-only snapshots that do not alias live state.
package machine

import (
	"sort"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
)

// ThreadState is one thread's local state.
//
// A thread is finished when PC has walked past the last instruction of its
// program. Registers are created on first assignment; reads of absent
// registers yield 0.
type ThreadState struct {
	PC        int
	Registers map[ir.RegID]ir.Value

	// LastEvent is the po predecessor for the thread's next event,
	// NoEvent before the thread has acted.
	LastEvent graph.EventID
}

// State is the global machine configuration.
type State struct {
	Threads []ThreadState
	Mem     map[ir.LocID]ir.Value
	Graph   *graph.Graph
}

// NewState creates the initial configuration for n threads: all program
// counters at 0, empty register files, empty memory, empty graph.
func NewState(n int) *State {
	threads := make([]ThreadState, n)
	for i := range threads {
		threads[i] = ThreadState{
			Registers: make(map[ir.RegID]ir.Value),
			LastEvent: graph.NoEvent,
		}
	}
	return &State{
		Threads: threads,
		Mem:     make(map[ir.LocID]ir.Value),
		Graph:   graph.New(),
	}
}

// Register reads a register, defaulting to 0 when never assigned.
// Uninitialized reads produce no graph edge: the value is the machine
// default, not any write's.
func (s *State) Register(t ir.ThreadID, r ir.RegID) ir.Value {
	return s.Threads[t].Registers[r]
}

// SetRegister writes a register, creating it on first assignment.
func (s *State) SetRegister(t ir.ThreadID, r ir.RegID, v ir.Value) {
	s.Threads[t].Registers[r] = v
}

// MemRead reads a shared location, defaulting to 0 when never written.
func (s *State) MemRead(loc ir.LocID) ir.Value {
	return s.Mem[loc]
}

// MemWrite writes a shared location, creating it lazily.
func (s *State) MemWrite(loc ir.LocID, v ir.Value) {
	s.Mem[loc] = v
}

// Record appends an event for thread t to the graph, chains the po edge
// from the thread's previous event, and advances the po cursor.
// Every action a thread performs, including buffer propagations, enters
// its po chain this way.
func (s *State) Record(t ir.ThreadID, e graph.Event) graph.EventID {
	e.Thread = t
	id := s.Graph.Append(e)
	s.Graph.AddPO(s.Threads[t].LastEvent, id)
	s.Threads[t].LastEvent = id
	return id
}

// RegistersOf returns a copy of a thread's register file. Only registers
// assigned at least once appear.
func (s *State) RegistersOf(t ir.ThreadID) map[ir.RegID]ir.Value {
	out := make(map[ir.RegID]ir.Value, len(s.Threads[t].Registers))
	for r, v := range s.Threads[t].Registers {
		out[r] = v
	}
	return out
}

// MemorySnapshot returns a copy of shared memory: loc -> value for all
// initialized locations.
func (s *State) MemorySnapshot() map[ir.LocID]ir.Value {
	out := make(map[ir.LocID]ir.Value, len(s.Mem))
	for loc, v := range s.Mem {
		out[loc] = v
	}
	return out
}

// GraphSnapshot returns a deep copy of the execution graph.
func (s *State) GraphSnapshot() *graph.Graph {
	return s.Graph.Clone()
}

// SortedLocs returns the initialized locations in lexicographic order,
// for deterministic dumps.
func (s *State) SortedLocs() []ir.LocID {
	locs := make([]ir.LocID, 0, len(s.Mem))
	for loc := range s.Mem {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
	return locs
}

// SortedRegs returns a thread's assigned registers in lexicographic order.
func (s *State) SortedRegs(t ir.ThreadID) []ir.RegID {
	regs := make([]ir.RegID, 0, len(s.Threads[t].Registers))
	for r := range s.Threads[t].Registers {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
	return regs
}
