package graph

import (
	"fmt"

	"github.com/roach88/weft/internal/ir"
)

// EventID indexes an event in the arena. IDs are assigned in append order
// starting at 0 and are never reused.
type EventID int

// NoEvent is the zero-ish sentinel for "no event", used for po chaining
// before a thread has issued anything.
const NoEvent EventID = -1

// Kind classifies an event.
type Kind int

const (
	// KindLocal is a register assignment or a branch.
	KindLocal Kind = iota

	// KindRead is a load from shared memory or a store buffer.
	KindRead

	// KindWrite is a store at its issue point.
	KindWrite

	// KindPropagatedWrite marks a buffered write reaching shared memory.
	KindPropagatedWrite
)

// String returns the short tag used in DOT labels.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "Local"
	case KindRead:
		return "R"
	case KindWrite:
		return "W"
	case KindPropagatedWrite:
		return "PropW"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one node of the execution graph.
//
// Loc, Value and Mode are meaningful only for memory events. For a
// KindPropagatedWrite event, Origin is the KindWrite event whose buffered
// value reached memory; for all other kinds Origin is NoEvent.
type Event struct {
	ID     EventID
	Thread ir.ThreadID
	Index  int // instruction index within the thread's program
	Kind   Kind
	Loc    ir.LocID
	Value  ir.Value
	Mode   ir.AccessMode
	Origin EventID
}

// Label renders the event for menus, diagnostics and DOT nodes.
func (e Event) Label() string {
	switch e.Kind {
	case KindRead:
		return fmt.Sprintf("e%d: T%d R(%s)%s=%d", e.ID, e.Thread, e.Mode, e.Loc, e.Value)
	case KindWrite:
		return fmt.Sprintf("e%d: T%d W(%s)%s=%d", e.ID, e.Thread, e.Mode, e.Loc, e.Value)
	case KindPropagatedWrite:
		return fmt.Sprintf("e%d: T%d PropW %s=%d", e.ID, e.Thread, e.Loc, e.Value)
	default:
		return fmt.Sprintf("e%d: T%d Local", e.ID, e.Thread)
	}
}
