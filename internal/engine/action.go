package engine

import (
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/memmodel"
)

// ActionKind distinguishes the two enabled-action categories.
type ActionKind int

const (
	// ActionStep fires the thread's next instruction.
	ActionStep ActionKind = iota

	// ActionPropagate moves one buffer head into shared memory.
	ActionPropagate
)

// Action is one entry of the enabled-action menu. The numeric index shown
// to the user is the action's position in the Enabled() slice; the slice
// order is deterministic given the machine state, so choosing the same
// index from the same state always produces the same successor state.
type Action struct {
	Kind   ActionKind
	Thread ir.ThreadID

	// Instr is the instruction about to fire (ActionStep only).
	Instr ir.LabeledInstr

	// Prop selects the buffer head to drain (ActionPropagate only).
	Prop memmodel.Propagation

	// Label is the menu line rendered for the action.
	Label string
}

// String returns the menu rendering.
func (a Action) String() string { return a.Label }
