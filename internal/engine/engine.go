// Package engine implements the weft step engine.
//
// The engine is single-threaded and cooperative: the ISA's "threads" are
// abstract, not host goroutines. Every transition is atomic from the
// machine state's perspective; user I/O happens strictly between steps at
// the front end. The core surface is pure: Enabled() enumerates the
// fireable actions for the current configuration, Apply(i) advances
// exactly the chosen one.
//
// INVARIANTS:
//   - The enabled-action list order is deterministic given the state:
//     threads ascending; within a thread the local step precedes the
//     propagations; under PSO propagations order by (location, head age).
//   - Choosing the same index from the same state always produces the
//     same successor state.
//   - A failed apply (arithmetic error, unknown label, invalid choice)
//     leaves the machine state untouched.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/machine"
	"github.com/roach88/weft/internal/memmodel"
)

// Engine drives one interpreter session: fixed programs, one memory model,
// one mutable machine state.
type Engine struct {
	programs []ir.Program
	state    *machine.State
	mem      memmodel.Subsystem

	runToken string
	choices  []int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator overrides the run-token generator (for testing).
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(e *Engine) {
		e.runToken = gen.Generate()
	}
}

// New creates an engine over the launched programs. Thread ids are the
// program positions. The run token defaults to a fresh UUIDv7.
func New(model memmodel.Model, programs []ir.Program, opts ...Option) *Engine {
	e := &Engine{
		programs: programs,
		state:    machine.NewState(len(programs)),
		mem:      memmodel.New(model, len(programs)),
		runToken: UUIDv7Generator{}.Generate(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the session's memory model.
func (e *Engine) Model() memmodel.Model { return e.mem.Model() }

// RunToken returns the token identifying this session in recorded traces.
func (e *Engine) RunToken() string { return e.runToken }

// Choices returns the action indices applied so far, in order. Feeding the
// same slice to Replay on a fresh engine reproduces this session exactly.
func (e *Engine) Choices() []int {
	out := make([]int, len(e.choices))
	copy(out, e.choices)
	return out
}

// State returns the live machine state. Callers outside the engine must
// treat it as read-only and prefer the snapshot projections.
func (e *Engine) State() *machine.State { return e.state }

// Program returns the program running on thread t.
func (e *Engine) Program(t ir.ThreadID) ir.Program { return e.programs[t] }

// Threads returns the number of launched threads.
func (e *Engine) Threads() int { return len(e.programs) }

// finished reports whether thread t has walked past its last instruction.
func (e *Engine) finished(t ir.ThreadID) bool {
	return e.state.Threads[t].PC >= e.programs[t].Len()
}

// Enabled computes the global enabled-action list in its stable order.
//
// Per unfinished thread: the next instruction, unless the memory model's
// SC-flush rule blocks it, then one propagation per non-empty buffer head.
// A thread with an empty buffer and pc past end contributes nothing; the
// session terminates when the list is empty.
func (e *Engine) Enabled() []Action {
	var actions []Action
	for t := range e.programs {
		if !e.finished(t) {
			li := e.programs[t].At(e.state.Threads[t].PC)
			if !e.mem.AccessBlocked(t, li.Instr) {
				actions = append(actions, Action{
					Kind:   ActionStep,
					Thread: t,
					Instr:  li,
					Label:  fmt.Sprintf("Thread %d, line %d: %s", t, li.Index, li),
				})
			}
		}
		for _, p := range e.mem.Propagations(t) {
			origin := e.programs[t].At(p.Head.Index)
			actions = append(actions, Action{
				Kind:   ActionPropagate,
				Thread: t,
				Prop:   p,
				Label:  fmt.Sprintf("Thread %d: propagate write (line %d: %s)", t, p.Head.Index, origin),
			})
		}
	}
	return actions
}

// Done reports whether no thread contributes any enabled action.
func (e *Engine) Done() bool { return len(e.Enabled()) == 0 }

// Apply fires the enabled action at index i and advances the machine.
//
// The index maps one-to-one onto the current Enabled() order. On any
// returned error the machine state is unchanged.
func (e *Engine) Apply(i int) error {
	actions := e.Enabled()
	if i < 0 || i >= len(actions) {
		return &RuntimeError{
			Code:    ErrCodeInvalidChoice,
			Message: fmt.Sprintf("action index %d out of range [0, %d)", i, len(actions)),
		}
	}
	a := actions[i]

	var ev graph.EventID
	switch a.Kind {
	case ActionPropagate:
		ev = e.mem.Propagate(e.state, a.Prop)
	case ActionStep:
		var err error
		ev, err = e.step(a.Thread, a.Instr)
		if err != nil {
			return err
		}
	}

	e.choices = append(e.choices, i)
	slog.Debug("action applied",
		"choice", i,
		"thread", a.Thread,
		"action", a.Label,
		"event", int(ev),
	)
	return nil
}

// step fires one instruction on thread t. pc advances per the apply rules;
// the memory subsystem appends the memory events and rf/mo/sw edges, the
// engine appends the Local events for Assign and IfGoto.
func (e *Engine) step(t ir.ThreadID, li ir.LabeledInstr) (graph.EventID, error) {
	ts := &e.state.Threads[t]
	switch in := li.Instr.(type) {
	case ir.Assign:
		v, err := ir.EvalExpr(in.Expr, func(r ir.RegID) ir.Value {
			return e.state.Register(t, r)
		})
		if err != nil {
			if errors.Is(err, ir.ErrDivideByZero) {
				return graph.NoEvent, &RuntimeError{
					Code:    ErrCodeArithmetic,
					Message: err.Error(),
					Thread:  t,
					Index:   li.Index,
					Err:     err,
				}
			}
			return graph.NoEvent, err
		}
		e.state.SetRegister(t, in.Dst, v)
		ev := e.state.Record(t, graph.Event{Index: li.Index, Kind: graph.KindLocal})
		ts.PC++
		return ev, nil

	case ir.IfGoto:
		next := ts.PC + 1
		if e.state.Register(t, in.Cond) != 0 {
			target, err := e.programs[t].ResolveLabel(t, in.Target)
			if err != nil {
				return graph.NoEvent, &RuntimeError{
					Code:    ErrCodeUnknownLabel,
					Message: fmt.Sprintf("branch target %q not found", in.Target),
					Thread:  t,
					Index:   li.Index,
					Err:     err,
				}
			}
			next = target
		}
		ev := e.state.Record(t, graph.Event{Index: li.Index, Kind: graph.KindLocal})
		ts.PC = next
		return ev, nil

	case ir.Load:
		v, ev := e.mem.IssueLoad(e.state, t, in, li.Index)
		e.state.SetRegister(t, in.Dst, v)
		ts.PC++
		return ev, nil

	case ir.Store:
		v := e.state.Register(t, in.Src)
		ev := e.mem.IssueStore(e.state, t, in, v, li.Index)
		ts.PC++
		return ev, nil

	default:
		return graph.NoEvent, fmt.Errorf("unknown instruction type %T", li.Instr)
	}
}

// BufferedWrites counts thread t's pending writes. Exposed for the
// buffer-discipline assertions in tests and for diagnostics.
func (e *Engine) BufferedWrites(t ir.ThreadID) int {
	return e.mem.BufferedWrites(t)
}
