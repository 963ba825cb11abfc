package harness

import (
	"fmt"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
)

// Verify evaluates the scenario's assertions against the result.
// Returns one error per failed assertion; an empty slice means the
// scenario passed.
func (r *Result) Verify(sc *Scenario) []error {
	var failures []error
	for i, a := range sc.Assertions {
		if err := r.check(&a); err != nil {
			failures = append(failures, fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err))
		}
	}
	return failures
}

func (r *Result) check(a *Assertion) error {
	st := r.Engine.State()
	switch a.Type {
	case AssertRegister:
		got := st.Register(a.Thread, ir.RegID(a.Register))
		if got != a.Expect {
			return fmt.Errorf("thread %d %s = %d, want %d", a.Thread, a.Register, got, a.Expect)
		}

	case AssertMemory:
		got := st.MemRead(ir.LocID(a.Location))
		if got != a.Expect {
			return fmt.Errorf("memory %s = %d, want %d", a.Location, got, a.Expect)
		}

	case AssertBuffered:
		got := r.Engine.BufferedWrites(a.Thread)
		if got != a.Count {
			return fmt.Errorf("thread %d holds %d buffered writes, want %d", a.Thread, got, a.Count)
		}

	case AssertEdge:
		if !hasEdge(st.GraphSnapshot(), a.Kind, a.From, a.To) {
			return fmt.Errorf("no %s edge e%d->e%d", a.Kind, a.From, a.To)
		}

	case AssertEventCount:
		got := st.GraphSnapshot().Len()
		if got != a.Count {
			return fmt.Errorf("graph holds %d events, want %d", got, a.Count)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func hasEdge(g *graph.Graph, kind string, from, to int) bool {
	var edges []graph.Edge
	switch kind {
	case "po":
		edges = g.PO()
	case "rf":
		edges = g.RF()
	case "mo":
		edges = g.MO()
	case "sw":
		edges = g.SW()
	case "fr":
		edges = g.FR()
	}
	for _, e := range edges {
		if int(e.From) == from && int(e.To) == to {
			return true
		}
	}
	return false
}
