package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/weft/internal/compiler"
	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/ir"
	"github.com/roach88/weft/internal/memmodel"
	"github.com/roach88/weft/internal/testutil"
)

// Result holds the engine after a scenario run, for assertions and golden
// snapshots.
type Result struct {
	Engine *engine.Engine
}

// Run parses the scenario's programs, builds a fresh engine with a fixed
// run token, and applies the choice stream. Scenario runs are fully
// deterministic: same scenario, same Result.
func Run(sc *Scenario) (*Result, error) {
	model, err := memmodel.ParseModel(sc.Model)
	if err != nil {
		return nil, err
	}

	programs := make([]ir.Program, 0, len(sc.Programs))
	for t, text := range sc.Programs {
		p, err := compiler.ParseProgram(strings.NewReader(text), fmt.Sprintf("%s/thread-%d", sc.Name, t))
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	eng := engine.New(model, programs,
		engine.WithTokenGenerator(testutil.NewFixedTokenGenerator("run-"+sc.Name)))
	if err := eng.Replay(sc.Choices); err != nil {
		return nil, err
	}
	return &Result{Engine: eng}, nil
}
