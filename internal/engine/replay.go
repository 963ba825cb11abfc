package engine

import "fmt"

// Replay applies a recorded choice stream to a fresh engine.
//
// Replay is STRUCTURAL, not a special mode: it walks the same Enabled/
// Apply path as an interactive session, so two runs of the same programs
// under the same model, given the same sequence of action indices, yield
// byte-identical graphs and memory. That determinism is the contract the
// replay command and the scenario harness are built on.
//
// The stream may stop early (the session simply remains mid-flight) but an
// index that is not enabled at its position fails the whole replay.
func (e *Engine) Replay(choices []int) error {
	for pos, choice := range choices {
		if err := e.Apply(choice); err != nil {
			return fmt.Errorf("replay step %d (choice %d): %w", pos, choice, err)
		}
	}
	return nil
}
