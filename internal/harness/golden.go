package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario, verifies its assertions, and compares
// the final graph's DOT rendering against a golden file stored in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for the determinism property: the
// same programs, model and choice stream must yield a byte-identical
// graph on every run.
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		t.Fatalf("scenario %s failed: %v", sc.Name, err)
	}
	for _, failure := range result.Verify(sc) {
		t.Errorf("scenario %s: %v", sc.Name, failure)
	}

	var buf bytes.Buffer
	if err := result.Engine.State().GraphSnapshot().WriteDOT(&buf); err != nil {
		t.Fatalf("scenario %s: render DOT: %v", sc.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, buf.Bytes())
}
