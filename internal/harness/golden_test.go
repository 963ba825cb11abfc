package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGoldenScenarios runs every scenario fixture and compares its graph
// DOT rendering against the checked-in golden file.
func TestGoldenScenarios(t *testing.T) {
	scenarios := []string{
		"testdata/scenarios/tso-store-forwarding.yaml",
		"testdata/scenarios/pso-reorder.yaml",
		"testdata/scenarios/release-acquire-sync.yaml",
	}
	for _, path := range scenarios {
		sc, err := LoadScenario(path)
		require.NoError(t, err, path)
		t.Run(sc.Name, func(t *testing.T) {
			RunWithGolden(t, sc)
		})
	}
}
