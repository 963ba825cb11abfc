// Package harness executes declarative interpreter scenarios in tests.
//
// A scenario fixes the memory model, the per-thread programs, and a choice
// stream, then asserts on the final registers, memory, buffers and graph.
// Scenario files are YAML, validated against an embedded CUE schema before
// strict decoding.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one deterministic interpreter run.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files use it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the memory model: SC, TSO or PSO.
	Model string `yaml:"model"`

	// Programs holds one inline program text per thread, indexed by
	// position, same as the -p launch list.
	Programs []string `yaml:"programs"`

	// Choices is the action-index stream applied against each prompt's
	// enabled-action list.
	Choices []int `yaml:"choices"`

	// Assertions validate the final state.
	// Supported types: register, memory, buffered, edge, event_count.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "register": thread's register holds Expect
	// - "memory": location holds Expect
	// - "buffered": thread holds Count pending writes
	// - "edge": the graph contains an edge of Kind from From to To
	// - "event_count": the graph holds exactly Count events
	Type string `yaml:"type"`

	// Thread scopes register and buffered assertions.
	Thread int `yaml:"thread,omitempty"`

	// Register is the register name (register assertions).
	Register string `yaml:"register,omitempty"`

	// Location is the memory location name (memory assertions).
	Location string `yaml:"location,omitempty"`

	// Expect is the expected value (register and memory assertions).
	Expect int64 `yaml:"expect,omitempty"`

	// Kind is the edge kind: po, rf, mo, sw or fr (edge assertions).
	Kind string `yaml:"kind,omitempty"`

	// From and To are event ids (edge assertions).
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// Count is the expected count (buffered and event_count assertions).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRegister   = "register"
	AssertMemory     = "memory"
	AssertBuffered   = "buffered"
	AssertEdge       = "edge"
	AssertEventCount = "event_count"
)

// LoadScenario reads, schema-validates and strictly parses a scenario
// YAML file. Unknown fields (typos) and schema violations are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario validates and decodes scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	// Schema first: CUE rejects wrong shapes with positioned errors
	// before the decoder ever runs.
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("scenario schema violation: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks the cross-field constraints the schema cannot.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Programs) == 0 {
		return fmt.Errorf("programs list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertRegister:
		if a.Register == "" {
			return fmt.Errorf("assertions[%d]: register is required for register", index)
		}
	case AssertMemory:
		if a.Location == "" {
			return fmt.Errorf("assertions[%d]: location is required for memory", index)
		}
	case AssertBuffered:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for buffered", index)
		}
	case AssertEdge:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for edge", index)
		}
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
