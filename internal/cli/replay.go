package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/weft/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Model    string
	Programs string
	Script   string
	GraphOut string
	Database string
}

// ChoiceScript is the YAML shape of a recorded choice stream.
type ChoiceScript struct {
	// Choices are action indices, applied in order against each prompt's
	// enabled-action list.
	Choices []int `yaml:"choices"`
}

// ReplayResult is the final-state payload printed after a replay.
type ReplayResult struct {
	Model     string             `json:"model"`
	Steps     int                `json:"steps"`
	Memory    map[string]int64   `json:"memory"`
	Registers []map[string]int64 `json:"registers"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a recorded choice stream non-interactively",
		Long: `Apply a recorded choice stream non-interactively.

The script is a YAML file with a single "choices" list of action indices.
Replay walks the same enabled/apply path as an interactive session, so
the same programs, model and choices always yield the same final memory,
registers and graph.

Example:
  weft replay -m TSO -p t0.litmus,t1.litmus --script choices.yaml --graph out.dot`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "memory model: SC, TSO or PSO (required)")
	cmd.Flags().StringVarP(&opts.Programs, "programs", "p", "", "comma-separated program paths (required)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "YAML choice script (required)")
	cmd.Flags().StringVar(&opts.GraphOut, "graph", "", "write the final graph as DOT to this path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the finished trace into this SQLite database")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("programs")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	script, err := loadChoiceScript(opts.Script)
	if err != nil {
		return WrapExitError(ExitUsageError, "invalid choice script", err)
	}

	eng, err := buildEngine(opts.Model, opts.Programs)
	if err != nil {
		return err
	}

	if err := eng.Replay(script.Choices); err != nil {
		var re *engine.RuntimeError
		if errors.As(err, &re) && re.Code != engine.ErrCodeInvalidChoice {
			return WrapExitError(ExitRuntimeError, "replay aborted", err)
		}
		return WrapExitError(ExitUsageError, "replay failed", err)
	}

	if opts.GraphOut != "" {
		if err := writeGraphFile(opts.GraphOut, eng); err != nil {
			return WrapExitError(ExitUsageError, "failed to write graph", err)
		}
	}
	if opts.Database != "" {
		if err := recordTrace(cmd.Context(), opts.Database, eng); err != nil {
			return WrapExitError(ExitUsageError, "failed to record trace", err)
		}
	}

	return printReplayResult(opts, cmd, eng, len(script.Choices))
}

// loadChoiceScript reads and strictly decodes a YAML choice script.
func loadChoiceScript(path string) (*ChoiceScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read choice script: %w", err)
	}
	var script ChoiceScript
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("parse choice script: %w", err)
	}
	return &script, nil
}

func writeGraphFile(path string, eng *engine.Engine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return eng.State().GraphSnapshot().WriteDOT(f)
}

func printReplayResult(opts *ReplayOptions, cmd *cobra.Command, eng *engine.Engine, steps int) error {
	st := eng.State()
	result := ReplayResult{
		Model:  eng.Model().String(),
		Steps:  steps,
		Memory: make(map[string]int64),
	}
	for loc, v := range st.MemorySnapshot() {
		result.Memory[string(loc)] = v
	}
	for t := 0; t < eng.Threads(); t++ {
		regs := make(map[string]int64)
		for r, v := range st.RegistersOf(t) {
			regs[string(r)] = v
		}
		result.Registers = append(result.Registers, regs)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: out}
		return formatter.Success(result)
	}

	fmt.Fprintf(out, "model: %s, steps applied: %d\n", result.Model, result.Steps)
	fmt.Fprintln(out, "memory:")
	for _, loc := range st.SortedLocs() {
		fmt.Fprintf(out, "  %s: %d\n", loc, st.MemorySnapshot()[loc])
	}
	for t := 0; t < eng.Threads(); t++ {
		fmt.Fprintf(out, "thread %d registers:\n", t)
		regs := st.RegistersOf(t)
		for _, r := range st.SortedRegs(t) {
			fmt.Fprintf(out, "  %s: %d\n", r, regs[r])
		}
	}
	return nil
}
