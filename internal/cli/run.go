package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/weft/internal/compiler"
	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/memmodel"
	"github.com/roach88/weft/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Model    string
	Programs string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive interpreter session",
		Long: `Run an interactive interpreter session over one program per thread.

At each prompt the interpreter lists every enabled action across all
threads - local steps, memory accesses and store-buffer propagations -
and advances only the one you pick, letting you walk any feasible
interleaving under the selected memory model.

Example:
  weft run -m TSO -p t0.litmus,t1.litmus
  weft run -m PSO -p prog.litmus --db traces.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "memory model: SC, TSO or PSO (required)")
	cmd.Flags().StringVarP(&opts.Programs, "programs", "p", "", "comma-separated program paths, one thread each (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the finished trace into this SQLite database")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("programs")

	return cmd
}

func runInteractive(opts *RunOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	eng, err := buildEngine(opts.Model, opts.Programs)
	if err != nil {
		return err
	}
	slog.Info("session starting",
		"model", eng.Model().String(),
		"threads", eng.Threads(),
		"run_token", eng.RunToken(),
	)

	session := &Session{
		Engine: eng,
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
	}
	runErr := session.Run()

	// Record the trace even after a runtime fault: the partial graph is
	// still valid up to the failed step.
	if opts.Database != "" {
		if err := recordTrace(cmd.Context(), opts.Database, eng); err != nil {
			slog.Error("trace recording failed", "error", err)
			if runErr == nil {
				return WrapExitError(ExitUsageError, "failed to record trace", err)
			}
		}
	}

	if runErr != nil {
		var re *engine.RuntimeError
		if errors.As(runErr, &re) {
			return WrapExitError(ExitRuntimeError, "session aborted", runErr)
		}
		return WrapExitError(ExitUsageError, "session failed", runErr)
	}
	return nil
}

// buildEngine parses the model and program list shared by run and replay.
func buildEngine(model, programs string, opts ...engine.Option) (*engine.Engine, error) {
	m, err := memmodel.ParseModel(model)
	if err != nil {
		return nil, WrapExitError(ExitUsageError, "invalid memory model", err)
	}

	var paths []string
	for _, p := range strings.Split(programs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, NewExitError(ExitUsageError, "no program paths given")
	}

	progs, err := compiler.LoadPrograms(paths)
	if err != nil {
		var pe *compiler.ParseError
		if errors.As(err, &pe) {
			return nil, WrapExitError(ExitParseError, "program parse failed", err)
		}
		return nil, WrapExitError(ExitParseError, "cannot load programs", err)
	}

	return engine.New(m, progs, opts...), nil
}

// recordTrace writes the session's graph into the trace log.
func recordTrace(ctx context.Context, path string, eng *engine.Engine) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open trace database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing trace database", "error", closeErr)
		}
	}()

	if err := st.RecordRun(ctx, eng.RunToken(), eng.Model().String(), eng.State().GraphSnapshot()); err != nil {
		return err
	}
	slog.Info("trace recorded", "db", path, "run_token", eng.RunToken())
	return nil
}

// configureLogging installs the slog handler; stderr keeps stdout clean
// for the prompt and menus.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
