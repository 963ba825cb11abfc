package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/weft/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Run      string // optional - dump one run instead of listing
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded execution traces",
		Long: `Inspect execution traces recorded by run/replay with --db.

Without --run, lists all recorded runs. With --run, dumps that run's
event arena and edge sets.

Example:
  weft trace --db traces.db
  weft trace --db traces.db --run 0190b5a2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace database (required)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token to dump")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitUsageError, "failed to open trace database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Run == "" {
		return listRuns(ctx, opts, cmd, st)
	}
	return dumpRun(ctx, opts, cmd, st)
}

func listRuns(ctx context.Context, opts *TraceOptions, cmd *cobra.Command, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitUsageError, "failed to list runs", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: out}
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  model=%s  events=%d\n", r.Token, r.Model, r.EventCount)
	}
	return nil
}

func dumpRun(ctx context.Context, opts *TraceOptions, cmd *cobra.Command, st *store.Store) error {
	trace, err := st.ReadRun(ctx, opts.Run)
	if err != nil {
		return WrapExitError(ExitUsageError, "failed to read run", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: out}
		return formatter.Success(trace)
	}

	fmt.Fprintf(out, "run %s  model=%s  events=%d\n", trace.Run.Token, trace.Run.Model, trace.Run.EventCount)
	for _, e := range trace.Events {
		switch e.Kind {
		case "Local":
			fmt.Fprintf(out, "  e%d  T%d line %d  %s\n", e.ID, e.Thread, e.Index, e.Kind)
		default:
			fmt.Fprintf(out, "  e%d  T%d line %d  %s(%s) %s=%d\n", e.ID, e.Thread, e.Index, e.Kind, e.Mode, e.Loc, e.Value)
		}
	}
	for _, edge := range trace.Edges {
		fmt.Fprintf(out, "  e%d -%s-> e%d\n", edge.Src, edge.Kind, edge.Dst)
	}
	return nil
}
