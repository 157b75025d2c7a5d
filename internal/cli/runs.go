package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/alan/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	PlansDB  string
	Scenario string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded evaluation runs",
		Long: `List the evaluation runs recorded in a plan store, oldest first.

Examples:
  alan runs --plans-db ./plans.db
  alan runs --plans-db ./plans.db --scenario nested --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.PlansDB, "plans-db", "", "path to the plan store (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")
	_ = cmd.MarkFlagRequired("plans-db")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	st, err := store.Open(opts.PlansDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open plan store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := st.ReadRuns(ctx, opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		return out.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSCENARIO\tOPTIMIZER\tSTEPS\tHITS\tVALUE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Seq, r.ID, r.Scenario, r.Optimizer, r.Steps, r.PlansHit, strconv.FormatFloat(r.Value, 'g', 10, 64))
	}
	return tw.Flush()
}
