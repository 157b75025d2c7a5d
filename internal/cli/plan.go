package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/alan/internal/harness"
	"github.com/roach88/alan/internal/store"
)

// PlanReport lists the contraction plans of one scenario run.
type PlanReport struct {
	Scenario string               `json:"scenario"`
	RunID    string               `json:"run_id"`
	Plans    []harness.PlanRecord `json:"plans"`
	Peak     int                  `json:"peak"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlanCommand(&EvalOptions{RootOptions: rootOpts})
}

func newPlanCommand(opts *EvalOptions) *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "plan [scenario-file]",
		Short: "Show contraction plans",
		Long: `Show the contraction plan chosen for every reduction step of a scenario.

Each row is one planning call: its incidence signature, how many tensors
and elimination axes it combined, the chosen path, and its cost as the
largest and total element count of the intermediate steps.

With --stored, lists the plans memoized in --plans-db instead.

Examples:
  alan plan nested.yaml --optimizer greedy
  alan plan --stored --plans-db ./plans.db`,
		Args: func(cmd *cobra.Command, args []string) error {
			if stored {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stored {
				return runStoredPlans(cmd, opts)
			}
			return runPlan(cmd, opts, args[0])
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&stored, "stored", false, "list plans memoized in --plans-db")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *EvalOptions, path string) error {
	s, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	e, err := newEvaluator(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := e.run(ctx, s)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to evaluate scenario", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if r.Err != nil {
		if err := out.Error(string(r.Code()), r.Err.Error(), nil); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "evaluation failed", r.Err)
	}

	report := PlanReport{Scenario: r.Scenario, RunID: r.RunID, Plans: r.Plans, Peak: r.PeakOf()}
	if out.IsJSON() {
		return out.Response(CLIResponse{Status: "ok", RunID: r.RunID, Data: report})
	}
	return writePlanText(out.Writer, report)
}

func writePlanText(w io.Writer, report PlanReport) error {
	fmt.Fprintf(w, "Plans for %s (peak %d)\n\n", report.Scenario, report.Peak)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSIGNATURE\tINPUTS\tELIM\tPEAK\tTOTAL\tPATH")
	for _, p := range report.Plans {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%v\n",
			p.Seq, p.Signature, p.Inputs, p.Eliminate, p.Peak, p.Total, p.Path)
	}
	return tw.Flush()
}

func runStoredPlans(cmd *cobra.Command, opts *EvalOptions) error {
	if opts.PlansDB == "" {
		return NewExitError(ExitCommandError, "--stored requires --plans-db")
	}
	st, err := store.Open(opts.PlansDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open plan store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	plans, err := st.ReadPlans(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read plans", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		return out.Success(plans)
	}
	if len(plans) == 0 {
		fmt.Fprintln(out.Writer, "No stored plans.")
		return nil
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSIGNATURE\tOPTIMIZER\tHITS\tRUN\tPATH")
	for _, p := range plans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%v\n", p.Seq, shortSig(p.Signature), p.Optimizer, p.Hits, p.RunID, p.Path)
	}
	return tw.Flush()
}

func shortSig(sig string) string {
	if len(sig) > 12 {
		return sig[:12]
	}
	return sig
}
