package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/alan/internal/checker"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/model"
)

// CheckResult is the JSON payload of a successful check.
type CheckResult struct {
	Target   []string `json:"target"`
	Proposal []string `json:"proposal"`
	Observed []string `json:"observed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <model-dir>",
		Short: "Check a proposal against its target",
		Long: `Check that a proposal model is structurally consistent with its target.

The directory holds CUE files defining target, proposal and optional data.
Names must line up level by level (target = proposal + observed data),
kinds must agree, and distributions must share supports.

Exit codes:
  0 - Models are consistent
  1 - Models are inconsistent
  2 - Models could not be loaded

Examples:
  alan check ./model
  alan check ./model --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, opts *RootOptions, dir string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	spec, err := model.LoadDir(dir)
	if err != nil {
		var ce *model.CompileError
		if errors.As(err, &ce) {
			details := map[string]string{"field": ce.Field}
			if ce.Pos.IsValid() {
				details["position"] = ce.Pos.String()
			}
			if outErr := out.Error("E_COMPILE", ce.Message, details); outErr != nil {
				return outErr
			}
		}
		return WrapExitError(ExitCommandError, "failed to load models", err)
	}

	if err := checker.Check(spec.Target, spec.Proposal, spec.Data); err != nil {
		var fe *fault.Error
		if !errors.As(err, &fe) {
			return WrapExitError(ExitCommandError, "check failed", err)
		}
		if outErr := out.Error(string(fe.Code), fe.Error(), faultDetails(fe)); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "models are inconsistent", err)
	}

	if out.IsJSON() {
		return out.Success(CheckResult{
			Target:   spec.Target.Names(),
			Proposal: spec.Proposal.Names(),
			Observed: spec.Data.Observed(),
		})
	}
	fmt.Fprintf(out.Writer, "✓ proposal is consistent with target (%d target, %d proposal, %d observed)\n",
		len(spec.Target.Names()), len(spec.Proposal.Names()), len(spec.Data.Observed()))
	return nil
}

func faultDetails(fe *fault.Error) map[string]any {
	d := map[string]any{}
	if fe.Path != "" {
		d["path"] = fe.Path
	}
	if fe.Name != "" {
		d["name"] = fe.Name
	}
	if len(fe.OnlyInTarget) > 0 {
		d["only_in_target"] = fe.OnlyInTarget
	}
	if len(fe.OnlyInOther) > 0 {
		d["only_in_other"] = fe.OnlyInOther
	}
	for k, v := range fe.Details {
		d[k] = v
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
