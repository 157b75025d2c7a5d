package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/roach88/alan/internal/harness"
	"github.com/roach88/alan/internal/planner"
	"github.com/roach88/alan/internal/reduce"
	"github.com/roach88/alan/internal/store"
)

// EvalOptions holds the evaluation flags shared by eval and plan.
type EvalOptions struct {
	*RootOptions
	Optimizer string
	Policy    string
	Parallel  int
	PlansDB   string

	// RunIDs overrides the UUIDv7 run ID generator (for testing).
	RunIDs harness.RunIDGenerator
}

func (o *EvalOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Optimizer, "optimizer", "auto", "contraction-order optimizer (auto|greedy|optimal)")
	cmd.Flags().StringVar(&o.Policy, "policy", "recompute", "reverse-pass memory policy (recompute|retain)")
	cmd.Flags().IntVar(&o.Parallel, "parallel", 1, "sibling sub-trees reduced at once")
	cmd.Flags().StringVar(&o.PlansDB, "plans-db", "", "SQLite database memoizing contraction paths across runs")
}

// evaluator runs scenarios with the configured optimizer, policy and plan
// store.
type evaluator struct {
	opts      *EvalOptions
	optimizer planner.Optimizer
	policy    reduce.Policy
	store     *store.Store
}

func newEvaluator(opts *EvalOptions) (*evaluator, error) {
	opt, ok := planner.ByName(opts.Optimizer)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown optimizer %q: must be one of auto, greedy, optimal", opts.Optimizer))
	}
	policy, err := parsePolicy(opts.Policy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --policy", err)
	}
	if opts.Parallel < 1 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be at least 1, got %d", opts.Parallel))
	}
	if opts.RunIDs == nil {
		opts.RunIDs = harness.UUIDv7Generator{}
	}

	e := &evaluator{opts: opts, optimizer: opt, policy: policy}
	if opts.PlansDB != "" {
		slog.Info("opening plan store", "path", opts.PlansDB)
		st, err := store.Open(opts.PlansDB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open plan store", err)
		}
		e.store = st
	}
	return e, nil
}

func (e *evaluator) Close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		slog.Error("error closing plan store", "error", err)
	}
}

// run evaluates one scenario under a fresh run ID. With a plan store,
// paths are memoized in it and the run is recorded.
func (e *evaluator) run(ctx context.Context, s *harness.Scenario) (*harness.Result, error) {
	runID := e.opts.RunIDs.Generate()
	hopts := []harness.Option{
		harness.WithOptimizer(e.optimizer),
		harness.WithPolicy(e.policy),
		harness.WithParallelism(e.opts.Parallel),
		harness.WithRunIDGenerator(fixedRunID(runID)),
		harness.WithLogger(slog.Default()),
	}

	var cache *countingCache
	if e.store != nil {
		cache = &countingCache{PathCache: e.store.Plans(runID)}
		hopts = append(hopts, harness.WithPlanCache(cache))
	}

	slog.Debug("evaluating scenario", "scenario", s.Name, "run", runID, "optimizer", e.opts.Optimizer)
	result, err := harness.Run(ctx, s, hopts...)
	if err != nil {
		return nil, err
	}

	if e.store != nil && result.Err == nil {
		err := e.store.WriteRun(ctx, store.Run{
			ID:        runID,
			Scenario:  s.Name,
			Optimizer: e.opts.Optimizer,
			Value:     result.Value,
			Steps:     len(result.Plans),
			PlansHit:  cache.hits.Load(),
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func parsePolicy(s string) (reduce.Policy, error) {
	for _, p := range []reduce.Policy{reduce.Recompute, reduce.Retain} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q: must be recompute or retain", s)
}

type fixedRunID string

func (id fixedRunID) Generate() string { return string(id) }

// countingCache counts plan-store hits for the run record.
type countingCache struct {
	planner.PathCache
	hits atomic.Int64
}

func (c *countingCache) LoadPath(ctx context.Context, key planner.PlanKey) (planner.Path, bool, error) {
	p, ok, err := c.PathCache.LoadPath(ctx, key)
	if ok {
		c.hits.Add(1)
	}
	return p, ok, err
}

// ScenarioResult is the outcome of one scenario in eval output.
type ScenarioResult struct {
	Name   string   `json:"name"`
	RunID  string   `json:"run_id,omitempty"`
	Mode   string   `json:"mode,omitempty"`
	Value  *float64 `json:"value,omitempty"`
	Code   string   `json:"code,omitempty"`
	Plans  int      `json:"plans"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// EvalResult is the overall eval outcome.
type EvalResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvalCommand(&EvalOptions{RootOptions: rootOpts})
}

func newEvalCommand(opts *EvalOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "eval <scenario-file-or-dir>...",
		Short: "Evaluate scenarios",
		Long: `Evaluate scenario files and check their assertions.

Each scenario is built into target (and proposal) trees and reduced to a
scalar: the log-evidence when a proposal is present, the plain reduction
otherwise. Every run gets a UUIDv7 run ID. With --plans-db, contraction
paths are memoized across runs and each run is recorded.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad flags, etc.)

Examples:
  alan eval ./scenarios
  alan eval ./scenarios --filter "nested*" --optimizer optimal
  alan eval evidence.yaml --plans-db ./plans.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args, filter)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions, args []string, filter string) error {
	var files []string
	for _, arg := range args {
		found, err := findScenarioFiles(arg, filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	e, err := newEvaluator(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	result := EvalResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, f := range files {
		sr := evalFile(cmd.Context(), e, f)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_EVAL_FAILED", Message: fmt.Sprintf("%d scenario(s) failed", result.Failed)}
		}
		if err := out.Response(resp); err != nil {
			return err
		}
	} else {
		writeEvalText(out, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func evalFile(ctx context.Context, e *evaluator, path string) ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(path),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	r, err := e.run(ctx, s)
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:   r.Scenario,
		RunID:  r.RunID,
		Mode:   r.Mode,
		Plans:  len(r.Plans),
		Pass:   r.Pass,
		Errors: r.Errors,
	}
	if r.Err != nil {
		sr.Code = string(r.Code())
		if sr.Code == "" {
			sr.Code = r.Err.Error()
		}
	} else {
		v := r.Value
		sr.Value = &v
	}
	return sr
}

func writeEvalText(out *OutputFormatter, result EvalResult) {
	w := out.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		var outcome string
		switch {
		case sr.Value != nil:
			outcome = "value=" + strconv.FormatFloat(*sr.Value, 'g', 10, 64)
		case sr.Code != "":
			outcome = "error=" + sr.Code
		}
		fmt.Fprintf(w, "%s %s", mark, sr.Name)
		if outcome != "" {
			fmt.Fprintf(w, "  %s  plans=%d  run=%s", outcome, sr.Plans, sr.RunID)
		}
		fmt.Fprintln(w)
		for _, e := range sr.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Eval Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}

// findScenarioFiles returns path itself if it is a file, or every YAML file
// under it if it is a directory. filter is matched against file names
// without extension.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}
