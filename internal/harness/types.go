package harness

import (
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/planner"
)

// PlanRecord is one planning call made during a run.
type PlanRecord struct {
	Seq       int64        `json:"seq"`
	Signature string       `json:"signature"`
	Inputs    int          `json:"inputs"`
	Eliminate int          `json:"eliminate"`
	Path      planner.Path `json:"path"`
	Peak      int          `json:"peak"`
	Total     int          `json:"total"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string `json:"scenario"`
	RunID    string `json:"run_id"`

	// Mode is "reduce" without a proposal and "evidence" with one.
	Mode string `json:"mode"`

	// Value is the evaluated scalar. Meaningful only if Err is nil.
	Value float64 `json:"value"`

	// Err is the evaluation failure, if any. Structural and numerical
	// failures are outcomes, checked by error assertions, not run errors.
	Err error `json:"-"`

	// Plans holds every planning call in the order made.
	Plans []PlanRecord `json:"plans"`

	// Gradients maps each leaf path to the sum of its gradient. Filled
	// only when the scenario requests gradients.
	Gradients map[string]float64 `json:"gradients,omitempty"`

	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Errors lists failed assertions. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario, runID string) *Result {
	return &Result{
		Scenario: scenario,
		RunID:    runID,
		Plans:    []PlanRecord{},
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Code returns the fault code of Err, or "" if the run succeeded or failed
// for another reason.
func (r *Result) Code() fault.Code {
	return fault.CodeOf(r.Err)
}

// PeakOf returns the largest step cost across all plans.
func (r *Result) PeakOf() int {
	peak := 0
	for _, p := range r.Plans {
		peak = max(peak, p.Peak)
	}
	return peak
}
