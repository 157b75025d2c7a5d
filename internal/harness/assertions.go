package harness

import (
	"fmt"
	"math"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Plans    []PlanRecord
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Plans) > 0 {
		fmt.Fprintf(&buf, "\nPlans:\n")
		for _, p := range e.Plans {
			fmt.Fprintf(&buf, "  [%d] %s inputs=%d path=%v peak=%d\n", p.Seq, p.Signature, p.Inputs, p.Path, p.Peak)
		}
	}
	return buf.String()
}

func assertValue(r *Result, a Assertion) error {
	if r.Err != nil {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("value %v", a.Value),
			Actual:   fmt.Sprintf("error: %v", r.Err),
		}
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	if math.IsNaN(r.Value) || math.Abs(r.Value-a.Value) > tol {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%v ± %g", a.Value, tol),
			Actual:   fmt.Sprintf("%v", r.Value),
			Plans:    r.Plans,
		}
	}
	return nil
}

func assertError(r *Result, a Assertion) error {
	if r.Err == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: "error " + a.Code,
			Actual:   fmt.Sprintf("value %v", r.Value),
		}
	}
	if got := string(r.Code()); got != a.Code {
		return &AssertionError{
			Type:     AssertError,
			Expected: "error " + a.Code,
			Actual:   fmt.Sprintf("%v", r.Err),
		}
	}
	return nil
}

func assertPlans(r *Result, a Assertion) error {
	if len(r.Plans) != a.Count {
		return &AssertionError{
			Type:     AssertPlans,
			Expected: fmt.Sprintf("%d planning calls", a.Count),
			Actual:   fmt.Sprintf("%d planning calls", len(r.Plans)),
			Plans:    r.Plans,
		}
	}
	return nil
}

func assertPeak(r *Result, a Assertion) error {
	if peak := r.PeakOf(); peak > a.Max {
		return &AssertionError{
			Type:     AssertPeak,
			Expected: fmt.Sprintf("peak step size at most %d", a.Max),
			Actual:   fmt.Sprintf("peak %d", peak),
			Plans:    r.Plans,
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion against r and returns the
// messages of those that fail.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertValue:
			err = assertValue(r, a)
		case AssertError:
			err = assertError(r, a)
		case AssertPlans:
			err = assertPlans(r, a)
		case AssertPeak:
			err = assertPeak(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}
