package harness

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden-file form of a Result. Floats are printed with
// ten significant digits so snapshots survive last-bit differences.
type Snapshot struct {
	Scenario  string            `json:"scenario"`
	RunID     string            `json:"run_id"`
	Mode      string            `json:"mode"`
	Value     string            `json:"value,omitempty"`
	Error     string            `json:"error,omitempty"`
	Plans     []PlanRecord      `json:"plans"`
	Gradients map[string]string `json:"gradients,omitempty"`
	Pass      bool              `json:"pass"`
}

// NewSnapshot converts a result to its snapshot form.
func NewSnapshot(r *Result) Snapshot {
	s := Snapshot{
		Scenario: r.Scenario,
		RunID:    r.RunID,
		Mode:     r.Mode,
		Plans:    r.Plans,
		Pass:     r.Pass,
	}
	if r.Err != nil {
		s.Error = string(r.Code())
		if s.Error == "" {
			s.Error = r.Err.Error()
		}
	} else {
		s.Value = formatFloat(r.Value)
	}
	if len(r.Gradients) > 0 {
		s.Gradients = make(map[string]string, len(r.Gradients))
		for k, v := range r.Gradients {
			s.Gradients[k] = formatFloat(v)
		}
	}
	return s
}

// MarshalSnapshot renders a snapshot as indented JSON with sorted map keys.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()
	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	data, err := MarshalSnapshot(NewSnapshot(result))
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
