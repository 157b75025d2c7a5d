package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one evaluation.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is an optional fixed run ID. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Model is an optional CUE file holding target, proposal and data
	// descriptors. When set, the structural checker runs before evaluation.
	// Relative paths resolve against the scenario file.
	Model string `yaml:"model,omitempty"`

	// Axes maps each axis name to its size.
	Axes map[string]int `yaml:"axes"`

	// Target is the root of the target tree. It must have no plates.
	Target NodeSpec `yaml:"target"`

	// Proposal is the optional root of the proposal tree.
	Proposal *NodeSpec `yaml:"proposal,omitempty"`

	// Gradients requests the reverse pass; Result.Gradients then holds the
	// sum of each leaf's gradient.
	Gradients bool `yaml:"gradients,omitempty"`

	// Assertions validate the result.
	Assertions []Assertion `yaml:"assertions"`
}

// NodeSpec describes one tree level.
type NodeSpec struct {
	// Plates lists the plate axes in scope, outermost first.
	Plates []string `yaml:"plates,omitempty"`

	// Entries maps names to leaves or sub-nodes.
	Entries map[string]EntrySpec `yaml:"entries"`
}

// EntrySpec is a leaf tensor (axes plus values or fill) or, when Entries
// is set, a nested node.
type EntrySpec struct {
	Axes   []string  `yaml:"axes,omitempty"`
	K      string    `yaml:"k,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
	Fill   *FillSpec `yaml:"fill,omitempty"`

	Plates  []string             `yaml:"plates,omitempty"`
	Entries map[string]EntrySpec `yaml:"entries,omitempty"`
}

// IsNode reports whether the entry describes a nested node.
func (e EntrySpec) IsNode() bool { return e.Entries != nil }

// Node returns the nested node of a node entry.
func (e EntrySpec) Node() NodeSpec {
	return NodeSpec{Plates: e.Plates, Entries: e.Entries}
}

// FillSpec generates deterministic values with testutil.Fill.
type FillSpec struct {
	Seed  float64 `yaml:"seed"`
	Scale float64 `yaml:"scale,omitempty"`
}

// Assertion validates a result.
type Assertion struct {
	// Type is one of value, error, plans, peak.
	Type string `yaml:"type"`

	// Value and Tolerance are used by value.
	Value     float64 `yaml:"value,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Code is the expected fault code, used by error.
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of planning calls, used by plans.
	Count int `yaml:"count,omitempty"`

	// Max bounds the largest step of any plan, used by peak.
	Max int `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertValue = "value"
	AssertError = "error"
	AssertPlans = "plans"
	AssertPeak  = "peak"
)

// DefaultTolerance is the value tolerance when an assertion gives none.
const DefaultTolerance = 1e-9

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and a relative Model path is resolved against the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Model != "" && !filepath.IsAbs(s.Model) {
		s.Model = filepath.Join(filepath.Dir(path), s.Model)
	}
	if s.Model != "" {
		if _, err := os.Stat(s.Model); err != nil {
			return nil, fmt.Errorf("invalid scenario: model file: %w", err)
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and that every
// axis reference resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Axes) == 0 {
		return fmt.Errorf("axes map is required and must be non-empty")
	}
	for _, name := range sortedNames(s.Axes) {
		if s.Axes[name] < 1 {
			return fmt.Errorf("axes.%s: size must be at least 1, got %d", name, s.Axes[name])
		}
	}
	if len(s.Target.Plates) > 0 {
		return fmt.Errorf("target: root node must have no plates")
	}
	if err := validateNode("target", s.Target, s.Axes); err != nil {
		return err
	}
	if s.Proposal != nil {
		if err := validateNode("proposal", *s.Proposal, s.Axes); err != nil {
			return err
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(path string, n NodeSpec, axes map[string]int) error {
	for _, p := range n.Plates {
		if _, ok := axes[p]; !ok {
			return fmt.Errorf("%s: unknown plate axis %q", path, p)
		}
	}
	for _, name := range sortedNames(n.Entries) {
		e := n.Entries[name]
		at := path + "." + name
		if e.IsNode() {
			if len(e.Axes) > 0 || e.K != "" || e.Values != nil || e.Fill != nil {
				return fmt.Errorf("%s: a node entry takes only plates and entries", at)
			}
			if err := validateNode(at, e.Node(), axes); err != nil {
				return err
			}
			continue
		}
		if len(e.Plates) > 0 {
			return fmt.Errorf("%s: plates given on a leaf entry", at)
		}
		if (e.Values == nil) == (e.Fill == nil) {
			return fmt.Errorf("%s: exactly one of values or fill is required", at)
		}
		for _, a := range e.Axes {
			if _, ok := axes[a]; !ok {
				return fmt.Errorf("%s: unknown axis %q", at, a)
			}
		}
		if e.K != "" {
			if _, ok := axes[e.K]; !ok {
				return fmt.Errorf("%s: unknown elimination axis %q", at, e.K)
			}
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertValue:
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	case AssertPlans:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for plans", index)
		}
	case AssertPeak:
		if a.Max < 1 {
			return fmt.Errorf("assertions[%d]: max must be positive for peak", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
