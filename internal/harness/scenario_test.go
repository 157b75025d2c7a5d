package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: One latent, no plates.
axes:
  K: 2
target:
  entries:
    z: {axes: [K], k: K, values: [-1.0, -2.0]}
assertions:
  - type: plans
    count: 1
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, map[string]int{"K": 2}, s.Axes)
	require.Contains(t, s.Target.Entries, "z")
	z := s.Target.Entries["z"]
	assert.False(t, z.IsNode())
	assert.Equal(t, "K", z.K)
	assert.Equal(t, []float64{-1.0, -2.0}, z.Values)
	assert.Nil(t, s.Proposal)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertPlans, s.Assertions[0].Type)
}

func TestParseScenario_NestedEntries(t *testing.T) {
	content := `
name: nested
description: A plate holding one latent.
axes: {p: 2, K: 3}
target:
  entries:
    plate:
      plates: [p]
      entries:
        z: {axes: [p, K], k: K, fill: {seed: 0.5, scale: 1.5}}
assertions:
  - type: peak
    max: 6
`
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)

	plate := s.Target.Entries["plate"]
	require.True(t, plate.IsNode())
	n := plate.Node()
	assert.Equal(t, []string{"p"}, n.Plates)
	require.NotNil(t, n.Entries["z"].Fill)
	assert.Equal(t, 0.5, n.Entries["z"].Fill.Seed)
	assert.Equal(t, 1.5, n.Entries["z"].Fill.Scale)
}

func TestParseScenario_UnknownField(t *testing.T) {
	content := minimalScenario + "unexpected: true\n"
	_, err := ParseScenario([]byte(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "unexpected")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: plans}]\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: plans}]\n",
			want:    "description is required",
		},
		{
			name:    "no axes",
			content: "name: n\ndescription: d\ntarget: {entries: {}}\nassertions: [{type: plans}]\n",
			want:    "axes map is required",
		},
		{
			name:    "zero size axis",
			content: "name: n\ndescription: d\naxes: {K: 0}\ntarget: {entries: {}}\nassertions: [{type: plans}]\n",
			want:    "axes.K: size must be at least 1",
		},
		{
			name:    "plated root",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {plates: [K], entries: {}}\nassertions: [{type: plans}]\n",
			want:    "root node must have no plates",
		},
		{
			name:    "unknown axis",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {z: {axes: [J], values: [0]}}}\nassertions: [{type: plans}]\n",
			want:    `target.z: unknown axis "J"`,
		},
		{
			name:    "unknown elimination axis",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {z: {axes: [K], k: J, values: [0, 0]}}}\nassertions: [{type: plans}]\n",
			want:    `unknown elimination axis "J"`,
		},
		{
			name:    "unknown plate axis",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {s: {plates: [p], entries: {}}}}\nassertions: [{type: plans}]\n",
			want:    `target.s: unknown plate axis "p"`,
		},
		{
			name:    "values and fill",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {z: {axes: [K], values: [0, 0], fill: {seed: 1}}}}\nassertions: [{type: plans}]\n",
			want:    "exactly one of values or fill",
		},
		{
			name:    "neither values nor fill",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {z: {axes: [K]}}}\nassertions: [{type: plans}]\n",
			want:    "exactly one of values or fill",
		},
		{
			name:    "node entry with axes",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {s: {axes: [K], entries: {}}}}\nassertions: [{type: plans}]\n",
			want:    "a node entry takes only plates and entries",
		},
		{
			name:    "leaf with plates",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {z: {plates: [K], axes: [K], values: [0, 0]}}}\nassertions: [{type: plans}]\n",
			want:    "plates given on a leaf entry",
		},
		{
			name:    "proposal unknown axis",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nproposal: {entries: {z: {axes: [J], values: [0]}}}\nassertions: [{type: plans}]\n",
			want:    `proposal.z: unknown axis "J"`,
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\n",
			want:    "assertions list is required",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{count: 1}]\n",
			want:    "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: trace}]\n",
			want:    `unknown assertion type "trace"`,
		},
		{
			name:    "error without code",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: error}]\n",
			want:    "code is required for error",
		},
		{
			name:    "negative tolerance",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: value, tolerance: -1}]\n",
			want:    "tolerance must be non-negative",
		},
		{
			name:    "peak without max",
			content: "name: n\ndescription: d\naxes: {K: 2}\ntarget: {entries: {}}\nassertions: [{type: peak}]\n",
			want:    "max must be positive for peak",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesModelPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "m.cue"), []byte("target: plate: {}\n"), 0644))

	path := filepath.Join(dir, "s.yaml")
	content := minimalScenario + "model: models/m.cue\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models", "m.cue"), s.Model)
}

func TestLoadScenario_MissingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	content := minimalScenario + "model: nowhere.cue\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			s, err := LoadScenario(f)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
		})
	}
}
