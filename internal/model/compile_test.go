package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hierarchical = `
target: plate: {
	mu: dist: {family: "Normal", support: "real"}
	scales: group: {
		a: {family: "HalfNormal", support: "positive"}
		b: {family: "HalfNormal", support: "positive"}
	}
	obs_plate: plate: {
		z: dist: {family: "Categorical", support: "integer_interval(0, 3)"}
		x: dist: {family: "Normal", support: "real"}
	}
}
proposal: plate: {
	mu: dist: {family: "Normal", support: "real"}
	scales: group: {
		a: {support: "positive"}
		b: {support: "positive"}
	}
	obs_plate: plate: {
		z: dist: {support: "integer_interval(0,3)"}
	}
}
data: {
	obs_plate: {
		x: [0.1, 0.4, -0.3]
	}
}
`

func TestCompileString(t *testing.T) {
	spec, err := CompileString(hierarchical, "model.cue")
	require.NoError(t, err)

	assert.Equal(t, []string{"mu", "obs_plate", "scales"}, spec.Target.Names())
	assert.Equal(t, []string{"mu", "obs_plate", "scales"}, spec.Proposal.Names())

	e, ok := spec.Target.Entry("scales")
	require.True(t, ok)
	require.Equal(t, KindGroup, e.Kind())
	assert.Equal(t, []string{"a", "b"}, e.Group().Names())

	e, ok = spec.Target.Entry("obs_plate")
	require.True(t, ok)
	require.Equal(t, KindPlate, e.Kind())
	z, ok := e.Plate().Entry("z")
	require.True(t, ok)
	assert.Equal(t, "Categorical", z.Dist().Family)

	assert.Empty(t, spec.Data.Observed())
	assert.Equal(t, []string{"obs_plate"}, spec.Data.PlateNames())
	assert.Equal(t, []string{"x"}, spec.Data.Sub("obs_plate").Observed())
}

func TestCompileStringWithoutData(t *testing.T) {
	spec, err := CompileString(`
target: plate: {a: dist: support: "real"}
proposal: plate: {a: dist: support: "real"}
`, "nodata.cue")
	require.NoError(t, err)
	assert.Empty(t, spec.Data.Observed())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing proposal",
			src:   `target: plate: {a: dist: support: "real"}`,
			field: "proposal",
		},
		{
			name:  "root not a plate",
			src:   "target: dist: support: \"real\"\nproposal: plate: {}",
			field: "target",
		},
		{
			name:  "ambiguous entry",
			src:   "target: plate: {a: {dist: support: \"real\", plate: {}}}\nproposal: plate: {}",
			field: "a",
		},
		{
			name:  "missing support",
			src:   "target: plate: {a: dist: family: \"Normal\"}\nproposal: plate: {}",
			field: "a",
		},
		{
			name:  "empty group",
			src:   "target: plate: {g: group: {}}\nproposal: plate: {}",
			field: "g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src, "bad.cue")
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSyntaxErrorHasPosition(t *testing.T) {
	_, err := CompileString("target: plate: {\n\ta: dist: support: \n", "broken.cue")
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "broken.cue")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte("package test\n"+hierarchical), 0o644))

	spec, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, spec.Target.Len())
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, err = LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}
