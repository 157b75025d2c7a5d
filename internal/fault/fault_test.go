package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameMismatchExactSets(t *testing.T) {
	err := NameMismatch("root", []string{"a", "b", "c"}, []string{"a", "c", "d"})
	require.NotNil(t, err)
	assert.Equal(t, CodeStructure, err.Code)
	assert.Equal(t, []string{"b"}, err.OnlyInTarget)
	assert.Equal(t, []string{"d"}, err.OnlyInOther)
	assert.Contains(t, err.Error(), "path=root")
}

func TestNameMismatchAgreeingSets(t *testing.T) {
	assert.Nil(t, NameMismatch("", []string{"a", "b"}, []string{"b", "a", "a"}))
}

func TestExtraNames(t *testing.T) {
	err := NewExtraNamesError("outer", []string{"z", "y", "z"})
	assert.Equal(t, CodeStructure, err.Code)
	assert.Equal(t, []string{"y", "z"}, err.OnlyInOther)
	assert.Empty(t, err.OnlyInTarget)
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("reduce plate: %w", NewInvariantError("%d tensors remain", 2))
	assert.Equal(t, CodeInvariant, CodeOf(err))
	assert.True(t, IsInvariant(err))
	assert.False(t, IsStructural(err))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsStructural(NewKindError("", "x", "tensor", "node")))
	assert.True(t, IsStructural(NewMissingEntryError("z")))
	assert.True(t, IsSupport(NewSupportError("", "x", "real", "positive")))
	assert.True(t, IsAxis(NewAxisError("x", "K#1(3)", "differs")))
	assert.True(t, IsAxis(NewContaminationError("x", "K#2(3)")))
}

func TestErrorFormatting(t *testing.T) {
	err := NewContaminationError("z", "K_w#4(3)")
	assert.Equal(t,
		"E205 AXIS_CONTAMINATION: entry carries an elimination axis owned by another entry (name=z, axis=K_w#4(3))",
		err.Error())
	assert.Equal(t, "UNKNOWN", Code("E999").Name())
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a", JoinPath("", "a"))
	assert.Equal(t, "a/b", JoinPath("a", "b"))
}
