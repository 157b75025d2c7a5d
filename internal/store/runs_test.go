package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ReadRuns(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	require.NoError(t, s.WriteRun(ctx, Run{ID: "a", Scenario: "single", Optimizer: "auto", Value: -1.25, Steps: 2}))
	require.NoError(t, s.WriteRun(ctx, Run{ID: "b", Scenario: "nested", Optimizer: "greedy", Value: -3.5, Steps: 4, PlansHit: 2}))
	require.NoError(t, s.WriteRun(ctx, Run{ID: "a", Scenario: "ignored", Value: 9}))

	runs, err = s.ReadRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, "single", runs[0].Scenario)
	assert.InDelta(t, -1.25, runs[0].Value, 0)
	assert.Less(t, runs[0].Seq, runs[1].Seq)

	runs, err = s.ReadRuns(ctx, "nested")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(2), runs[0].PlansHit)
	assert.Equal(t, 4, runs[0].Steps)
}
