package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_WalksForward(t *testing.T) {
	step := StepUpload
	expected := []string{StepMap, StepPreview, StepConfirm, StepExecuted}

	for _, want := range expected {
		next, err := Advance(step)
		require.NoError(t, err)
		assert.Equal(t, want, next)
		step = next
	}

	// Из терминального шага пути вперед нет.
	_, err := Advance(StepExecuted)
	assert.Error(t, err)
}

func TestBack_EdgesAndResets(t *testing.T) {
	prev, reset, err := Back(StepMap)
	require.NoError(t, err)
	assert.Equal(t, StepUpload, prev)
	assert.Equal(t, ResetEverything, reset)

	prev, reset, err = Back(StepPreview)
	require.NoError(t, err)
	assert.Equal(t, StepMap, prev)
	assert.Equal(t, ResetPreview, reset)

	prev, reset, err = Back(StepConfirm)
	require.NoError(t, err)
	assert.Equal(t, StepPreview, prev)
	assert.Equal(t, ResetDecisions, reset)
}

func TestBack_IllegalEdges(t *testing.T) {
	_, _, err := Back(StepUpload)
	assert.Error(t, err)

	_, _, err = Back(StepExecuted)
	assert.Error(t, err)

	_, _, err = Back("nonsense")
	assert.Error(t, err)
}

func TestCanExecute(t *testing.T) {
	assert.True(t, CanExecute(StepConfirm))

	for _, step := range []string{StepUpload, StepMap, StepPreview, StepExecuted} {
		assert.False(t, CanExecute(step), "step %s", step)
	}
}

func TestStartOver(t *testing.T) {
	step, reset := StartOver()
	assert.Equal(t, StepUpload, step)
	assert.Equal(t, ResetEverything, reset)
}
