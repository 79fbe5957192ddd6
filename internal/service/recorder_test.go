package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
)

func objectiveItem(correct string) repository.GradablePaperItem {
	return repository.GradablePaperItem{
		Kind:          model.QuestionKindObjective,
		CorrectAnswer: correct,
	}
}

func TestClassify_ObjectiveExactMatch(t *testing.T) {
	cls := Classify(objectiveItem("Paris"), "Paris")

	require.NotNil(t, cls.IsCorrect)
	assert.True(t, *cls.IsCorrect)
	assert.Equal(t, ObjectiveMark, cls.MarksAwarded)
	assert.False(t, cls.Pending())
}

func TestClassify_ObjectiveMismatch(t *testing.T) {
	cls := Classify(objectiveItem("Paris"), "London")

	require.NotNil(t, cls.IsCorrect)
	assert.False(t, *cls.IsCorrect)
	assert.Zero(t, cls.MarksAwarded)
}

func TestClassify_ComparisonIsLiteral(t *testing.T) {
	// No trimming or case folding: near-misses are incorrect.
	for _, submitted := range []string{"paris", "Paris ", " Paris", "PARIS"} {
		cls := Classify(objectiveItem("Paris"), submitted)
		require.NotNil(t, cls.IsCorrect)
		assert.False(t, *cls.IsCorrect, "submitted %q", submitted)
		assert.Zero(t, cls.MarksAwarded)
	}
}

func TestClassify_FreeTextPending(t *testing.T) {
	item := repository.GradablePaperItem{Kind: model.QuestionKindFreeText}
	cls := Classify(item, "The water cycle describes...")

	assert.Nil(t, cls.IsCorrect)
	assert.Zero(t, cls.MarksAwarded)
	assert.True(t, cls.Pending())
}
