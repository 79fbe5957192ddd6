package paper

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/model"
)

func objectiveQuestion(text, correct string, options ...string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionText:  text,
		Kind:          model.QuestionKindObjective,
		Options:       options,
		CorrectOption: correct,
	}
}

func samplePool(n int) []model.Question {
	pool := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, objectiveQuestion("q", "A", "A", "B", "C", "D"))
	}
	return pool
}

func TestAssemble_EmptyPool(t *testing.T) {
	a := NewAssembler()
	_, _, err := a.Assemble(nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindResourceExhausted, apperr.KindOf(err))
}

func TestAssemble_FullPermutation(t *testing.T) {
	pool := samplePool(20)
	a := NewAssembler()

	items, fp, err := a.Assemble(pool)
	require.NoError(t, err)
	assert.Len(t, items, len(pool))
	assert.Len(t, fp, 64) // hex-encoded 256-bit digest

	// Every pool question appears exactly once, with its kind and correct
	// answer copied into the item.
	seen := make(map[uuid.UUID]int)
	for _, it := range items {
		seen[it.QuestionID]++
		assert.Equal(t, model.QuestionKindObjective, it.Kind)
		assert.Equal(t, "A", it.CorrectAnswer)
	}
	for _, q := range pool {
		assert.Equal(t, 1, seen[q.ID])
	}
}

func TestAssemble_SeededDeterminism(t *testing.T) {
	pool := samplePool(10)

	itemsA, fpA, err := NewSeededAssembler(42).Assemble(pool)
	require.NoError(t, err)
	itemsB, fpB, err := NewSeededAssembler(42).Assemble(pool)
	require.NoError(t, err)

	assert.Equal(t, itemsA, itemsB)
	assert.Equal(t, fpA, fpB)
}

func TestAssemble_DifferentSeedsDifferentFingerprints(t *testing.T) {
	pool := samplePool(10)

	_, fpA, err := NewSeededAssembler(1).Assemble(pool)
	require.NoError(t, err)
	_, fpB, err := NewSeededAssembler(2).Assemble(pool)
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)
}

func TestFingerprint_StableUnderReserialization(t *testing.T) {
	items := []Item{
		{QuestionID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), CorrectAnswer: "A"},
		{QuestionID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), CorrectAnswer: "B"},
	}

	fp1, err := Fingerprint(items)
	require.NoError(t, err)
	fp2, err := Fingerprint(items)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	// Order is part of the content.
	reversed := []Item{items[1], items[0]}
	fp3, err := Fingerprint(reversed)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestAssemble_RejectsMalformedObjective(t *testing.T) {
	a := NewAssembler()

	tooFew := []model.Question{objectiveQuestion("q", "A", "A")}
	_, _, err := a.Assemble(tooFew)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	missingCorrect := []model.Question{objectiveQuestion("q", "Z", "A", "B")}
	_, _, err = a.Assemble(missingCorrect)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAssemble_FreeTextSkipsOptionValidation(t *testing.T) {
	pool := []model.Question{{
		ID:           uuid.New(),
		QuestionText: "Explain the water cycle.",
		Kind:         model.QuestionKindFreeText,
	}}

	items, _, err := NewAssembler().Assemble(pool)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.QuestionKindFreeText, items[0].Kind)
	assert.Empty(t, items[0].CorrectAnswer)
}
