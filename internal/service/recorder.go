package service

import (
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
)

// ObjectiveMark is the flat mark awarded per correct objective answer,
// independent of the exam's declared total marks (original system
// behavior, kept as-is).
const ObjectiveMark = 1.0

// Classification is the grading outcome of a single recorded answer.
// IsCorrect stays nil for free-text answers: they are pending manual
// grading and never auto-scored here.
type Classification struct {
	IsCorrect    *bool
	MarksAwarded float64
}

// Pending reports whether the answer awaits manual grading.
func (c Classification) Pending() bool {
	return c.IsCorrect == nil
}

// Classify grades a submitted answer against a paper item's copied correct
// answer. Objective answers compare by literal string equality — no
// trimming, no case folding. The paper item's copy is authoritative, so
// question edits after assembly cannot change the outcome.
func Classify(item repository.GradablePaperItem, answer string) Classification {
	if item.Kind != model.QuestionKindObjective {
		return Classification{}
	}

	correct := answer == item.CorrectAnswer
	cls := Classification{IsCorrect: &correct}
	if correct {
		cls.MarksAwarded = ObjectiveMark
	}
	return cls
}
