package model

import (
	"github.com/google/uuid"
)

// QuestionKind distinguishes auto-gradable questions from free-text ones.
type QuestionKind string

const (
	QuestionKindObjective QuestionKind = "OBJECTIVE"
	QuestionKindFreeText  QuestionKind = "FREE_TEXT"
)

// Question belongs to exactly one exam. Objective questions carry an
// ordered option list and exactly one correct option; free-text questions
// carry neither.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	QuestionText  string       `json:"question_text"`
	Kind          QuestionKind `json:"kind"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption string       `json:"correct_option,omitempty"`
	OrderNum      int          `json:"order_num"`
}
