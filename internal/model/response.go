package model

import (
	"time"

	"github.com/google/uuid"
)

// Response is a student's recorded answer to one paper item. One response
// exists per (session, paper item) pair; re-recording within the submit
// transaction overwrites. IsCorrect stays nil for free-text answers until
// manual grading.
type Response struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	PaperItemID  uuid.UUID `json:"paper_item_id"`
	Answer       string    `json:"answer"`
	IsCorrect    *bool     `json:"is_correct,omitempty"`
	MarksAwarded float64   `json:"marks_awarded"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// SessionResult holds the objective score for one session. Upserted by the
// grading pass inside the submit transaction; manual grading of free-text
// answers happens downstream and is not reflected here.
type SessionResult struct {
	SessionID      uuid.UUID `json:"session_id"`
	ObjectiveScore float64   `json:"objective_score"`
	UpdatedAt      time.Time `json:"updated_at"`
}
