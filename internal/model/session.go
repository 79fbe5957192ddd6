package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session lifecycle states. This service
// drives IN_PROGRESS -> SUBMITTED; GRADED belongs to the downstream review
// workflow.
type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "SCHEDULED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusGraded     SessionStatus = "GRADED"
)

// ExamSession is one student's single attempt at one exam. At most one
// session may exist per (exam, student) pair; the storage layer enforces
// this with a unique constraint.
type ExamSession struct {
	ID               uuid.UUID     `json:"id"`
	ExamID           uuid.UUID     `json:"exam_id"`
	StudentID        int           `json:"student_id"`
	Status           SessionStatus `json:"status"`
	PaperFingerprint string        `json:"paper_fingerprint"`
	IntegrityScore   float64       `json:"integrity_score"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
}

// PaperItem is one delivered question instance. The kind and correct answer
// are copied from the question at assembly time so later question edits
// cannot change grading for in-flight sessions. Immutable after creation.
type PaperItem struct {
	ID            uuid.UUID    `json:"id"`
	SessionID     uuid.UUID    `json:"session_id"`
	QuestionID    uuid.UUID    `json:"question_id"`
	Position      int          `json:"position"`
	Kind          QuestionKind `json:"-"`
	CorrectAnswer string       `json:"-"`
}

// PaperEntry is a paper item as delivered to the student. It never carries
// the correct answer.
type PaperEntry struct {
	PaperItemID  uuid.UUID    `json:"paper_item_id"`
	QuestionText string       `json:"question_text"`
	Kind         QuestionKind `json:"kind"`
	Options      []string     `json:"options,omitempty"`
}

// SessionState is the recovery payload for a reloaded exam page: answers
// autosaved so far plus the remaining time in seconds.
type SessionState struct {
	SessionID        uuid.UUID         `json:"session_id"`
	AutosavedAnswers map[string]string `json:"autosaved_answers"`
	RemainingSeconds float64           `json:"remaining_seconds"`
}

// SubmittedAnswer is one (paper item, answer) pair in a submission. The
// answer value is a plain string for both objective and free-text kinds.
type SubmittedAnswer struct {
	PaperItemID uuid.UUID `json:"paper_item_id" binding:"required"`
	Answer      string    `json:"answer"`
}

// SubmitSessionRequest is the payload for submitting a session, either
// manually or after a FORCE_SUBMIT directive.
type SubmitSessionRequest struct {
	Responses []SubmittedAnswer `json:"responses" binding:"dive"`
	Forced    bool              `json:"forced"`
}

// AutosaveAnswerRequest buffers a single in-progress answer. Autosaved
// answers live in Redis only; they become Response rows at submission.
type AutosaveAnswerRequest struct {
	PaperItemID uuid.UUID `json:"paper_item_id" binding:"required"`
	Answer      string    `json:"answer" binding:"required,max=10000"`
}
