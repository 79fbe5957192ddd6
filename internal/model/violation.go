package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationKind is a client-reported proctoring integrity event type.
type ViolationKind string

const (
	ViolationTabSwitch      ViolationKind = "TAB_SWITCH"
	ViolationFocusLoss      ViolationKind = "FOCUS_LOSS"
	ViolationFullscreenExit ViolationKind = "FULLSCREEN_EXIT"
)

// ViolationRecord is one entry in a session's append-only violation log.
type ViolationRecord struct {
	ID         int64         `json:"id"`
	SessionID  uuid.UUID     `json:"session_id"`
	StudentID  int           `json:"student_id"`
	Kind       ViolationKind `json:"kind"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Directive is the proctoring monitor's instruction to the client after a
// violation report.
type Directive string

const (
	DirectiveWarn        Directive = "WARN"
	DirectiveForceSubmit Directive = "FORCE_SUBMIT"
)

// ReportViolationRequest is the payload for reporting a proctoring event.
// Timestamp is optional; the server fills in the receive time when absent.
type ReportViolationRequest struct {
	Kind      string     `json:"kind" binding:"required,oneof=TAB_SWITCH FOCUS_LOSS FULLSCREEN_EXIT"`
	Timestamp *time.Time `json:"timestamp"`
}
