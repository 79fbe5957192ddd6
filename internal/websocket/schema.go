package websocket

import (
	"time"

	"github.com/google/uuid"
)

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventPing      Event = "ping"
	EventViolation Event = "violation"
)

// ViolationEvent is broadcast on an exam's monitor channel whenever a
// student's session accrues a proctoring violation. Faculty monitor
// connections receive it verbatim.
type ViolationEvent struct {
	Event          Event     `json:"event"`
	ExamID         uuid.UUID `json:"exam_id"`
	SessionID      uuid.UUID `json:"session_id"`
	StudentID      int       `json:"student_id"`
	Kind           string    `json:"kind"`
	ViolationCount int       `json:"violation_count"`
	Directive      string    `json:"directive"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ErrorResponse is sent before closing a connection that cannot be served.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PingMessage keeps idle monitor connections alive through proxies.
type PingMessage struct {
	Event Event `json:"event"`
}
