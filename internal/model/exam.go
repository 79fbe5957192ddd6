package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an exam definition authored by a faculty member. It becomes
// immutable (outside the owning faculty's authoring flow) once the first
// session references it.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	FacultyID       int        `json:"faculty_id"`
	Title           string     `json:"title"`
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduled_end,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalMarks      int        `json:"total_marks"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
