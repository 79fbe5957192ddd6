package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/database"
	"github.com/oerms/oerms-backend/internal/logger"
	"github.com/oerms/oerms-backend/internal/model"
)

// Seeds a demo faculty/student cohort with an exam ready to sit:
// approved enrollments for students 1-10 under faculty 1, plus a mixed
// objective/free-text question pool.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	const facultyID = 1

	fmt.Println("=== Seeding demo enrollments ===")
	enrolled := 0
	for studentID := 1; studentID <= 10; studentID++ {
		_, err := pool.Exec(ctx,
			`INSERT INTO enrollments (student_id, faculty_id, status)
			 VALUES ($1, $2, 'APPROVED')
			 ON CONFLICT (student_id, faculty_id) DO UPDATE SET status = 'APPROVED'`,
			studentID, facultyID)
		if err != nil {
			fmt.Printf("Error enrolling student %d: %v\n", studentID, err)
			continue
		}
		enrolled++
	}
	fmt.Printf("Enrolled %d students with faculty %d\n", enrolled, facultyID)

	fmt.Println("=== Seeding demo exam ===")
	var examID uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO exams (faculty_id, title, duration_minutes, total_marks)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		facultyID, "Demo: Foundations of Computing", 45, 5).Scan(&examID)
	if err != nil {
		fmt.Printf("Error creating exam: %v\n", err)
		return
	}
	fmt.Printf("Created exam %s\n", examID)

	type seedQuestion struct {
		text    string
		kind    model.QuestionKind
		options []string
		correct string
	}

	questions := []seedQuestion{
		{
			text:    "Which data structure offers O(1) average lookup by key?",
			kind:    model.QuestionKindObjective,
			options: []string{"Linked list", "Hash table", "Binary heap", "Stack"},
			correct: "Hash table",
		},
		{
			text:    "What does ACID's 'I' stand for?",
			kind:    model.QuestionKindObjective,
			options: []string{"Integrity", "Isolation", "Idempotency", "Indexing"},
			correct: "Isolation",
		},
		{
			text:    "Which HTTP status code indicates a resource conflict?",
			kind:    model.QuestionKindObjective,
			options: []string{"400", "404", "409", "422"},
			correct: "409",
		},
		{
			text:    "Which sorting algorithm is stable and O(n log n) in the worst case?",
			kind:    model.QuestionKindObjective,
			options: []string{"Quicksort", "Heapsort", "Merge sort", "Selection sort"},
			correct: "Merge sort",
		},
		{
			text: "Explain the difference between optimistic and pessimistic concurrency control.",
			kind: model.QuestionKindFreeText,
		},
	}

	for i, q := range questions {
		options := q.options
		if options == nil {
			options = []string{}
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO questions (exam_id, question_text, question_kind, options, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			examID, q.text, q.kind, options, q.correct, i+1)
		if err != nil {
			fmt.Printf("Error creating question %d: %v\n", i+1, err)
			continue
		}
	}

	fmt.Printf("\nSeed completed! Exam %s with %d questions is ready.\n", examID, len(questions))
}
