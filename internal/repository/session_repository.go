package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

// SessionRepository handles exam session and paper item data access. The
// Tx-suffixed methods participate in the orchestrator's atomic units.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_id, status, paper_fingerprint, integrity_score, started_at, finished_at`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Status, &s.PaperFingerprint,
		&s.IntegrityScore, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by its identifier.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, sessionID))
}

// GetByExamAndStudent retrieves a session for a specific exam-student pair.
func (r *SessionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID))
}

// CreateTx inserts a session inside tx. The unique constraint on
// (exam_id, student_id) makes creation exclusive: a concurrent duplicate
// hits ON CONFLICT DO NOTHING and surfaces as pgx.ErrNoRows here.
func (r *SessionRepository) CreateTx(ctx context.Context, tx pgx.Tx, s *model.ExamSession) error {
	return tx.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, student_id, status, paper_fingerprint)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at, integrity_score`,
		s.ExamID, s.StudentID, model.SessionStatusInProgress, s.PaperFingerprint,
	).Scan(&s.ID, &s.StartedAt, &s.IntegrityScore)
}

// GetForUpdateTx retrieves a session inside tx with a row lock, serializing
// concurrent submits and violation reports for the same session.
func (r *SessionRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (*model.ExamSession, error) {
	return scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1 FOR UPDATE`, sessionID))
}

// InsertPaperItemsTx bulk-inserts the assembled paper inside tx.
func (r *SessionRepository) InsertPaperItemsTx(ctx context.Context, tx pgx.Tx, items []model.PaperItem) error {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.ID, it.SessionID, it.QuestionID, it.Position, it.Kind, it.CorrectAnswer})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"paper_items"},
		[]string{"id", "session_id", "question_id", "position", "question_kind", "correct_answer"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// GradablePaperItem is the grading view of a paper item: the kind and
// correct answer copied at assembly time.
type GradablePaperItem struct {
	ID            uuid.UUID
	Kind          model.QuestionKind
	CorrectAnswer string
}

// GetGradableItemsTx retrieves all paper items of a session keyed by paper
// item ID. Grading reads the assembly-time snapshot only, so question edits
// made mid-session never change the outcome. Runs inside the submit tx.
func (r *SessionRepository) GetGradableItemsTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (map[uuid.UUID]GradablePaperItem, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, question_kind, correct_answer
		 FROM paper_items
		 WHERE session_id = $1`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID]GradablePaperItem)
	for rows.Next() {
		var it GradablePaperItem
		if err := rows.Scan(&it.ID, &it.Kind, &it.CorrectAnswer); err != nil {
			return nil, err
		}
		items[it.ID] = it
	}
	return items, rows.Err()
}

// GetPaper retrieves the delivered paper for a session in delivery order,
// without correct answers.
func (r *SessionRepository) GetPaper(ctx context.Context, sessionID uuid.UUID) ([]model.PaperEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pi.id, q.question_text, q.question_kind, q.options
		 FROM paper_items pi
		 JOIN questions q ON pi.question_id = q.id
		 WHERE pi.session_id = $1
		 ORDER BY pi.position`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.PaperEntry
	for rows.Next() {
		var e model.PaperEntry
		if err := rows.Scan(&e.PaperItemID, &e.QuestionText, &e.Kind, &e.Options); err != nil {
			return nil, err
		}
		if e.Kind != model.QuestionKindObjective {
			e.Options = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CompleteTx flips a session to SUBMITTED inside tx.
func (r *SessionRepository) CompleteTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, finishedAt time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE exam_sessions SET status = $1, finished_at = $2 WHERE id = $3`,
		model.SessionStatusSubmitted, finishedAt, sessionID)
	return err
}
