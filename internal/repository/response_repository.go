package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

// ResponseRepository handles response and session result data access. All
// writes happen inside the submit transaction.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// UpsertTx records a response inside tx. The unique constraint on
// (session_id, paper_item_id) makes a repeated pair within the same
// submission overwrite rather than duplicate.
func (r *ResponseRepository) UpsertTx(ctx context.Context, tx pgx.Tx, resp *model.Response) error {
	return tx.QueryRow(ctx,
		`INSERT INTO responses (session_id, paper_item_id, answer, is_correct, marks_awarded, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, paper_item_id) DO UPDATE
		 SET answer = EXCLUDED.answer,
		     is_correct = EXCLUDED.is_correct,
		     marks_awarded = EXCLUDED.marks_awarded,
		     recorded_at = EXCLUDED.recorded_at
		 RETURNING id`,
		resp.SessionID, resp.PaperItemID, resp.Answer, resp.IsCorrect, resp.MarksAwarded, resp.RecordedAt,
	).Scan(&resp.ID)
}

// AggregateTx computes the objective score (sum of marks awarded) and the
// number of objectively correct responses for a session, inside tx.
func (r *ResponseRepository) AggregateTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (float64, int, error) {
	var score float64
	var correct int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(marks_awarded), 0),
		        COUNT(*) FILTER (WHERE is_correct)
		 FROM responses WHERE session_id = $1`, sessionID,
	).Scan(&score, &correct)
	return score, correct, err
}

// UpsertResultTx writes the session result inside tx.
func (r *ResponseRepository) UpsertResultTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, score float64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO session_results (session_id, objective_score, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE
		 SET objective_score = EXCLUDED.objective_score,
		     updated_at = EXCLUDED.updated_at`,
		sessionID, score, time.Now())
	return err
}

// GetResult retrieves the result for a session.
func (r *ResponseRepository) GetResult(ctx context.Context, sessionID uuid.UUID) (*model.SessionResult, error) {
	res := &model.SessionResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, objective_score, updated_at
		 FROM session_results WHERE session_id = $1`, sessionID,
	).Scan(&res.SessionID, &res.ObjectiveScore, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}
