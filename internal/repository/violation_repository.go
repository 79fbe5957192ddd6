package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

// ViolationRepository handles the append-only violation log.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// InsertTx appends a violation record inside tx.
func (r *ViolationRepository) InsertTx(ctx context.Context, tx pgx.Tx, v *model.ViolationRecord) error {
	return tx.QueryRow(ctx,
		`INSERT INTO violations (session_id, student_id, violation_kind, occurred_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		v.SessionID, v.StudentID, v.Kind, v.OccurredAt,
	).Scan(&v.ID)
}

// CountBySessionTx counts a session's violations inside tx. Callers must
// hold the session row lock so concurrent reports never read a stale count.
func (r *ViolationRepository) CountBySessionTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE session_id = $1`, sessionID,
	).Scan(&count)
	return count, err
}

// CountBySession counts a session's violations outside any transaction.
// Pagination metadata only; escalation always uses CountBySessionTx.
func (r *ViolationRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE session_id = $1`, sessionID,
	).Scan(&count)
	return count, err
}

// ListBySession retrieves one page of a session's violation log in arrival
// order.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]model.ViolationRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, student_id, violation_kind, occurred_at
		 FROM violations WHERE session_id = $1
		 ORDER BY id
		 LIMIT $2 OFFSET $3`, sessionID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ViolationRecord
	for rows.Next() {
		var v model.ViolationRecord
		if err := rows.Scan(&v.ID, &v.SessionID, &v.StudentID, &v.Kind, &v.OccurredAt); err != nil {
			return nil, err
		}
		records = append(records, v)
	}
	return records, rows.Err()
}
