package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository answers the enrollment boundary check. Enrollment
// approval workflows live in a separate system; this service only reads
// the approved state.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// IsEnrolled reports whether the student has an approved enrollment with
// the given faculty.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, facultyID int) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM enrollments
		   WHERE student_id = $1 AND faculty_id = $2 AND status = 'APPROVED'
		 )`, studentID, facultyID,
	).Scan(&enrolled)
	return enrolled, err
}
