package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	ws "github.com/oerms/oerms-backend/internal/websocket"
)

// IntegrityDeduction is the advisory integrity-score penalty applied per
// violation. The deduction is telemetry for review prioritization; the
// violation count alone drives escalation.
const IntegrityDeduction = 10.0

// IntegrityPayload is the telemetry item queued for the integrity worker.
type IntegrityPayload struct {
	SessionID string  `json:"session_id"`
	Deduction float64 `json:"deduction"`
}

// ProctorService ingests client-reported integrity events and decides the
// escalation directive from a transactionally consistent violation count.
type ProctorService struct {
	pool          *pgxpool.Pool
	examRepo      *repository.ExamRepository
	sessionRepo   *repository.SessionRepository
	violationRepo *repository.ViolationRepository
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(
	pool *pgxpool.Pool,
	examRepo *repository.ExamRepository,
	sessionRepo *repository.SessionRepository,
	violationRepo *repository.ViolationRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ProctorService {
	return &ProctorService{
		pool:          pool,
		examRepo:      examRepo,
		sessionRepo:   sessionRepo,
		violationRepo: violationRepo,
		rdb:           rdb,
		log:           log.With().Str("component", "proctor_service").Logger(),
	}
}

// DirectiveForCount maps a session's consistent violation count to the
// escalation directive: the first violation warns, every one after forces
// submission.
func DirectiveForCount(count int) model.Directive {
	if count <= 1 {
		return model.DirectiveWarn
	}
	return model.DirectiveForceSubmit
}

// ReportViolation appends a violation to the session's log and returns the
// directive. The session row lock serializes concurrent reports for the
// same session, so the second report always sees the first's count.
func (s *ProctorService) ReportViolation(ctx context.Context, sessionID uuid.UUID, studentID int, kind model.ViolationKind, occurredAt time.Time) (model.Directive, error) {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := s.sessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.New(apperr.KindNotFound, "exam session not found")
		}
		return "", fmt.Errorf("lock session: %w", err)
	}
	if session.StudentID != studentID {
		// Do not reveal other students' sessions.
		return "", apperr.New(apperr.KindNotFound, "exam session not found")
	}
	if session.Status != model.SessionStatusInProgress {
		return "", apperr.Newf(apperr.KindConflict,
			"session is %s; a closed session cannot accrue violations", session.Status).
			WithCode(apperr.CodeSessionClosed)
	}

	record := &model.ViolationRecord{
		SessionID:  sessionID,
		StudentID:  studentID,
		Kind:       kind,
		OccurredAt: occurredAt,
	}
	if err := s.violationRepo.InsertTx(ctx, tx, record); err != nil {
		return "", fmt.Errorf("insert violation: %w", err)
	}

	count, err := s.violationRepo.CountBySessionTx(ctx, tx, sessionID)
	if err != nil {
		return "", fmt.Errorf("count violations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit violation: %w", err)
	}

	directive := DirectiveForCount(count)

	s.queueIntegrityDeduction(ctx, sessionID)
	s.publishMonitorEvent(ctx, session, record, count, directive)

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("student_id", studentID).
		Str("kind", string(kind)).
		Int("count", count).
		Str("directive", string(directive)).
		Msg("Violation reported")

	return directive, nil
}

// ListViolations returns one page of a session's violation log, with the
// total count, for the faculty member who owns the session's exam.
func (s *ProctorService) ListViolations(ctx context.Context, sessionID uuid.UUID, facultyID, limit, offset int) ([]model.ViolationRecord, int, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, apperr.New(apperr.KindNotFound, "exam session not found")
		}
		return nil, 0, fmt.Errorf("get session: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, 0, fmt.Errorf("get exam: %w", err)
	}
	if exam.FacultyID != facultyID {
		return nil, 0, apperr.New(apperr.KindForbidden, "this session's exam belongs to another faculty member")
	}

	total, err := s.violationRepo.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, 0, fmt.Errorf("count violations: %w", err)
	}

	records, err := s.violationRepo.ListBySession(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list violations: %w", err)
	}
	return records, total, nil
}

// queueIntegrityDeduction hands the advisory score decrement to the
// integrity worker. Losing a telemetry item never fails the report.
func (s *ProctorService) queueIntegrityDeduction(ctx context.Context, sessionID uuid.UUID) {
	payload, _ := json.Marshal(IntegrityPayload{
		SessionID: sessionID.String(),
		Deduction: IntegrityDeduction,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.IntegrityQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to queue integrity deduction")
	}
}

func (s *ProctorService) publishMonitorEvent(ctx context.Context, session *model.ExamSession, record *model.ViolationRecord, count int, directive model.Directive) {
	event, _ := json.Marshal(ws.ViolationEvent{
		Event:          ws.EventViolation,
		ExamID:         session.ExamID,
		SessionID:      session.ID,
		StudentID:      record.StudentID,
		Kind:           string(record.Kind),
		ViolationCount: count,
		Directive:      string(directive),
		OccurredAt:     record.OccurredAt,
	})
	channel := config.CacheKey.ExamMonitorChannel(session.ExamID.String())
	if err := s.rdb.Publish(ctx, channel, event).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", session.ExamID.String()).Msg("Failed to publish monitor event")
	}
}
