package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/paper"
	"github.com/oerms/oerms-backend/internal/repository"
)

// SessionService orchestrates the exam session state machine: start,
// paper delivery, submission (manual or forced), and state recovery. All
// multi-entity mutations run as single transactions.
type SessionService struct {
	pool           *pgxpool.Pool
	examRepo       *repository.ExamRepository
	enrollmentRepo *repository.EnrollmentRepository
	sessionRepo    *repository.SessionRepository
	responseRepo   *repository.ResponseRepository
	assembler      *paper.Assembler
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	pool *pgxpool.Pool,
	examRepo *repository.ExamRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	sessionRepo *repository.SessionRepository,
	responseRepo *repository.ResponseRepository,
	assembler *paper.Assembler,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		pool:           pool,
		examRepo:       examRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
		responseRepo:   responseRepo,
		assembler:      assembler,
		rdb:            rdb,
		log:            log.With().Str("component", "session_service").Logger(),
	}
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	SessionID      uuid.UUID `json:"session_id"`
	TotalQuestions int       `json:"total_questions"`
}

// SubmitResult is the outcome of submitting a session.
type SubmitResult struct {
	Status                model.SessionStatus `json:"status"`
	ObjectiveScore        float64             `json:"objective_score"`
	ObjectiveCorrectCount int                 `json:"objective_correct_count"`
	ResponsesAccepted     int                 `json:"responses_accepted"`
}

// Start creates the student's single session for an exam. The paper is
// assembled, then the session row and its paper items commit as one unit;
// the unique constraint on (exam_id, student_id) closes the race between
// concurrent starts.
func (s *SessionService) Start(ctx context.Context, examID uuid.UUID, studentID int) (*StartResult, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "exam not found")
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, studentID, exam.FacultyID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, apperr.New(apperr.KindForbidden,
			"you are not enrolled with this exam's faculty").WithCode(apperr.CodeNotEnrolled)
	}

	questions, err := s.examRepo.ListQuestions(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	items, fingerprint, err := s.assembler.Assemble(questions)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	session := &model.ExamSession{
		ExamID:           examID,
		StudentID:        studentID,
		PaperFingerprint: fingerprint,
	}
	if err := s.sessionRepo.CreateTx(ctx, tx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The unique constraint swallowed the insert: a session
			// already exists for this (exam, student) pair.
			existing, fetchErr := s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("fetch existing session: %w", fetchErr)
			}
			return nil, apperr.Newf(apperr.KindConflict,
				"session already exists for this exam (status: %s)", existing.Status)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	paperItems := make([]model.PaperItem, len(items))
	for i, it := range items {
		paperItems[i] = model.PaperItem{
			ID:            uuid.New(),
			SessionID:     session.ID,
			QuestionID:    it.QuestionID,
			Position:      i,
			Kind:          it.Kind,
			CorrectAnswer: it.CorrectAnswer,
		}
	}
	if err := s.sessionRepo.InsertPaperItemsTx(ctx, tx, paperItems); err != nil {
		return nil, fmt.Errorf("insert paper items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit start: %w", err)
	}

	s.cacheDeadline(ctx, session, exam.DurationMinutes)

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("questions", len(paperItems)).
		Msg("Session started")

	return &StartResult{SessionID: session.ID, TotalQuestions: len(paperItems)}, nil
}

// GetPaper returns the delivered paper for the caller's session. Correct
// answers never leave the server.
func (s *SessionService) GetPaper(ctx context.Context, sessionID uuid.UUID, studentID int) ([]model.PaperEntry, error) {
	session, err := s.ownedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.sessionRepo.GetPaper(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return entries, nil
}

// Submit records the supplied responses, grades the objective ones, and
// closes the session, all in one transaction. Submission is first-write-
// wins: a closed session rejects any further submit with a conflict.
// Paper items absent from the submission stay unrecorded; an item repeated
// within one payload keeps its last answer and is accepted once.
func (s *SessionService) Submit(ctx context.Context, sessionID uuid.UUID, studentID int, req *model.SubmitSessionRequest) (*SubmitResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := s.sessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "exam session not found")
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if session.StudentID != studentID {
		return nil, apperr.New(apperr.KindForbidden, "this session belongs to another student")
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, apperr.Newf(apperr.KindConflict,
			"session is already %s and cannot be submitted again", session.Status).
			WithCode(apperr.CodeSessionClosed)
	}

	gradable, err := s.sessionRepo.GetGradableItemsTx(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load paper items: %w", err)
	}

	now := time.Now()
	accepted := 0
	seen := make(map[uuid.UUID]struct{}, len(req.Responses))
	for _, ans := range req.Responses {
		item, ok := gradable[ans.PaperItemID]
		if !ok {
			// Not part of this session's paper; ignore rather than fail
			// the whole submission.
			continue
		}

		cls := Classify(item, ans.Answer)
		resp := &model.Response{
			SessionID:    sessionID,
			PaperItemID:  item.ID,
			Answer:       ans.Answer,
			IsCorrect:    cls.IsCorrect,
			MarksAwarded: cls.MarksAwarded,
			RecordedAt:   now,
		}
		if err := s.responseRepo.UpsertTx(ctx, tx, resp); err != nil {
			return nil, fmt.Errorf("record response: %w", err)
		}
		// A repeated item overwrites its earlier answer but counts once.
		if _, dup := seen[item.ID]; !dup {
			seen[item.ID] = struct{}{}
			accepted++
		}
	}

	score, correctCount, err := s.responseRepo.AggregateTx(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("aggregate score: %w", err)
	}

	if err := s.sessionRepo.CompleteTx(ctx, tx, sessionID, now); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if err := s.responseRepo.UpsertResultTx(ctx, tx, sessionID, score); err != nil {
		return nil, fmt.Errorf("upsert result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submit: %w", err)
	}

	s.clearSessionCache(ctx, sessionID)

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("student_id", studentID).
		Bool("forced", req.Forced).
		Float64("objective_score", score).
		Int("accepted", accepted).
		Msg("Session submitted")

	return &SubmitResult{
		Status:                model.SessionStatusSubmitted,
		ObjectiveScore:        score,
		ObjectiveCorrectCount: correctCount,
		ResponsesAccepted:     accepted,
	}, nil
}

// GetState returns the recovery state for a reloaded exam page: autosaved
// answers and remaining time.
func (s *SessionService) GetState(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionState, error) {
	session, err := s.ownedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, apperr.Newf(apperr.KindConflict, "session is %s", session.Status).
			WithCode(apperr.CodeSessionClosed)
	}

	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get autosaved answers: %w", err)
	}

	deadline, err := s.deadline(ctx, session)
	if err != nil {
		return nil, err
	}

	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}

	return &model.SessionState{
		SessionID:        sessionID,
		AutosavedAnswers: answers,
		RemainingSeconds: remaining.Seconds(),
	}, nil
}

// Autosave buffers one in-progress answer in Redis. Buffered answers are
// client-side convenience only; responses are persisted exclusively by
// Submit.
func (s *SessionService) Autosave(ctx context.Context, sessionID uuid.UUID, studentID int, paperItemID uuid.UUID, answer string) error {
	session, err := s.ownedSession(ctx, sessionID, studentID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionStatusInProgress {
		return apperr.Newf(apperr.KindConflict, "session is %s", session.Status).
			WithCode(apperr.CodeSessionClosed)
	}

	key := config.CacheKey.SessionAnswersKey(sessionID.String())
	if err := s.rdb.HSet(ctx, key, paperItemID.String(), answer).Err(); err != nil {
		return fmt.Errorf("autosave answer: %w", err)
	}
	return nil
}

// GetResult returns the objective result of a closed session. Free-text
// marks are added by the downstream review workflow, so the objective score
// here may be a lower bound on the final published score.
func (s *SessionService) GetResult(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionResult, error) {
	session, err := s.ownedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusInProgress {
		return nil, apperr.New(apperr.KindConflict, "session is still in progress")
	}

	result, err := s.responseRepo.GetResult(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "result not available for this session")
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

// ownedSession fetches a session and verifies the caller owns it.
func (s *SessionService) ownedSession(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.ExamSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "exam session not found")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.StudentID != studentID {
		return nil, apperr.New(apperr.KindForbidden, "this session belongs to another student")
	}
	return session, nil
}

// cacheDeadline stores the session's submission deadline in Redis. Cache
// misses fall back to Postgres in deadline, so failures are non-fatal.
func (s *SessionService) cacheDeadline(ctx context.Context, session *model.ExamSession, durationMinutes int) {
	end := session.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
	key := config.CacheKey.SessionDeadlineKey(session.ID.String())
	if err := s.rdb.Set(ctx, key, end.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Failed to cache deadline")
	}
}

// deadline resolves the session's submission deadline, preferring the
// Redis cache and self-healing it from Postgres on a miss.
func (s *SessionService) deadline(ctx context.Context, session *model.ExamSession) (time.Time, error) {
	key := config.CacheKey.SessionDeadlineKey(session.ID.String())

	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		unix, parseErr := strconv.ParseInt(val, 10, 64)
		if parseErr == nil {
			return time.Unix(unix, 0), nil
		}
		// Corrupt cache entry; fall through to the database.
	} else if !errors.Is(err, redis.Nil) {
		return time.Time{}, fmt.Errorf("get deadline from cache: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, session.ExamID)
	if err != nil {
		return time.Time{}, fmt.Errorf("get exam for deadline: %w", err)
	}

	end := session.StartedAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	_ = s.rdb.Set(ctx, key, end.Unix(), 0)
	return end, nil
}

func (s *SessionService) clearSessionCache(ctx context.Context, sessionID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionAnswersKey(sessionID.String()))
	pipe.Del(ctx, config.CacheKey.SessionDeadlineKey(sessionID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to clear session cache")
	}
}
