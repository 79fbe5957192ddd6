package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/service"
)

const (
	IntegrityBatchSize    = 50
	IntegrityBatchTimeout = 2 * time.Second
	IntegrityPollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// IntegrityWorker drains queued violation telemetry and applies advisory
// integrity-score deductions in batches. The score is monotonically
// non-increasing and floored at zero; escalation never depends on it, so
// the asynchronous update is safe.
type IntegrityWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewIntegrityWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *IntegrityWorker {
	return &IntegrityWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "integrity_worker").Logger(),
	}
}

func (w *IntegrityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IntegrityWorker started")

	batch := make([]*service.IntegrityPayload, 0, IntegrityBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= IntegrityBatchSize || time.Since(lastFlush) >= IntegrityBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, IntegrityPollTimeout, config.WorkerKey.IntegrityQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p service.IntegrityPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// flushSafe attempts the bulk update, falling back to row-by-row with
// requeue on failure.
func (w *IntegrityWorker) flushSafe(ctx context.Context, batch []*service.IntegrityPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkApply(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk integrity update failed, using fallback")

		for _, p := range batch {
			if err := w.applySingle(ctx, p); err != nil {
				w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("applySingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.IntegrityQueue, raw)
			}
		}
	}
}

func (w *IntegrityWorker) bulkApply(ctx context.Context, batch []*service.IntegrityPayload) error {
	n := len(batch)

	sessionIDs := make([]uuid.UUID, 0, n)
	deductions := make([]float64, 0, n)

	for _, p := range batch {
		sID, err := uuid.Parse(p.SessionID)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, sID)
		deductions = append(deductions, p.Deduction)
	}

	query := `
		UPDATE exam_sessions AS s
		SET integrity_score = GREATEST(0, s.integrity_score - t.total_deduction)
		FROM (
			SELECT
				u.session_id,
				SUM(u.deduction) AS total_deduction
			FROM UNNEST(
				$1::uuid[],
				$2::float8[]
			) AS u (session_id, deduction)
			GROUP BY u.session_id
		) AS t
		WHERE s.id = t.session_id
	`

	_, err := w.pool.Exec(ctx, query, sessionIDs, deductions)
	return err
}

func (w *IntegrityWorker) applySingle(ctx context.Context, p *service.IntegrityPayload) error {
	sID, err := uuid.Parse(p.SessionID)
	if err != nil {
		w.log.Error().Str("session_id", p.SessionID).Msg("Dropping telemetry with invalid UUID")
		return nil
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET integrity_score = GREATEST(0, integrity_score - $1)
		 WHERE id = $2`,
		p.Deduction, sID,
	)
	return err
}
