package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/response"
	ws "github.com/oerms/oerms-backend/internal/websocket"
)

const monitorPingInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live violation events for an exam to its faculty
// owner over WebSocket.
type MonitorHandler struct {
	rdb      *redis.Client
	examRepo *repository.ExamRepository
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, examRepo *repository.ExamRepository, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		examRepo: examRepo,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// MonitorExamStream godoc
// WS /ws/v1/faculty/exams/:exam_id/monitor
// Upgrades to WebSocket and forwards the exam's violation events as they
// are published. Only the faculty member who owns the exam may attach.
func (h *MonitorHandler) MonitorExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examRepo.GetByID(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exam.FacultyID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reqCtx := c.Request.Context()

	channelName := config.CacheKey.ExamMonitorChannel(examID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	events := pubsub.Channel()

	pingTicker := time.NewTicker(monitorPingInterval)
	defer pingTicker.Stop()

	monLog := h.log.With().
		Int("faculty_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()

	monLog.Info().Msg("Faculty attached to live monitor")

	// Drain the read side so client close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-reqCtx.Done():
			monLog.Info().Msg("Faculty monitor request context done")
			return

		case <-closed:
			monLog.Info().Msg("Faculty disconnected from live monitor")
			return

		case msg, ok := <-events:
			if !ok {
				monLog.Warn().Msg("Monitor subscription closed")
				_ = ws.WriteError(conn, "event stream interrupted")
				return
			}
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				monLog.Warn().Err(err).Msg("Monitor write failed")
				return
			}

		case <-pingTicker.C:
			if err := ws.WriteTyped(conn, ws.PingMessage{Event: ws.EventPing}); err != nil {
				monLog.Debug().Msg("Ping failed, closing monitor")
				return
			}
		}
	}
}
