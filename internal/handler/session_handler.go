package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/oerms/oerms-backend/internal/validator"
)

// SessionHandler handles student-facing exam session endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// StartSession godoc
// POST /api/v1/student/exams/:exam_id/sessions
// Creates the student's single session for an exam and assembles the paper.
func (h *SessionHandler) StartSession(c *gin.Context) {
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

	result, err := h.sessionService.Start(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetSessionPaper godoc
// GET /api/v1/student/sessions/:session_id/paper
// Returns the delivered paper. Correct answers are never included.
func (h *SessionHandler) GetSessionPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	entries, err := h.sessionService.GetPaper(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	if entries == nil {
		entries = []model.PaperEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"paper": entries})
}

// SubmitSession godoc
// POST /api/v1/student/sessions/:session_id/submit
// Records responses, grades objective answers, and closes the session.
// Used for both manual submission and the client's reaction to a
// FORCE_SUBMIT directive (forced=true).
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		bindError(c, fields)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), sessionID, claims.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetSessionState godoc
// GET /api/v1/student/sessions/:session_id/state
// Recovery endpoint for page reloads: autosaved answers + remaining time.
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetSessionResult godoc
// GET /api/v1/student/sessions/:session_id/result
// Returns the objective score of a closed session.
func (h *SessionHandler) GetSessionResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.GetResult(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// AutosaveAnswer godoc
// PUT /api/v1/student/sessions/:session_id/answers
// Buffers one in-progress answer in Redis. Does not create a Response.
func (h *SessionHandler) AutosaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AutosaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		bindError(c, fields)
		return
	}

	if err := h.sessionService.Autosave(c.Request.Context(), sessionID, claims.UserID, req.PaperItemID, req.Answer); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}
