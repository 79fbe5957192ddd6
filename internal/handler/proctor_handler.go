package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/oerms/oerms-backend/internal/validator"
)

// ProctorHandler handles proctoring violation reports from the student client.
type ProctorHandler struct {
	proctorService *service.ProctorService
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(proctorService *service.ProctorService) *ProctorHandler {
	return &ProctorHandler{proctorService: proctorService}
}

// ReportViolation godoc
// POST /api/v1/student/sessions/:session_id/violations
// Records a proctoring violation and returns the escalation directive the
// client must act on (WARN or FORCE_SUBMIT).
func (h *ProctorHandler) ReportViolation(c *gin.Context) {
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

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		bindError(c, fields)
		return
	}

	var occurredAt time.Time
	if req.Timestamp != nil {
		occurredAt = *req.Timestamp
	}

	directive, err := h.proctorService.ReportViolation(c.Request.Context(), sessionID, claims.UserID, model.ViolationKind(req.Kind), occurredAt)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"directive": directive})
}

// ListSessionViolations godoc
// GET /api/v1/faculty/sessions/:session_id/violations?page=&per_page=
// Returns a page of the session's violation log to the exam's owning
// faculty member.
func (h *ProctorHandler) ListSessionViolations(c *gin.Context) {
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

	page, perPage := pageParams(c)
	records, total, err := h.proctorService.ListViolations(c.Request.Context(), sessionID, claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		writeError(c, err)
		return
	}

	if records == nil {
		records = []model.ViolationRecord{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"violations": records}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// pageParams reads page/per_page query parameters, clamping to sane bounds.
func pageParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
