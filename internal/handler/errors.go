package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/validator"
)

// writeError maps a service error to its transport representation. The
// apperr message is preserved so state-bearing messages (e.g. a duplicate
// session's current status) reach the client.
func writeError(c *gin.Context, err error) {
	var status int
	var code response.ErrCode

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status, code = http.StatusNotFound, response.ErrNotFound
	case apperr.KindForbidden:
		status, code = http.StatusForbidden, response.ErrForbidden
	case apperr.KindConflict:
		status, code = http.StatusConflict, response.ErrConflict
	case apperr.KindValidation:
		status, code = http.StatusBadRequest, response.ErrValidation
	case apperr.KindResourceExhausted:
		status, code = http.StatusConflict, response.ErrNoQuestions
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// A refining code tagged by the service narrows the generic kind code.
	switch apperr.CodeOf(err) {
	case apperr.CodeNotEnrolled:
		code = response.ErrNotEnrolled
	case apperr.CodeSessionClosed:
		code = response.ErrSessionClosed
	}

	response.FailWithMessage(c, status, code, apperr.MessageOf(err))
}

// bindError writes a 400 for a failed request bind, distinguishing a
// payload that did not parse at all from field-level validation failures.
func bindError(c *gin.Context, fields map[string]string) {
	code := response.ErrValidation
	if _, ok := fields[validator.DetailField]; ok {
		code = response.ErrInvalidPayload
	}
	response.FailWithFields(c, http.StatusBadRequest, code, fields)
}
