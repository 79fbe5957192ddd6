package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/validator"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestWriteError_KindMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperr.New(apperr.KindNotFound, "exam not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperr.New(apperr.KindConflict, "session already exists"), http.StatusConflict, "CONFLICT"},
		{"exhausted", apperr.New(apperr.KindResourceExhausted, "no questions"), http.StatusConflict, "NO_QUESTIONS_AVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := testContext(t)
			writeError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestWriteError_RefinedCodes(t *testing.T) {
	c, w := testContext(t)
	writeError(c, apperr.New(apperr.KindForbidden, "you are not enrolled").WithCode(apperr.CodeNotEnrolled))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_ENROLLED")

	c, w = testContext(t)
	writeError(c, apperr.New(apperr.KindConflict, "session is SUBMITTED").WithCode(apperr.CodeSessionClosed))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_CLOSED")
	assert.Contains(t, w.Body.String(), "session is SUBMITTED")
}

func TestBindError_MalformedVsFieldFailures(t *testing.T) {
	c, w := testContext(t)
	bindError(c, map[string]string{validator.DetailField: "unexpected end of JSON input"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PAYLOAD")

	c, w = testContext(t)
	bindError(c, map[string]string{"kind": "kind is a required field"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
