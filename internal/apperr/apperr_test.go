package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := New(KindConflict, "session already exists (status: IN_PROGRESS)")
	wrapped := fmt.Errorf("start session: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "session already exists (status: IN_PROGRESS)", MessageOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "", MessageOf(err))
}

func TestCodeOf_SurvivesWrapping(t *testing.T) {
	base := New(KindForbidden, "you are not enrolled").WithCode(CodeNotEnrolled)
	wrapped := fmt.Errorf("start session: %w", base)

	assert.Equal(t, CodeNotEnrolled, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(KindNotFound, "exam not found", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "exam not found")
	assert.Contains(t, err.Error(), "no rows")
}
