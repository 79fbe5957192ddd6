package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oerms/oerms-backend/internal/model"
)

func TestDirectiveForCount(t *testing.T) {
	assert.Equal(t, model.DirectiveWarn, DirectiveForCount(1))

	// Second and every subsequent violation forces submission.
	for _, n := range []int{2, 3, 5, 100} {
		assert.Equal(t, model.DirectiveForceSubmit, DirectiveForCount(n), "count %d", n)
	}
}
