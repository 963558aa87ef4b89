package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "student not found")
	assert.Equal(t, "student not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	wrapped := FromError(fmt.Errorf("select: %w", sql.ErrConnDone))
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.ErrorIs(t, wrapped, sql.ErrConnDone)

	typed := Clone(ErrTooManyRequests, "slow down")
	assert.Same(t, typed, FromError(fmt.Errorf("ctx: %w", typed)))
	assert.Nil(t, FromError(nil))
}

func TestInternalMessage(t *testing.T) {
	err := Internal(sql.ErrTxDone, "failed to commit")
	assert.Equal(t, "failed to commit: sql: transaction has already been committed or rolled back", err.Error())
}
