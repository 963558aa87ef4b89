package service

import (
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// lookupError maps a missing row to NotFound and anything else to Internal.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

// txError keeps typed errors raised inside a transaction and hides everything else behind Internal.
func txError(err error, internal string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, internal)
}

func schoolLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
