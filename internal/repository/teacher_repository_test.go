package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRepositoryListAssignments(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "subject_name", "grade", "major", "class_number", "total_assignments_assigned"}).
		AddRow("ta-1", "t-1", "sub-1", "Mathematics", "10", "IPA", 1, 4).
		AddRow("ta-2", "t-1", "sub-2", "Physics", "11", "IPA", 2, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teaching_assignments ta")).
		WithArgs("t-1").
		WillReturnRows(rows)

	items, err := repo.ListAssignments(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Mathematics", items[0].SubjectName)
	assert.Equal(t, 4, items[0].TotalAssignmentsAssigned)
	assert.Equal(t, 2, items[1].ClassNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
