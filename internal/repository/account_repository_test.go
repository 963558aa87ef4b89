package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/responsainveniree/student-info-api/internal/models"
)

func TestAccountRepositoryFindCredentialByEmail(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(email) = LOWER($1) LIMIT 1`)).
		WithArgs("Secretary@School.id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "kind"}).
			AddRow("stu-1", "Sari", "secretary@school.id", "hash", "CLASS_SECRETARY", "student"))

	cred, err := repo.FindCredentialByEmail(context.Background(), "Secretary@School.id")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClassSecretary, cred.Role)
	assert.Equal(t, AccountStudent, cred.Kind)
}

func TestAccountRepositoryUpdatePasswordMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE parents SET password_hash = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("new-hash", "par-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), AccountParent, "par-1", "new-hash")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.Error(t, repo.UpdatePassword(context.Background(), AccountKind("admin"), "x", "y"))
}

func TestAccountRepositoryInsertStudentDuplicate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO students`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(tx AccountTx) error {
		return tx.InsertStudent(context.Background(), &models.Student{Name: "Ani", Email: "ani@school.id"})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
