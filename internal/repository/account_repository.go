package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
)

// AccountKind names the table an account lives in.
type AccountKind string

const (
	AccountStudent AccountKind = "student"
	AccountTeacher AccountKind = "teacher"
	AccountParent  AccountKind = "parent"
)

func (k AccountKind) table() (string, error) {
	switch k {
	case AccountStudent:
		return "students", nil
	case AccountTeacher:
		return "teachers", nil
	case AccountParent:
		return "parents", nil
	default:
		return "", fmt.Errorf("unknown account kind %q", k)
	}
}

// Credential is the login view of any account.
type Credential struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	PasswordHash string      `db:"password_hash"`
	Role         models.Role `db:"role"`
	Kind         AccountKind `db:"kind"`
}

const credentialQuery = `SELECT id, name, email, password_hash, role, kind FROM (
	SELECT id, name, email, password_hash,
		CASE WHEN student_role = 'CLASS_SECRETARY' THEN 'CLASS_SECRETARY' ELSE 'STUDENT' END AS role,
		'student' AS kind
	FROM students
	UNION ALL
	SELECT id, name, email, password_hash, role, 'teacher' AS kind FROM teachers
	UNION ALL
	SELECT id, name, email, password_hash, 'PARENT' AS role, 'parent' AS kind FROM parents
) accounts`

// AccountRepository spans the three account tables.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindCredentialByEmail looks an email up across students, teachers and parents.
func (r *AccountRepository) FindCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var cred Credential
	if err := r.db.GetContext(ctx, &cred, credentialQuery+" WHERE LOWER(email) = LOWER($1) LIMIT 1", email); err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

// FindCredentialByID looks an account up by kind and id.
func (r *AccountRepository) FindCredentialByID(ctx context.Context, kind AccountKind, id string) (*Credential, error) {
	var cred Credential
	if err := r.db.GetContext(ctx, &cred, credentialQuery+" WHERE kind = $1 AND id = $2", string(kind), id); err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

// UpdatePassword replaces the password hash of an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, kind AccountKind, id, hash string) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET password_hash = $1, updated_at = NOW() WHERE id = $2", table)
	res, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update password: %w", sql.ErrNoRows)
	}
	return nil
}

// AccountTx is the write surface used while provisioning accounts.
type AccountTx interface {
	InsertStudent(ctx context.Context, student *models.Student) error
	InsertTeacher(ctx context.Context, teacher *models.Teacher) error
	InsertParent(ctx context.Context, parent *models.Parent) error
	InsertTeachingAssignment(ctx context.Context, assignment *models.TeachingAssignment) error
	InsertHomeroom(ctx context.Context, homeroom *models.HomeroomClass) error
	HomeroomTeacherID(ctx context.Context, class models.ClassSelector) (*string, error)
	FindSubject(ctx context.Context, name string) (*models.Subject, error)
	CurriculumSubjects(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error)
	EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error)
	StudentExists(ctx context.Context, id string) (bool, error)
}

// WithinTx runs fn in one transaction.
func (r *AccountRepository) WithinTx(ctx context.Context, fn func(tx AccountTx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&accountTx{q: tx})
	})
}

type accountTx struct {
	q DBTX
}

func (t *accountTx) InsertStudent(ctx context.Context, student *models.Student) error {
	return insertStudent(ctx, t.q, student)
}

func (t *accountTx) InsertTeacher(ctx context.Context, teacher *models.Teacher) error {
	return insertTeacher(ctx, t.q, teacher)
}

func (t *accountTx) InsertParent(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	const query = `INSERT INTO parents (id, name, email, password_hash, student_id, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :student_id, :created_at, :updated_at)`
	if _, err := t.q.NamedExecContext(ctx, query, parent); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert parent %s: %w", parent.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert parent: %w", err)
	}
	return nil
}

func (t *accountTx) InsertTeachingAssignment(ctx context.Context, assignment *models.TeachingAssignment) error {
	return insertTeachingAssignment(ctx, t.q, assignment)
}

// InsertHomeroom binds the class to the teacher and points the class's students at them.
func (t *accountTx) InsertHomeroom(ctx context.Context, homeroom *models.HomeroomClass) error {
	if err := insertHomeroom(ctx, t.q, homeroom); err != nil {
		return err
	}
	return attachHomeroomStudents(ctx, t.q, *homeroom)
}

func (t *accountTx) HomeroomTeacherID(ctx context.Context, class models.ClassSelector) (*string, error) {
	return homeroomTeacherID(ctx, t.q, class)
}

func (t *accountTx) FindSubject(ctx context.Context, name string) (*models.Subject, error) {
	return findSubjectByName(ctx, t.q, name)
}

func (t *accountTx) CurriculumSubjects(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error) {
	return curriculumSubjects(ctx, t.q, grade, major)
}

func (t *accountTx) EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	return ensureBucket(ctx, t.q, studentID, subject, period)
}

func (t *accountTx) StudentExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := t.q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}
