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
)

// TeacherRepository reads teachers with their teaching assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindTeachingAssignment returns the assignment of a teacher for a subject in a class.
func (r *TeacherRepository) FindTeachingAssignment(ctx context.Context, teacherID, subjectName string, class models.ClassSelector) (*models.TeachingAssignment, error) {
	return findTeachingAssignment(ctx, r.db, teacherID, subjectName, class)
}

// ListAssignments returns every teaching assignment of a teacher.
func (r *TeacherRepository) ListAssignments(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	const query = `SELECT ta.id, ta.teacher_id, ta.subject_id, s.name AS subject_name, ta.grade, ta.major, ta.class_number,
	ta.total_assignments_assigned
FROM teaching_assignments ta
JOIN subjects s ON s.id = ta.subject_id
WHERE ta.teacher_id = $1
ORDER BY ta.grade, ta.major, ta.class_number, s.name`
	var items []models.TeachingAssignment
	if err := r.db.SelectContext(ctx, &items, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return items, nil
}

func findTeachingAssignment(ctx context.Context, q DBTX, teacherID, subjectName string, class models.ClassSelector) (*models.TeachingAssignment, error) {
	const query = `SELECT ta.id, ta.teacher_id, ta.subject_id, s.name AS subject_name, ta.grade, ta.major, ta.class_number,
	ta.total_assignments_assigned
FROM teaching_assignments ta
JOIN subjects s ON s.id = ta.subject_id
WHERE ta.teacher_id = $1 AND s.name = $2 AND ta.grade = $3 AND ta.major = $4 AND ta.class_number = $5`
	var item models.TeachingAssignment
	if err := q.GetContext(ctx, &item, query, teacherID, subjectName, class.Grade, class.Major, class.ClassNumber); err != nil {
		return nil, fmt.Errorf("find teaching assignment: %w", err)
	}
	return &item, nil
}

func insertTeacher(ctx context.Context, q DBTX, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.Role == "" {
		teacher.Role = models.TeacherRoleTeacher
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, name, email, password_hash, role, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :role, :created_at, :updated_at)`
	if _, err := q.NamedExecContext(ctx, query, teacher); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert teacher %s: %w", teacher.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

func insertTeachingAssignment(ctx context.Context, q DBTX, assignment *models.TeachingAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	const query = `INSERT INTO teaching_assignments (id, teacher_id, subject_id, grade, major, class_number, total_assignments_assigned)
VALUES (:id, :teacher_id, :subject_id, :grade, :major, :class_number, 0)`
	if _, err := q.NamedExecContext(ctx, query, assignment); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert teaching assignment: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert teaching assignment: %w", err)
	}
	return nil
}

func incrementAssignmentCounter(ctx context.Context, q DBTX, assignmentID string) error {
	const query = `UPDATE teaching_assignments SET total_assignments_assigned = total_assignments_assigned + 1 WHERE id = $1`
	res, err := q.ExecContext(ctx, query, assignmentID)
	if err != nil {
		return fmt.Errorf("increment teaching assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("increment teaching assignment: %w", sql.ErrNoRows)
	}
	return nil
}

func insertHomeroom(ctx context.Context, q DBTX, homeroom *models.HomeroomClass) error {
	if homeroom.ID == "" {
		homeroom.ID = uuid.NewString()
	}
	const query = `INSERT INTO homeroom_classes (id, teacher_id, grade, major, class_number)
VALUES (:id, :teacher_id, :grade, :major, :class_number)`
	if _, err := q.NamedExecContext(ctx, query, homeroom); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert homeroom %s: %w", homeroom.ClassSelector, ErrDuplicate)
		}
		return fmt.Errorf("insert homeroom: %w", err)
	}
	return nil
}

// homeroomTeacherID returns the homeroom teacher of a class, or nil when the class has none.
func homeroomTeacherID(ctx context.Context, q DBTX, class models.ClassSelector) (*string, error) {
	const query = `SELECT teacher_id FROM homeroom_classes WHERE grade = $1 AND major = $2 AND class_number = $3`
	var teacherID string
	if err := q.GetContext(ctx, &teacherID, query, class.Grade, class.Major, class.ClassNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find homeroom teacher: %w", err)
	}
	return &teacherID, nil
}

func attachHomeroomStudents(ctx context.Context, q DBTX, homeroom models.HomeroomClass) error {
	const query = `UPDATE students SET homeroom_teacher_id = $1, updated_at = NOW()
WHERE grade = $2 AND major = $3 AND class_number = $4`
	if _, err := q.ExecContext(ctx, query, homeroom.TeacherID, homeroom.Grade, homeroom.Major, homeroom.ClassNumber); err != nil {
		return fmt.Errorf("attach homeroom students: %w", err)
	}
	return nil
}
