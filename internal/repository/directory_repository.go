package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/responsainveniree/student-info-api/internal/models"
)

// DirectoryRepository answers the ownership questions behind authorization decisions.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// HomeroomClass returns the class a teacher is homeroom teacher of, or nil.
func (r *DirectoryRepository) HomeroomClass(ctx context.Context, teacherID string) (*models.ClassSelector, error) {
	const query = `SELECT grade, major, class_number FROM homeroom_classes WHERE teacher_id = $1`
	var class models.ClassSelector
	if err := r.db.GetContext(ctx, &class, query, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find homeroom class: %w", err)
	}
	return &class, nil
}

// StudentClass returns the class of a student, or nil when the student does not exist.
func (r *DirectoryRepository) StudentClass(ctx context.Context, studentID string) (*models.ClassSelector, error) {
	const query = `SELECT grade, major, class_number FROM students WHERE id = $1`
	var class models.ClassSelector
	if err := r.db.GetContext(ctx, &class, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student class: %w", err)
	}
	return &class, nil
}

// TeachesClass reports whether the teacher holds an assignment in the class. An empty subject
// matches any subject.
func (r *DirectoryRepository) TeachesClass(ctx context.Context, teacherID string, class models.ClassSelector, subjectName string) (bool, error) {
	query := `SELECT EXISTS (
	SELECT 1 FROM teaching_assignments ta
	JOIN subjects s ON s.id = ta.subject_id
	WHERE ta.teacher_id = $1 AND ta.grade = $2 AND ta.major = $3 AND ta.class_number = $4`
	args := []interface{}{teacherID, class.Grade, class.Major, class.ClassNumber}
	if subjectName != "" {
		args = append(args, subjectName)
		query += fmt.Sprintf(" AND s.name = $%d", len(args))
	}
	query += ")"

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, args...); err != nil {
		return false, fmt.Errorf("check teaching assignment: %w", err)
	}
	return ok, nil
}

// IsParentOf reports whether the parent account is linked to the student.
func (r *DirectoryRepository) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM parents WHERE id = $1 AND student_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, parentID, studentID); err != nil {
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return ok, nil
}
