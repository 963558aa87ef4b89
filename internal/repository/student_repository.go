package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

const studentColumns = `s.id, s.name, s.email, s.password_hash, s.grade, s.major, s.class_number, s.student_role,
	s.homeroom_teacher_id, s.created_at, s.updated_at`

// StudentRepository reads and updates student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student or a wrapped sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ClassStudentIDs returns the ids of every student in the class ordered by id.
func (r *StudentRepository) ClassStudentIDs(ctx context.Context, class models.ClassSelector) ([]string, error) {
	return classStudentIDs(ctx, r.db, class)
}

// ListClassPage returns one page of the class roster shaped by plan.
func (r *StudentRepository) ListClassPage(ctx context.Context, class models.ClassSelector, plan pagination.Plan) ([]models.Student, error) {
	where, args := classRosterFilter(class, plan)
	order := "s.id ASC"
	if plan.ApplySort {
		order = fmt.Sprintf("LOWER(s.name) %s, s.id ASC", plan.Order)
	}
	args = append(args, plan.Limit, plan.Offset)
	query := fmt.Sprintf("SELECT %s FROM students s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		studentColumns, where, order, len(args)-1, len(args))

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// CountClass counts the class roster under the plan's filter.
func (r *StudentRepository) CountClass(ctx context.Context, class models.ClassSelector, plan pagination.Plan) (int, error) {
	where, args := classRosterFilter(class, plan)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s WHERE "+where, args...); err != nil {
		return 0, fmt.Errorf("count class students: %w", err)
	}
	return total, nil
}

func classRosterFilter(class models.ClassSelector, plan pagination.Plan) (string, []interface{}) {
	conditions := []string{"s.grade = $1", "s.major = $2", "s.class_number = $3"}
	args := []interface{}{class.Grade, class.Major, class.ClassNumber}
	if plan.Filtered() {
		args = append(args, plan.Pattern())
		conditions = append(conditions, fmt.Sprintf("LOWER(s.name) LIKE $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

func classStudentIDs(ctx context.Context, q DBTX, class models.ClassSelector) ([]string, error) {
	const query = `SELECT id FROM students WHERE grade = $1 AND major = $2 AND class_number = $3 ORDER BY id ASC`
	var ids []string
	if err := q.SelectContext(ctx, &ids, query, class.Grade, class.Major, class.ClassNumber); err != nil {
		return nil, fmt.Errorf("list class student ids: %w", err)
	}
	return ids, nil
}

func studentIDsByGradeMajor(ctx context.Context, q DBTX, grade, major string) ([]string, error) {
	const query = `SELECT id FROM students WHERE grade = $1 AND major = $2 ORDER BY id ASC`
	var ids []string
	if err := q.SelectContext(ctx, &ids, query, grade, major); err != nil {
		return nil, fmt.Errorf("list student ids by grade and major: %w", err)
	}
	return ids, nil
}

func insertStudent(ctx context.Context, q DBTX, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.StudentRole == "" {
		student.StudentRole = models.StudentRoleRegular
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, email, password_hash, grade, major, class_number, student_role,
	homeroom_teacher_id, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :grade, :major, :class_number, :student_role,
	:homeroom_teacher_id, :created_at, :updated_at)`
	if _, err := q.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert student %s: %w", student.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}
