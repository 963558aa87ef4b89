package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/responsainveniree/student-info-api/internal/models"
)

const problemPointColumns = `id, student_id, teacher_id, category, point, description, date, day, created_at`

// ProblemPointRepository persists disciplinary records.
type ProblemPointRepository struct {
	db *sqlx.DB
}

// NewProblemPointRepository constructs the repository.
func NewProblemPointRepository(db *sqlx.DB) *ProblemPointRepository {
	return &ProblemPointRepository{db: db}
}

// ListByStudent returns a page of a student's records, newest first.
func (r *ProblemPointRepository) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]models.ProblemPoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM problem_points WHERE student_id = $1 ORDER BY date DESC, id ASC LIMIT $2 OFFSET $3`, problemPointColumns)
	var items []models.ProblemPoint
	if err := r.db.SelectContext(ctx, &items, query, studentID, limit, offset); err != nil {
		return nil, fmt.Errorf("list problem points: %w", err)
	}
	return items, nil
}

// CountByStudent counts a student's records.
func (r *ProblemPointRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM problem_points WHERE student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("count problem points: %w", err)
	}
	return total, nil
}

// CategoryTotals groups a student's records by category.
func (r *ProblemPointRepository) CategoryTotals(ctx context.Context, studentID string) ([]models.ProblemPointCategoryTotal, error) {
	const query = `SELECT category, COUNT(*) AS count, COALESCE(SUM(point), 0) AS points
FROM problem_points WHERE student_id = $1 GROUP BY category ORDER BY category`
	var rows []models.ProblemPointCategoryTotal
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("problem point totals: %w", err)
	}
	return rows, nil
}

// ProblemPointTx is the write surface used while recording problem points.
type ProblemPointTx interface {
	ExistingStudents(ctx context.Context, studentIDs []string) ([]string, error)
	CountSameDay(ctx context.Context, studentID string, category models.ProblemCategory, day time.Time) (int, error)
	Insert(ctx context.Context, point *models.ProblemPoint) error
}

// WithinTx runs fn in one transaction.
func (r *ProblemPointRepository) WithinTx(ctx context.Context, fn func(tx ProblemPointTx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&problemPointTx{q: tx})
	})
}

type problemPointTx struct {
	q DBTX
}

func (t *problemPointTx) ExistingStudents(ctx context.Context, studentIDs []string) ([]string, error) {
	var ids []string
	if err := t.q.SelectContext(ctx, &ids, `SELECT id FROM students WHERE id = ANY($1)`, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("check students: %w", err)
	}
	return ids, nil
}

// CountSameDay takes a transaction-scoped advisory lock on (student, category, day) before
// counting, so concurrent recorders of the same key are serialized.
func (t *problemPointTx) CountSameDay(ctx context.Context, studentID string, category models.ProblemCategory, day time.Time) (int, error) {
	key := fmt.Sprintf("problem_point:%s:%s:%s", studentID, category, day.Format(dayLayout))
	if _, err := t.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return 0, fmt.Errorf("lock problem point day: %w", err)
	}
	const query = `SELECT COUNT(*) FROM problem_points WHERE student_id = $1 AND category = $2 AND day = $3`
	var count int
	if err := t.q.GetContext(ctx, &count, query, studentID, category, day.Format(dayLayout)); err != nil {
		return 0, fmt.Errorf("count same day problem points: %w", err)
	}
	return count, nil
}

func (t *problemPointTx) Insert(ctx context.Context, point *models.ProblemPoint) error {
	if point.ID == "" {
		point.ID = uuid.NewString()
	}
	point.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO problem_points (id, student_id, teacher_id, category, point, description, date, day, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := t.q.ExecContext(ctx, query, point.ID, point.StudentID, point.TeacherID, point.Category, point.Point,
		point.Description, point.Date, point.Day.Format(dayLayout), point.CreatedAt); err != nil {
		return fmt.Errorf("insert problem point: %w", err)
	}
	return nil
}
