package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
)

const dayLayout = "2006-01-02"

// AttendanceRepository reads and writes daily attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// TypeCount is one grouped row of a per-student summary.
type TypeCount struct {
	Type  models.AttendanceType `db:"type"`
	Count int                   `db:"count"`
}

// CountByStudent groups the full attendance history of a student by type.
func (r *AttendanceRepository) CountByStudent(ctx context.Context, studentID string) ([]TypeCount, error) {
	const query = `SELECT type, COUNT(*) AS count FROM student_attendances WHERE student_id = $1 GROUP BY type`
	var rows []TypeCount
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("count student attendance: %w", err)
	}
	return rows, nil
}

// ClassStats counts attendance rows per type across a class inside the window.
func (r *AttendanceRepository) ClassStats(ctx context.Context, class models.ClassSelector, window academic.DateRange) (models.AttendanceStats, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE a.type = 'SICK') AS sick,
	COUNT(*) FILTER (WHERE a.type = 'PERMISSION') AS permission,
	COUNT(*) FILTER (WHERE a.type = 'ALPHA') AS alpha,
	COUNT(*) FILTER (WHERE a.type = 'LATE') AS late
FROM student_attendances a
JOIN students s ON s.id = a.student_id
WHERE s.grade = $1 AND s.major = $2 AND s.class_number = $3 AND a.date >= $4 AND a.date < $5`
	var stats models.AttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, class.Grade, class.Major, class.ClassNumber, window.Start, window.End); err != nil {
		return models.AttendanceStats{}, fmt.Errorf("class attendance stats: %w", err)
	}
	return stats, nil
}

// ForStudents returns the attendance rows of the given students inside the window.
func (r *AttendanceRepository) ForStudents(ctx context.Context, studentIDs []string, window academic.DateRange) ([]models.StudentAttendance, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, student_id, date, day, type, description, recorded_by, created_at, updated_at
FROM student_attendances
WHERE student_id = ANY($1) AND date >= $2 AND date < $3
ORDER BY date ASC`
	var rows []models.StudentAttendance
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(studentIDs), window.Start, window.End); err != nil {
		return nil, fmt.Errorf("list attendance for students: %w", err)
	}
	return rows, nil
}

// Recap counts each student's attendance types over the window. Students without rows appear with
// zero counts.
func (r *AttendanceRepository) Recap(ctx context.Context, class models.ClassSelector, window academic.DateRange) ([]models.AttendanceRecapRow, error) {
	const query = `SELECT s.id AS student_id, s.name AS student_name,
	COUNT(a.id) FILTER (WHERE a.type = 'SICK') AS sick,
	COUNT(a.id) FILTER (WHERE a.type = 'PERMISSION') AS permission,
	COUNT(a.id) FILTER (WHERE a.type = 'ALPHA') AS alpha,
	COUNT(a.id) FILTER (WHERE a.type = 'LATE') AS late
FROM students s
LEFT JOIN student_attendances a ON a.student_id = s.id AND a.date >= $4 AND a.date < $5
WHERE s.grade = $1 AND s.major = $2 AND s.class_number = $3
GROUP BY s.id, s.name
ORDER BY LOWER(s.name) ASC`
	var rows []models.AttendanceRecapRow
	if err := r.db.SelectContext(ctx, &rows, query, class.Grade, class.Major, class.ClassNumber, window.Start, window.End); err != nil {
		return nil, fmt.Errorf("attendance recap: %w", err)
	}
	return rows, nil
}

// AttendanceTx is the write surface used while recording a class.
type AttendanceTx interface {
	ClassStudentIDs(ctx context.Context, class models.ClassSelector) ([]string, error)
	Upsert(ctx context.Context, record *models.StudentAttendance) error
}

// WithinTx runs fn in one transaction.
func (r *AttendanceRepository) WithinTx(ctx context.Context, fn func(tx AttendanceTx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&attendanceTx{q: tx})
	})
}

type attendanceTx struct {
	q DBTX
}

func (t *attendanceTx) ClassStudentIDs(ctx context.Context, class models.ClassSelector) ([]string, error) {
	return classStudentIDs(ctx, t.q, class)
}

// Upsert keeps one row per student and calendar day; a later record replaces the earlier one.
func (t *attendanceTx) Upsert(ctx context.Context, record *models.StudentAttendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO student_attendances (id, student_id, date, day, type, description, recorded_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (student_id, day) DO UPDATE SET
	date = EXCLUDED.date,
	type = EXCLUDED.type,
	description = EXCLUDED.description,
	recorded_by = EXCLUDED.recorded_by,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`
	row := struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}{}
	if err := t.q.GetContext(ctx, &row, query, record.ID, record.StudentID, record.Date, record.Day.Format(dayLayout),
		record.Type, record.Description, record.RecordedBy, now); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	record.UpdatedAt = row.UpdatedAt
	return nil
}
