package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
)

const bucketColumns = `id, student_id, subject_id, subject_name, academic_year, semester, assessment_count, created_at`

// MarkRepository persists mark buckets, columns and scores.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// EnsureBucket returns the bucket for the key, creating it when absent. Concurrent callers
// converge on the same row through the unique key.
func (r *MarkRepository) EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	return ensureBucket(ctx, r.db, studentID, subject, period)
}

// FindBucket returns the bucket for the key or a wrapped sql.ErrNoRows.
func (r *MarkRepository) FindBucket(ctx context.Context, studentID, subjectName string, period academic.Period) (*models.SubjectMark, error) {
	return findBucket(ctx, r.db, studentID, subjectName, period, false)
}

// ListMarks returns a page of a bucket's marks ordered by assessment number.
func (r *MarkRepository) ListMarks(ctx context.Context, bucketID string, offset, limit int) ([]models.MarkEntry, error) {
	const query = `SELECT m.id, m.subject_mark_id, m.description_id, m.assessment_number, m.type, m.score, m.created_at,
	m.updated_at, d.detail, d.given_at, d.due_at
FROM marks m
JOIN mark_descriptions d ON d.id = m.description_id
WHERE m.subject_mark_id = $1
ORDER BY m.assessment_number ASC
LIMIT $2 OFFSET $3`
	var entries []models.MarkEntry
	if err := r.db.SelectContext(ctx, &entries, query, bucketID, limit, offset); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return entries, nil
}

// CountMarks counts the marks of a bucket.
func (r *MarkRepository) CountMarks(ctx context.Context, bucketID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM marks WHERE subject_mark_id = $1`, bucketID); err != nil {
		return 0, fmt.Errorf("count marks: %w", err)
	}
	return total, nil
}

// ColumnOwner locates the class and subject a mark column was opened for.
type ColumnOwner struct {
	models.ClassSelector
	SubjectName string `db:"subject_name"`
}

// FindColumnOwner resolves the class and subject of a description, or a wrapped sql.ErrNoRows.
func (r *MarkRepository) FindColumnOwner(ctx context.Context, descriptionID string) (*ColumnOwner, error) {
	const query = `SELECT st.grade, st.major, st.class_number, sm.subject_name
FROM marks m
JOIN subject_marks sm ON sm.id = m.subject_mark_id
JOIN students st ON st.id = sm.student_id
WHERE m.description_id = $1
LIMIT 1`
	var owner ColumnOwner
	if err := r.db.GetContext(ctx, &owner, query, descriptionID); err != nil {
		return nil, fmt.Errorf("find column owner: %w", err)
	}
	return &owner, nil
}

// MarkLedgerTx is the write surface of a column opening or grading run.
type MarkLedgerTx interface {
	CreateDescription(ctx context.Context, description *models.MarkDescription) error
	FindBucketForUpdate(ctx context.Context, studentID, subjectName string, period academic.Period) (*models.SubjectMark, error)
	ReserveAssessmentNumber(ctx context.Context, bucketID string) (int, error)
	InsertMark(ctx context.Context, mark *models.Mark) error
	IncrementAssignmentCounter(ctx context.Context, assignmentID string) error
	SetScore(ctx context.Context, descriptionID, studentID string, score float64) error
}

// WithinTx runs fn in one transaction.
func (r *MarkRepository) WithinTx(ctx context.Context, fn func(tx MarkLedgerTx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&markLedgerTx{q: tx})
	})
}

type markLedgerTx struct {
	q DBTX
}

func (t *markLedgerTx) CreateDescription(ctx context.Context, description *models.MarkDescription) error {
	if description.ID == "" {
		description.ID = uuid.NewString()
	}
	description.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO mark_descriptions (id, detail, given_at, due_at, created_at)
VALUES (:id, :detail, :given_at, :due_at, :created_at)`
	if _, err := t.q.NamedExecContext(ctx, query, description); err != nil {
		return fmt.Errorf("insert mark description: %w", err)
	}
	return nil
}

func (t *markLedgerTx) FindBucketForUpdate(ctx context.Context, studentID, subjectName string, period academic.Period) (*models.SubjectMark, error) {
	return findBucket(ctx, t.q, studentID, subjectName, period, true)
}

// ReserveAssessmentNumber hands out the bucket's next number. The update holds the row lock until
// the transaction ends, serializing concurrent openings on the same bucket.
func (t *markLedgerTx) ReserveAssessmentNumber(ctx context.Context, bucketID string) (int, error) {
	const query = `UPDATE subject_marks SET assessment_count = assessment_count + 1 WHERE id = $1
RETURNING assessment_count - 1`
	var number int
	if err := t.q.GetContext(ctx, &number, query, bucketID); err != nil {
		return 0, fmt.Errorf("reserve assessment number: %w", err)
	}
	return number, nil
}

func (t *markLedgerTx) InsertMark(ctx context.Context, mark *models.Mark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	mark.CreatedAt = now
	mark.UpdatedAt = now
	const query = `INSERT INTO marks (id, subject_mark_id, description_id, assessment_number, type, score, created_at, updated_at)
VALUES (:id, :subject_mark_id, :description_id, :assessment_number, :type, :score, :created_at, :updated_at)`
	if _, err := t.q.NamedExecContext(ctx, query, mark); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert mark %d: %w", mark.AssessmentNumber, ErrDuplicate)
		}
		return fmt.Errorf("insert mark: %w", err)
	}
	return nil
}

func (t *markLedgerTx) IncrementAssignmentCounter(ctx context.Context, assignmentID string) error {
	return incrementAssignmentCounter(ctx, t.q, assignmentID)
}

func (t *markLedgerTx) SetScore(ctx context.Context, descriptionID, studentID string, score float64) error {
	const query = `UPDATE marks m SET score = $1, updated_at = NOW()
FROM subject_marks sm
WHERE sm.id = m.subject_mark_id AND m.description_id = $2 AND sm.student_id = $3`
	res, err := t.q.ExecContext(ctx, query, score, descriptionID, studentID)
	if err != nil {
		return fmt.Errorf("set mark score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set mark score: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set mark score for %s: %w", studentID, sql.ErrNoRows)
	}
	return nil
}

func ensureBucket(ctx context.Context, q DBTX, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	const insert = `INSERT INTO subject_marks (id, student_id, subject_id, subject_name, academic_year, semester, assessment_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, NOW())
ON CONFLICT (student_id, subject_name, academic_year, semester) DO NOTHING`
	if _, err := q.ExecContext(ctx, insert, uuid.NewString(), studentID, subject.ID, subject.Name, period.AcademicYear, period.Semester); err != nil {
		return nil, fmt.Errorf("ensure subject mark: %w", err)
	}
	return findBucket(ctx, q, studentID, subject.Name, period, false)
}

func findBucket(ctx context.Context, q DBTX, studentID, subjectName string, period academic.Period, forUpdate bool) (*models.SubjectMark, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_marks
WHERE student_id = $1 AND subject_name = $2 AND academic_year = $3 AND semester = $4`, bucketColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var bucket models.SubjectMark
	if err := q.GetContext(ctx, &bucket, query, studentID, subjectName, period.AcademicYear, period.Semester); err != nil {
		return nil, fmt.Errorf("find subject mark: %w", err)
	}
	return &bucket, nil
}
