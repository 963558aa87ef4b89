package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
)

// CurriculumRepository manages the subject catalog and which subjects each grade and major take.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListSubjects returns the curriculum of a grade and major ordered by subject name.
func (r *CurriculumRepository) ListSubjects(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error) {
	return curriculumSubjects(ctx, r.db, grade, major)
}

// FindSubject returns the subject when it belongs to the curriculum of grade and major, or a
// wrapped sql.ErrNoRows.
func (r *CurriculumRepository) FindSubject(ctx context.Context, grade, major, subjectName string) (*models.Subject, error) {
	const query = `SELECT s.id, s.name, s.created_at
FROM curriculum_subjects cs
JOIN subjects s ON s.id = cs.subject_id
WHERE cs.grade = $1 AND cs.major = $2 AND s.name = $3`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, grade, major, subjectName); err != nil {
		return nil, fmt.Errorf("find curriculum subject: %w", err)
	}
	return &subject, nil
}

// CurriculumTx is the write surface used while assigning subjects.
type CurriculumTx interface {
	UpsertSubject(ctx context.Context, name string) (*models.Subject, error)
	AddToCurriculum(ctx context.Context, subjectID, grade, major string) error
	ListCurriculum(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error)
	StudentIDs(ctx context.Context, grade, major string) ([]string, error)
	EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error)
}

// WithinTx runs fn in one transaction.
func (r *CurriculumRepository) WithinTx(ctx context.Context, fn func(tx CurriculumTx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&curriculumTx{q: tx})
	})
}

type curriculumTx struct {
	q DBTX
}

func (t *curriculumTx) UpsertSubject(ctx context.Context, name string) (*models.Subject, error) {
	return upsertSubject(ctx, t.q, name)
}

func (t *curriculumTx) AddToCurriculum(ctx context.Context, subjectID, grade, major string) error {
	const query = `INSERT INTO curriculum_subjects (id, subject_id, grade, major) VALUES ($1, $2, $3, $4)
ON CONFLICT (subject_id, grade, major) DO NOTHING`
	if _, err := t.q.ExecContext(ctx, query, uuid.NewString(), subjectID, grade, major); err != nil {
		return fmt.Errorf("add curriculum subject: %w", err)
	}
	return nil
}

func (t *curriculumTx) ListCurriculum(ctx context.Context, grade, major string) ([]models.CurriculumSubject, error) {
	return curriculumSubjects(ctx, t.q, grade, major)
}

func (t *curriculumTx) StudentIDs(ctx context.Context, grade, major string) ([]string, error) {
	return studentIDsByGradeMajor(ctx, t.q, grade, major)
}

func (t *curriculumTx) EnsureBucket(ctx context.Context, studentID string, subject models.Subject, period academic.Period) (*models.SubjectMark, error) {
	return ensureBucket(ctx, t.q, studentID, subject, period)
}

func upsertSubject(ctx context.Context, q DBTX, name string) (*models.Subject, error) {
	const query = `INSERT INTO subjects (id, name, created_at) VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, created_at`
	var subject models.Subject
	if err := q.GetContext(ctx, &subject, query, uuid.NewString(), name); err != nil {
		return nil, fmt.Errorf("upsert subject: %w", err)
	}
	return &subject, nil
}

func findSubjectByName(ctx context.Context, q DBTX, name string) (*models.Subject, error) {
	var subject models.Subject
	if err := q.GetContext(ctx, &subject, `SELECT id, name, created_at FROM subjects WHERE name = $1`, name); err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

func curriculumSubjects(ctx context.Context, q DBTX, grade, major string) ([]models.CurriculumSubject, error) {
	const query = `SELECT cs.id, cs.subject_id, s.name AS subject_name, cs.grade, cs.major
FROM curriculum_subjects cs
JOIN subjects s ON s.id = cs.subject_id
WHERE cs.grade = $1 AND cs.major = $2
ORDER BY s.name ASC`
	var items []models.CurriculumSubject
	if err := q.SelectContext(ctx, &items, query, grade, major); err != nil {
		return nil, fmt.Errorf("list curriculum subjects: %w", err)
	}
	return items, nil
}
