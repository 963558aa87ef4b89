package models

import (
	"time"

	"github.com/responsainveniree/student-info-api/pkg/academic"
)

// AssessmentType classifies a mark column.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "QUIZ"
	AssessmentAssignment AssessmentType = "ASSIGNMENT"
	AssessmentExam       AssessmentType = "EXAM"
)

// Valid reports whether t is a supported assessment type.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentQuiz, AssessmentAssignment, AssessmentExam:
		return true
	default:
		return false
	}
}

// SubjectMark is the per-student, per-subject, per-period bucket holding marks. AssessmentCount
// is the next assessment number to hand out.
type SubjectMark struct {
	ID              string            `db:"id" json:"id"`
	StudentID       string            `db:"student_id" json:"student_id"`
	SubjectID       string            `db:"subject_id" json:"subject_id"`
	SubjectName     string            `db:"subject_name" json:"subject_name"`
	AcademicYear    string            `db:"academic_year" json:"academic_year"`
	Semester        academic.Semester `db:"semester" json:"semester"`
	AssessmentCount int               `db:"assessment_count" json:"assessment_count"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

// Period returns the bucket's period key.
func (m SubjectMark) Period() academic.Period {
	return academic.Period{Semester: m.Semester, AcademicYear: m.AcademicYear}
}

// MarkDescription is shared by every mark created in one column opening.
type MarkDescription struct {
	ID        string    `db:"id" json:"id"`
	Detail    string    `db:"detail" json:"detail"`
	GivenAt   time.Time `db:"given_at" json:"given_at"`
	DueAt     time.Time `db:"due_at" json:"due_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Mark is one assessment entry in a bucket. Score stays nil until graded.
type Mark struct {
	ID               string         `db:"id" json:"id"`
	SubjectMarkID    string         `db:"subject_mark_id" json:"subject_mark_id"`
	DescriptionID    string         `db:"description_id" json:"description_id"`
	AssessmentNumber int            `db:"assessment_number" json:"assessment_number"`
	Type             AssessmentType `db:"type" json:"type"`
	Score            *float64       `db:"score" json:"score"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// MarkEntry is a mark joined with its description for listings.
type MarkEntry struct {
	Mark
	Detail  string    `db:"detail" json:"detail"`
	GivenAt time.Time `db:"given_at" json:"given_at"`
	DueAt   time.Time `db:"due_at" json:"due_at"`
}
