package dto

import (
	"time"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/academic"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

// MarkDescriptionInput describes the column shared by every mark created in one request.
type MarkDescriptionInput struct {
	Detail  string    `json:"detail" validate:"required,max=500"`
	GivenAt time.Time `json:"given_at"`
	DueAt   time.Time `json:"due_at" validate:"required,gtefield=GivenAt"`
}

// OpenColumnRequest opens one assessment column for a whole class. TeacherID defaults to the
// caller when empty.
type OpenColumnRequest struct {
	Class          models.ClassSelector  `json:"class"`
	SubjectName    string                `json:"subject_name" validate:"required,max=100"`
	Description    MarkDescriptionInput  `json:"description"`
	AssessmentType models.AssessmentType `json:"assessment_type" validate:"required,oneof=QUIZ ASSIGNMENT EXAM"`
	TeacherID      string                `json:"teacher_id,omitempty"`
}

// OpenColumnResult reports the column created by OpenColumnRequest.
type OpenColumnResult struct {
	DescriptionID string            `json:"description_id"`
	AcademicYear  string            `json:"academic_year"`
	Semester      academic.Semester `json:"semester"`
	MarkCount     int               `json:"mark_count"`
}

// AppendMarkRequest opens a column for a single student.
type AppendMarkRequest struct {
	StudentID      string                `json:"-"`
	SubjectName    string                `json:"subject_name" validate:"required,max=100"`
	Description    MarkDescriptionInput  `json:"description"`
	AssessmentType models.AssessmentType `json:"assessment_type" validate:"required,oneof=QUIZ ASSIGNMENT EXAM"`
}

// ScoreEntry assigns a score to one student's mark in a column.
type ScoreEntry struct {
	StudentID string  `json:"student_id"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
}

// GradeColumnRequest sets scores on the marks of one column.
type GradeColumnRequest struct {
	DescriptionID string       `json:"-"`
	Scores        []ScoreEntry `json:"scores" validate:"required,min=1,dive"`
}

// MarkListQuery selects a student's marks for one subject. The period defaults to the current one.
type MarkListQuery struct {
	StudentID    string            `form:"-"`
	SubjectName  string            `form:"subject"`
	AcademicYear string            `form:"academicYear" validate:"omitempty,len=4,numeric"`
	Semester     academic.Semester `form:"semester" validate:"omitempty,oneof=FIRST SECOND"`
	Page         int               `form:"page"`
	PageSize     int               `form:"pageSize"`
}

// MarkListResult is a page of marks of one bucket.
type MarkListResult struct {
	Period     academic.Period    `json:"period"`
	Marks      []models.MarkEntry `json:"marks"`
	TotalCount int                `json:"total_count"`
	Paging     pagination.Params  `json:"-"`
}
