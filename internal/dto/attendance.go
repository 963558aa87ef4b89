package dto

import (
	"time"

	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/export"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

// AttendanceEntry is one student's record in a class submission.
type AttendanceEntry struct {
	StudentID   string                `json:"student_id"`
	Type        models.AttendanceType `json:"type" validate:"required,oneof=ALPHA SICK PERMISSION LATE"`
	Description string                `json:"description" validate:"max=500"`
}

// RecordAttendanceRequest records a class's attendance for one day. Date defaults to now.
type RecordAttendanceRequest struct {
	Class   models.ClassSelector `json:"class"`
	Date    *time.Time           `json:"date"`
	Entries []AttendanceEntry    `json:"entries" validate:"required,min=1,dive"`
}

// ClassDayQuery selects one page of a class's attendance on a day.
type ClassDayQuery struct {
	Class  models.ClassSelector
	Date   time.Time
	Paging pagination.Params
}

// RecapQuery exports per-student counts over a range. A zero range means the current semester.
type RecapQuery struct {
	Class  models.ClassSelector
	From   *time.Time
	To     *time.Time
	Format export.Format
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
