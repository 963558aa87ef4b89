package models

import (
	"time"

	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

// AttendanceType is the reason a student was not regularly present.
type AttendanceType string

const (
	AttendanceAlpha      AttendanceType = "ALPHA"
	AttendanceSick       AttendanceType = "SICK"
	AttendancePermission AttendanceType = "PERMISSION"
	AttendanceLate       AttendanceType = "LATE"
)

// AttendanceTypes lists every type in report order.
var AttendanceTypes = []AttendanceType{AttendanceSick, AttendancePermission, AttendanceAlpha, AttendanceLate}

// Valid reports whether t is a supported attendance type.
func (t AttendanceType) Valid() bool {
	switch t {
	case AttendanceAlpha, AttendanceSick, AttendancePermission, AttendanceLate:
		return true
	default:
		return false
	}
}

// StudentAttendance is the single record of a student for one calendar day.
type StudentAttendance struct {
	ID          string         `db:"id" json:"id"`
	StudentID   string         `db:"student_id" json:"student_id"`
	Date        time.Time      `db:"date" json:"date"`
	Day         time.Time      `db:"day" json:"day"`
	Type        AttendanceType `db:"type" json:"type"`
	Description string         `db:"description" json:"description"`
	RecordedBy  *string        `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AttendanceCounts maps each type to a number of days. Every type is present.
type AttendanceCounts map[AttendanceType]int

// NewAttendanceCounts returns counts with every type set to zero.
func NewAttendanceCounts() AttendanceCounts {
	counts := make(AttendanceCounts, len(AttendanceTypes))
	for _, t := range AttendanceTypes {
		counts[t] = 0
	}
	return counts
}

// AttendanceStats is the class-wide breakdown for a day.
type AttendanceStats struct {
	Sick       int `db:"sick" json:"sick"`
	Permission int `db:"permission" json:"permission"`
	Alpha      int `db:"alpha" json:"alpha"`
	Late       int `db:"late" json:"late"`
}

// StudentDayAttendance lists one student with the attendance rows of the requested day.
type StudentDayAttendance struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	StudentRole StudentRole         `json:"student_role"`
	Attendance  []StudentAttendance `json:"attendance"`
}

// ClassDaySummary is the paginated class view for one day.
type ClassDaySummary struct {
	Students   []StudentDayAttendance `json:"students"`
	TotalCount int                    `json:"total_count"`
	Stats      AttendanceStats        `json:"stats"`
	Paging     pagination.Params      `json:"-"`
}

// AttendanceRecapRow aggregates counts for one student over a range.
type AttendanceRecapRow struct {
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	Sick        int    `db:"sick" json:"sick"`
	Permission  int    `db:"permission" json:"permission"`
	Alpha       int    `db:"alpha" json:"alpha"`
	Late        int    `db:"late" json:"late"`
}
