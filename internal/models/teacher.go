package models

import "time"

// TeacherRole separates administrative staff from subject teachers.
type TeacherRole string

const (
	TeacherRoleTeacher TeacherRole = "TEACHER"
	TeacherRoleStaff   TeacherRole = "STAFF"
)

// Teacher represents a teacher or staff account.
type Teacher struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         TeacherRole `db:"role" json:"role"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// AccountRole maps the teacher role onto the token role.
func (t Teacher) AccountRole() Role {
	if t.Role == TeacherRoleStaff {
		return RoleStaff
	}
	return RoleTeacher
}

// TeachingAssignment counts the columns a teacher opened for one subject in one class.
type TeachingAssignment struct {
	ID                       string `db:"id" json:"id"`
	TeacherID                string `db:"teacher_id" json:"teacher_id"`
	SubjectID                string `db:"subject_id" json:"subject_id"`
	SubjectName              string `db:"subject_name" json:"subject_name,omitempty"`
	Grade                    string `db:"grade" json:"grade"`
	Major                    string `db:"major" json:"major"`
	ClassNumber              int    `db:"class_number" json:"class_number"`
	TotalAssignmentsAssigned int    `db:"total_assignments_assigned" json:"total_assignments_assigned"`
}

// TeachingAssignmentKey locates a teaching assignment by its natural key.
type TeachingAssignmentKey struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id"`
	ClassSelector
}
