package models

import "time"

// StudentRole distinguishes class secretaries, who may record attendance for their class.
type StudentRole string

const (
	StudentRoleRegular        StudentRole = "REGULAR"
	StudentRoleClassSecretary StudentRole = "CLASS_SECRETARY"
)

// Student represents a learner registered in a class.
type Student struct {
	ID                string      `db:"id" json:"id"`
	Name              string      `db:"name" json:"name"`
	Email             string      `db:"email" json:"email"`
	PasswordHash      string      `db:"password_hash" json:"-"`
	Grade             string      `db:"grade" json:"grade"`
	Major             string      `db:"major" json:"major"`
	ClassNumber       int         `db:"class_number" json:"class_number"`
	StudentRole       StudentRole `db:"student_role" json:"student_role"`
	HomeroomTeacherID *string     `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// Class returns the selector of the student's class.
func (s Student) Class() ClassSelector {
	return ClassSelector{Grade: s.Grade, Major: s.Major, ClassNumber: s.ClassNumber}
}

// AccountRole maps the student role onto the token role.
func (s Student) AccountRole() Role {
	if s.StudentRole == StudentRoleClassSecretary {
		return RoleClassSecretary
	}
	return RoleStudent
}

// Parent is a guardian account linked to one student.
type Parent struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
