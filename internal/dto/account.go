package dto

import "github.com/responsainveniree/student-info-api/internal/models"

// CreateStudentRequest provisions a student account.
type CreateStudentRequest struct {
	Name        string               `json:"name" validate:"required,max=120"`
	Email       string               `json:"email" validate:"required,email"`
	Password    string               `json:"password" validate:"required,min=8"`
	Class       models.ClassSelector `json:"class"`
	StudentRole models.StudentRole   `json:"student_role" validate:"omitempty,oneof=REGULAR CLASS_SECRETARY"`
}

// TeachingAssignmentInput assigns a subject in a class to a new teacher.
type TeachingAssignmentInput struct {
	SubjectName string               `json:"subject_name" validate:"required,max=100"`
	Class       models.ClassSelector `json:"class"`
}

// CreateTeacherRequest provisions a teacher or staff account.
type CreateTeacherRequest struct {
	Name        string                    `json:"name" validate:"required,max=120"`
	Email       string                    `json:"email" validate:"required,email"`
	Password    string                    `json:"password" validate:"required,min=8"`
	Role        models.TeacherRole        `json:"role" validate:"omitempty,oneof=TEACHER STAFF"`
	Assignments []TeachingAssignmentInput `json:"assignments" validate:"dive"`
	Homeroom    *models.ClassSelector     `json:"homeroom"`
}

// CreateParentRequest provisions a parent account linked to a student.
type CreateParentRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	StudentID string `json:"student_id"`
}

// CreatedTeacher bundles a new teacher with its assignments.
type CreatedTeacher struct {
	Teacher     models.Teacher              `json:"teacher"`
	Assignments []models.TeachingAssignment `json:"assignments"`
	Homeroom    *models.HomeroomClass       `json:"homeroom,omitempty"`
}

// ImportStudentsResult reports a roster import.
type ImportStudentsResult struct {
	Imported int              `json:"imported"`
	Students []models.Student `json:"students"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}
